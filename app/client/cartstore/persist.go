package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/go-redis/redis/v8"
)

// DefaultKey is the fixed storage name of the persisted cart.
const DefaultKey = "storefront-cart"

// Snapshot is what survives a restart of the client.
type Snapshot struct {
	Cart         other.CartView `json:"cart"`
	SessionToken string         `json:"sessionToken,omitempty"`
	SavedAt      time.Time      `json:"savedAt"`
}

// Persister stores the last reconciled cart. Load returns nil, nil when nothing
// has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Clear(ctx context.Context) error
}

type RedisPersister struct {
	client *redis.Client
	key    string
}

func NewRedisPersister(client *redis.Client, key string) *RedisPersister {
	if key == "" {
		key = DefaultKey
	}
	return &RedisPersister{client: client, key: key}
}

func (p *RedisPersister) Load(ctx context.Context) (*Snapshot, error) {
	val, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", p.key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse cart snapshot: %w", err)
	}
	return &snap, nil
}

func (p *RedisPersister) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", p.key, err)
	}
	return nil
}

func (p *RedisPersister) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}

// MemoryPersister keeps the encoded snapshot in memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data == nil {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(p.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (p *MemoryPersister) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return nil
}

func (p *MemoryPersister) Clear(ctx context.Context) error {
	p.mu.Lock()
	p.data = nil
	p.mu.Unlock()
	return nil
}
