// Package cartstore keeps the client's view of the cart and applies mutations
// optimistically, reconciling with the server's answer or rolling back.
package cartstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized   = errors.New("cartstore: cart has not been loaded yet")
	ErrMutationInFlight = errors.New("cartstore: another cart update is still in progress")
)

// RejectedError is returned when the server refused a mutation. The local
// state has already been rolled back when the caller sees it.
type RejectedError struct {
	Body other.ErrorBody
}

func (e *RejectedError) Error() string {
	return e.Body.Message
}

type Options struct {
	// Persister defaults to an in-memory one.
	Persister Persister
	// Notify receives the server's failure message verbatim after a rollback.
	Notify  func(message string)
	Pricing calc.Pricing
	Logger  *zap.Logger
}

type Store struct {
	backend   Backend
	persister Persister
	notify    func(string)
	pricing   calc.Pricing
	logger    *zap.Logger

	mountMu sync.Mutex
	mounted bool

	mu       sync.Mutex
	phase    Phase
	cart     other.CartView
	inFlight bool
}

func New(backend Backend, opts Options) *Store {
	if opts.Persister == nil {
		opts.Persister = NewMemoryPersister()
	}
	if opts.Notify == nil {
		opts.Notify = func(string) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Pricing == (calc.Pricing{}) {
		opts.Pricing = calc.DefaultPricing()
	}

	return &Store{
		backend:   backend,
		persister: opts.Persister,
		notify:    opts.Notify,
		pricing:   opts.Pricing,
		logger:    opts.Logger,
		phase:     PhaseUninitialized,
	}
}

// Mount loads the cart once. Reads stay unavailable until the first refresh
// from the server returns; the persisted cart is only used when that refresh
// fails. Later calls are no-ops.
func (s *Store) Mount(ctx context.Context) error {
	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	if s.mounted {
		return nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inFlight = true
	s.mounted = true
	s.mu.Unlock()

	cached := s.loadSnapshot(ctx)
	res := s.invoke(ctx, "GetCart", s.backend.GetCart)

	s.mu.Lock()
	s.inFlight = false
	if res.Success && res.Data != nil {
		s.cart = res.Data.Clone()
		s.phase = PhaseIdle
		s.mu.Unlock()

		s.persist(ctx)
		return nil
	}
	if cached != nil {
		s.cart = cached.Cart.Clone()
		s.phase = PhaseIdle
	}
	s.mu.Unlock()

	return &RejectedError{Body: failureBody(res)}
}

// Refresh reloads the cart from the server.
func (s *Store) Refresh(ctx context.Context) error {
	return s.refresh(ctx)
}

func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() (other.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseUninitialized {
		return other.CartView{}, ErrNotInitialized
	}
	return s.cart.Clone(), nil
}

func (s *Store) AddToCart(ctx context.Context, in actions.AddToCartInput) error {
	return s.mutate(ctx, "AddToCart",
		func(cart *other.CartView) { applyAdd(cart, in) },
		func(ctx context.Context) other.Result[other.CartView] { return s.backend.AddToCart(ctx, in) },
	)
}

func (s *Store) UpdateCartItem(ctx context.Context, itemID string, qty int) error {
	return s.mutate(ctx, "UpdateCartItem",
		func(cart *other.CartView) { applyUpdate(cart, itemID, qty) },
		func(ctx context.Context) other.Result[other.CartView] {
			return s.backend.UpdateCartItem(ctx, itemID, qty)
		},
	)
}

func (s *Store) RemoveFromCart(ctx context.Context, itemID string) error {
	return s.mutate(ctx, "RemoveFromCart",
		func(cart *other.CartView) { applyRemove(cart, itemID) },
		func(ctx context.Context) other.Result[other.CartView] { return s.backend.RemoveFromCart(ctx, itemID) },
	)
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "ClearCart",
		applyClear,
		func(ctx context.Context) other.Result[other.CartView] { return s.backend.ClearCart(ctx) },
	)
}

// mutate applies the change locally, calls the server, then either adopts the
// server cart or restores the exact pre-mutation snapshot. Only one mutation
// may be in flight; a second one is rejected, not queued.
func (s *Store) mutate(ctx context.Context, op string, apply func(*other.CartView), call func(context.Context) other.Result[other.CartView]) error {
	s.mu.Lock()
	if s.phase == PhaseUninitialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inFlight = true

	snapshot := s.cart.Clone()
	optimistic := s.cart.Clone()
	apply(&optimistic)
	recompute(&optimistic, s.pricing)
	s.cart = optimistic
	s.phase = PhaseOptimistic
	s.mu.Unlock()

	res := s.invoke(ctx, op, call)

	s.mu.Lock()
	s.inFlight = false
	if res.Success && res.Data != nil {
		s.cart = res.Data.Clone()
		s.phase = PhaseReconciled
		s.mu.Unlock()

		s.persist(ctx)
		return nil
	}

	s.cart = snapshot
	s.phase = PhaseRolledBack
	s.mu.Unlock()

	body := failureBody(res)
	s.logger.Info("cartstore: mutation rolled back", zap.String("op", op), zap.String("kind", body.Kind))
	s.notify(body.Message)
	return &RejectedError{Body: body}
}

func (s *Store) refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	res := s.invoke(ctx, "GetCart", s.backend.GetCart)

	s.mu.Lock()
	s.inFlight = false
	if !res.Success || res.Data == nil {
		s.mu.Unlock()
		return &RejectedError{Body: failureBody(res)}
	}
	s.cart = res.Data.Clone()
	s.phase = PhaseIdle
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// invoke shields the store from a panicking backend so the in-flight guard is
// always released.
func (s *Store) invoke(ctx context.Context, op string, call func(context.Context) other.Result[other.CartView]) (res other.Result[other.CartView]) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cartstore: backend panicked", zap.String("op", op), zap.Any("panic", r))
			res = other.Fail[other.CartView](other.ErrorBody{
				Kind:    string(services.KindUnknown),
				Message: services.ErrMsgSomethingWentWrong,
			})
		}
	}()
	return call(ctx)
}

func failureBody(res other.Result[other.CartView]) other.ErrorBody {
	if res.Error != nil {
		return *res.Error
	}
	return other.ErrorBody{Kind: string(services.KindUnknown), Message: services.ErrMsgSomethingWentWrong}
}

// loadSnapshot reads the persisted cart and hands its session token to the
// backend so the first refresh resolves the same server cart.
func (s *Store) loadSnapshot(ctx context.Context) *Snapshot {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("cartstore: ignoring unreadable snapshot", zap.Error(err))
		return nil
	}
	if snap == nil {
		return nil
	}

	if carrier, ok := s.backend.(SessionCarrier); ok && snap.SessionToken != "" {
		carrier.SetSessionToken(snap.SessionToken)
	}
	return snap
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	snap := Snapshot{Cart: s.cart.Clone(), SavedAt: time.Now().UTC()}
	s.mu.Unlock()

	if carrier, ok := s.backend.(SessionCarrier); ok {
		snap.SessionToken = carrier.SessionToken()
	}

	if err := s.persister.Save(ctx, snap); err != nil {
		s.logger.Warn("cartstore: failed to persist cart", zap.Error(err))
	}
}
