package cartstore

import (
	"context"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
)

// Backend is the server side of the store. Implementations report failures in
// the envelope and never return Go errors.
type Backend interface {
	GetCart(ctx context.Context) other.Result[other.CartView]
	AddToCart(ctx context.Context, in actions.AddToCartInput) other.Result[other.CartView]
	UpdateCartItem(ctx context.Context, itemID string, qty int) other.Result[other.CartView]
	RemoveFromCart(ctx context.Context, itemID string) other.Result[other.CartView]
	ClearCart(ctx context.Context) other.Result[other.CartView]
}

// SessionCarrier is implemented by backends that hold an anonymous cart
// session token the store should persist across restarts.
type SessionCarrier interface {
	SessionToken() string
	SetSessionToken(token string)
}

// ActionsBackend calls CartActions in process for a fixed owner.
type ActionsBackend struct {
	actions *actions.CartActions
	owner   models.CartOwner
}

func NewActionsBackend(a *actions.CartActions, owner models.CartOwner) *ActionsBackend {
	return &ActionsBackend{actions: a, owner: owner}
}

func (b *ActionsBackend) GetCart(ctx context.Context) other.Result[other.CartView] {
	return b.actions.GetCart(ctx, b.owner)
}

func (b *ActionsBackend) AddToCart(ctx context.Context, in actions.AddToCartInput) other.Result[other.CartView] {
	return b.actions.AddToCart(ctx, b.owner, in)
}

func (b *ActionsBackend) UpdateCartItem(ctx context.Context, itemID string, qty int) other.Result[other.CartView] {
	return b.actions.UpdateCartItem(ctx, b.owner, itemID, qty)
}

func (b *ActionsBackend) RemoveFromCart(ctx context.Context, itemID string) other.Result[other.CartView] {
	return b.actions.RemoveFromCart(ctx, b.owner, itemID)
}

func (b *ActionsBackend) ClearCart(ctx context.Context) other.Result[other.CartView] {
	return b.actions.ClearCart(ctx, b.owner)
}
