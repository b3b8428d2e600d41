// Package actions is the boundary between transports and the cart services.
// Every call returns an other.Result envelope; errors and panics never cross it.
package actions

import (
	"context"
	"errors"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"go.uber.org/zap"
)

type CartActions struct {
	cart     *services.CartService
	checkout *services.CheckoutService
	products repositories.ProductRepository
	logger   *zap.Logger
}

func NewCartActions(cart *services.CartService, checkout *services.CheckoutService, products repositories.ProductRepository, logger *zap.Logger) *CartActions {
	return &CartActions{cart: cart, checkout: checkout, products: products, logger: logger}
}

type AddToCartInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	VariantID string `json:"variantId,omitempty"`
}

type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type CartCount struct {
	Count int `json:"count"`
}

func (a *CartActions) GetCart(ctx context.Context, owner models.CartOwner) other.Result[other.CartView] {
	return run(a.logger, "GetCart", func() (other.CartView, error) {
		cart, err := a.cart.GetCart(ctx, owner)
		if err != nil {
			return other.CartView{}, err
		}
		return NewCartView(cart, a.cart.Pricing().Currency), nil
	})
}

func (a *CartActions) CartCount(ctx context.Context, owner models.CartOwner) other.Result[CartCount] {
	return run(a.logger, "CartCount", func() (CartCount, error) {
		n, err := a.cart.GetItemCount(ctx, owner)
		return CartCount{Count: n}, err
	})
}

func (a *CartActions) AddToCart(ctx context.Context, owner models.CartOwner, in AddToCartInput) other.Result[other.CartView] {
	return a.mutate("AddToCart", func() (*models.Cart, error) {
		return a.cart.AddItem(ctx, owner, in.ProductID, in.Quantity, in.VariantID)
	})
}

func (a *CartActions) UpdateCartItem(ctx context.Context, owner models.CartOwner, itemID string, qty int) other.Result[other.CartView] {
	return a.mutate("UpdateCartItem", func() (*models.Cart, error) {
		return a.cart.UpdateItem(ctx, owner, itemID, qty)
	})
}

func (a *CartActions) RemoveFromCart(ctx context.Context, owner models.CartOwner, itemID string) other.Result[other.CartView] {
	return a.mutate("RemoveFromCart", func() (*models.Cart, error) {
		return a.cart.RemoveItem(ctx, owner, itemID)
	})
}

func (a *CartActions) ClearCart(ctx context.Context, owner models.CartOwner) other.Result[other.CartView] {
	return a.mutate("ClearCart", func() (*models.Cart, error) {
		return a.cart.ClearCart(ctx, owner)
	})
}

func (a *CartActions) MergeCarts(ctx context.Context, from models.AnonymousOwner, to models.UserOwner) other.Result[other.CartView] {
	return a.mutate("MergeCarts", func() (*models.Cart, error) {
		return a.cart.MergeCarts(ctx, from, to)
	})
}

func (a *CartActions) Checkout(ctx context.Context, owner models.CartOwner) other.Result[other.OrderView] {
	return run(a.logger, "Checkout", func() (other.OrderView, error) {
		order, err := a.checkout.PlaceOrder(ctx, owner)
		if err != nil {
			return other.OrderView{}, err
		}
		return NewOrderView(order), nil
	})
}

func (a *CartActions) Orders(ctx context.Context, owner models.CartOwner) other.Result[[]other.OrderView] {
	return run(a.logger, "Orders", func() ([]other.OrderView, error) {
		user, ok := owner.(models.UserOwner)
		if !ok {
			return nil, services.NewValidationError(services.ErrMsgLoginRequired)
		}
		orders, err := a.checkout.ListOrders(ctx, user.UserID)
		if err != nil {
			return nil, err
		}
		views := make([]other.OrderView, 0, len(orders))
		for i := range orders {
			views = append(views, NewOrderView(&orders[i]))
		}
		return views, nil
	})
}

// Product returns an active product with its active variants.
func (a *CartActions) Product(ctx context.Context, id string) other.Result[other.ProductView] {
	return run(a.logger, "Product", func() (other.ProductView, error) {
		product, err := a.products.GetByID(ctx, id)
		if err != nil {
			return other.ProductView{}, err
		}
		if product == nil || !product.Active {
			return other.ProductView{}, services.NewNotFoundError(services.ErrMsgProductNotFound)
		}
		return NewProductView(product), nil
	})
}

func (a *CartActions) mutate(op string, fn func() (*models.Cart, error)) other.Result[other.CartView] {
	return run(a.logger, op, func() (other.CartView, error) {
		cart, err := fn()
		if err != nil {
			return other.CartView{}, err
		}
		return NewCartView(cart, a.cart.Pricing().Currency), nil
	})
}

func run[T any](logger *zap.Logger, op string, fn func() (T, error)) (res other.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("CartActions."+op+": recovered from panic", zap.Any("panic", r), zap.Stack("stack"))
			res = other.Fail[T](unknownError())
		}
	}()

	data, err := fn()
	if err != nil {
		return other.Fail[T](errorBody(logger, op, err))
	}
	return other.OK(data)
}

func unknownError() other.ErrorBody {
	return other.ErrorBody{Kind: string(services.KindUnknown), Message: services.ErrMsgSomethingWentWrong}
}

// errorBody maps err onto the envelope. Only typed cart errors keep their
// message; everything else is logged and reported generically.
func errorBody(logger *zap.Logger, op string, err error) other.ErrorBody {
	var ce *services.CartError
	if !errors.As(err, &ce) {
		logger.Error("CartActions."+op+": unexpected failure", zap.Error(err))
		return unknownError()
	}

	body := other.ErrorBody{Kind: string(ce.Kind), Message: ce.Message}
	if ce.Kind == services.KindInsufficientStock {
		available := ce.Available
		body.Available = &available
	}
	return body
}
