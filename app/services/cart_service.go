package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartService is the only write path for carts. Every mutation runs in one
// transaction holding row locks on the cart and on the product (or variant)
// being checked, and recomputes the cart totals before committing.
type CartService struct {
	db           *gorm.DB
	cartRepo     repositories.CartRepository
	cartItemRepo repositories.CartItemRepository
	productRepo  repositories.ProductRepository
	pricing      calc.Pricing
	logger       *zap.Logger
}

func NewCartService(
	db *gorm.DB,
	cartRepo repositories.CartRepository,
	cartItemRepo repositories.CartItemRepository,
	productRepo repositories.ProductRepository,
	pricing calc.Pricing,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		db:           db,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		pricing:      pricing,
		logger:       logger,
	}
}

// cartTx bundles the repositories bound to one transaction.
type cartTx struct {
	carts    repositories.CartRepository
	items    repositories.CartItemRepository
	products repositories.ProductRepository
}

// purchasable is the product or variant a cart line is priced and stock-checked against.
type purchasable struct {
	name  string
	price decimal.Decimal
	stock int
}

func (s *CartService) Pricing() calc.Pricing {
	return s.pricing
}

// GetCart returns the owner's cart with items. An owner without a cart gets an
// empty, unsaved cart; reads never create rows.
func (s *CartService) GetCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if !models.ValidOwner(owner) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}

	cart, err := s.cartRepo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart for %s: %w", owner, err)
	}
	if cart == nil {
		return models.NewCart(owner), nil
	}
	return s.reload(ctx, cart.ID)
}

func (s *CartService) GetItemCount(ctx context.Context, owner models.CartOwner) (int, error) {
	if !models.ValidOwner(owner) {
		return 0, NewValidationError(ErrMsgOwnerRequired)
	}

	cart, err := s.cartRepo.FindByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to find cart for %s: %w", owner, err)
	}
	if cart == nil {
		return 0, nil
	}
	return s.cartRepo.GetCartItemCount(ctx, cart.ID)
}

// AddItem adds qty units of the product (or one of its variants) to the
// owner's cart, creating the cart on first use. A line for the same product
// and variant is merged into, and its captured price refreshed.
func (s *CartService) AddItem(ctx context.Context, owner models.CartOwner, productID string, qty int, variantID string) (*models.Cart, error) {
	if !models.ValidOwner(owner) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}
	if productID == "" {
		return nil, NewValidationError(ErrMsgProductIDRequired)
	}
	if qty <= 0 {
		return nil, NewValidationError(ErrMsgQuantityPositive)
	}

	var cartID string
	err := s.transact(ctx, "AddItem", func(tx cartTx) error {
		cart, err := s.lockOrCreateCart(ctx, tx, owner)
		if err != nil {
			return err
		}

		item, err := s.lockPurchasable(ctx, tx, productID, variantID)
		if err != nil {
			return err
		}

		line, err := tx.items.FindLine(ctx, cart.ID, productID, variantID)
		if err != nil {
			return fmt.Errorf("failed to check existing cart item: %w", err)
		}

		existing := 0
		if line != nil {
			existing = line.Qty
		}
		if existing+qty > item.stock {
			return NewInsufficientStockError(item.name, item.stock-existing)
		}

		if line == nil {
			line = &models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				VariantID: variantID,
				Qty:       qty,
				Price:     item.price,
			}
			if err := tx.items.Create(ctx, line); err != nil {
				return fmt.Errorf("failed to add new cart item: %w", err)
			}
		} else {
			line.Qty += qty
			line.Price = item.price
			if err := tx.items.Update(ctx, line); err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		}

		cartID = cart.ID
		return s.recalculate(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

// UpdateItem sets the quantity of a line in the owner's cart. Zero removes the
// line. The captured price is kept.
func (s *CartService) UpdateItem(ctx context.Context, owner models.CartOwner, itemID string, qty int) (*models.Cart, error) {
	if !models.ValidOwner(owner) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}
	if itemID == "" {
		return nil, NewValidationError(ErrMsgItemIDRequired)
	}
	if qty < 0 {
		return nil, NewValidationError(ErrMsgQuantityNegative)
	}
	if qty == 0 {
		return s.RemoveItem(ctx, owner, itemID)
	}

	var cartID string
	err := s.transact(ctx, "UpdateItem", func(tx cartTx) error {
		cart, line, err := s.lockLine(ctx, tx, owner, itemID)
		if err != nil {
			return err
		}

		item, err := s.lockPurchasable(ctx, tx, line.ProductID, line.VariantID)
		if err != nil {
			return err
		}
		if qty > item.stock {
			return NewStockLimitError(item.name, item.stock)
		}

		line.Qty = qty
		if err := tx.items.Update(ctx, line); err != nil {
			return fmt.Errorf("failed to update cart item quantity: %w", err)
		}

		cartID = cart.ID
		return s.recalculate(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *CartService) RemoveItem(ctx context.Context, owner models.CartOwner, itemID string) (*models.Cart, error) {
	if !models.ValidOwner(owner) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}
	if itemID == "" {
		return nil, NewValidationError(ErrMsgItemIDRequired)
	}

	var cartID string
	err := s.transact(ctx, "RemoveItem", func(tx cartTx) error {
		cart, line, err := s.lockLine(ctx, tx, owner, itemID)
		if err != nil {
			return err
		}

		if err := tx.items.Delete(ctx, line.ID); err != nil {
			return fmt.Errorf("failed to remove item from cart: %w", err)
		}

		cartID = cart.ID
		return s.recalculate(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

// ClearCart empties the owner's cart. Clearing a missing or empty cart is not
// an error.
func (s *CartService) ClearCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if !models.ValidOwner(owner) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}

	var cartID string
	err := s.transact(ctx, "ClearCart", func(tx cartTx) error {
		cart, err := tx.carts.FindByOwnerForUpdate(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to find cart for %s: %w", owner, err)
		}
		if cart == nil {
			return nil
		}

		if err := tx.items.ClearCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		cartID = cart.ID
		return s.recalculate(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	if cartID == "" {
		return models.NewCart(owner), nil
	}
	return s.reload(ctx, cartID)
}

// MergeCarts folds the anonymous cart into the user's cart after login.
// Quantities are summed and capped at current stock, prices are refreshed, and
// lines whose product is gone are dropped. The anonymous cart is deleted.
func (s *CartService) MergeCarts(ctx context.Context, from models.AnonymousOwner, to models.UserOwner) (*models.Cart, error) {
	if !models.ValidOwner(from) || !models.ValidOwner(to) {
		return nil, NewValidationError(ErrMsgOwnerRequired)
	}

	var cartID string
	merged := 0
	err := s.transact(ctx, "MergeCarts", func(tx cartTx) error {
		merged = 0

		anon, err := tx.carts.FindByOwnerForUpdate(ctx, from)
		if err != nil {
			return fmt.Errorf("failed to find cart for %s: %w", from, err)
		}
		if anon == nil {
			return nil
		}

		userCart, err := s.lockOrCreateCart(ctx, tx, to)
		if err != nil {
			return err
		}

		items, err := tx.items.ListByCartID(ctx, anon.ID)
		if err != nil {
			return fmt.Errorf("failed to list cart items: %w", err)
		}

		for _, incoming := range items {
			item, err := s.lockPurchasable(ctx, tx, incoming.ProductID, incoming.VariantID)
			if KindOf(err) == KindNotFound {
				continue
			}
			if err != nil {
				return err
			}

			line, err := tx.items.FindLine(ctx, userCart.ID, incoming.ProductID, incoming.VariantID)
			if err != nil {
				return fmt.Errorf("failed to check existing cart item: %w", err)
			}

			qty := incoming.Qty
			if line != nil {
				qty += line.Qty
			}
			qty = min(qty, item.stock)

			switch {
			case line == nil && qty > 0:
				line = &models.CartItem{
					CartID:    userCart.ID,
					ProductID: incoming.ProductID,
					VariantID: incoming.VariantID,
					Qty:       qty,
					Price:     item.price,
				}
				if err := tx.items.Create(ctx, line); err != nil {
					return fmt.Errorf("failed to add merged cart item: %w", err)
				}
			case line != nil && qty > 0:
				line.Qty = qty
				line.Price = item.price
				if err := tx.items.Update(ctx, line); err != nil {
					return fmt.Errorf("failed to update merged cart item: %w", err)
				}
			case line != nil:
				if err := tx.items.Delete(ctx, line.ID); err != nil {
					return fmt.Errorf("failed to remove out of stock cart item: %w", err)
				}
				continue
			default:
				continue
			}
			merged++
		}

		if err := tx.items.ClearCartItems(ctx, anon.ID); err != nil {
			return fmt.Errorf("failed to clear anonymous cart items: %w", err)
		}
		if err := tx.carts.Delete(ctx, anon.ID); err != nil {
			return fmt.Errorf("failed to delete anonymous cart: %w", err)
		}

		cartID = userCart.ID
		return s.recalculate(ctx, tx, userCart.ID)
	})
	if err != nil {
		return nil, err
	}

	if cartID == "" {
		return s.GetCart(ctx, to)
	}

	s.logger.Info("CartService.MergeCarts: merged anonymous cart",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("lines", merged),
	)
	return s.reload(ctx, cartID)
}

// transact runs fn in a transaction, retrying once when two requests race to
// create the same owner's cart.
func (s *CartService) transact(ctx context.Context, op string, fn func(tx cartTx) error) error {
	run := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(cartTx{
				carts:    s.cartRepo.WithTx(tx),
				items:    s.cartItemRepo.WithTx(tx),
				products: s.productRepo.WithTx(tx),
			})
		})
	}

	err := run()
	if retryable(err) {
		s.logger.Warn("CartService."+op+": transaction conflict, retrying", zap.Error(err))
		err = run()
	}
	return err
}

// mysqlDeadlock is ER_LOCK_DEADLOCK; InnoDB has already rolled the
// transaction back when it is reported.
const mysqlDeadlock = 1213

// retryable reports whether a failed transaction lost a race and can be run
// again from the start.
func retryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDeadlock
}

func (s *CartService) lockOrCreateCart(ctx context.Context, tx cartTx, owner models.CartOwner) (*models.Cart, error) {
	cart, err := tx.carts.FindByOwnerForUpdate(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart for %s: %w", owner, err)
	}
	if cart != nil {
		return cart, nil
	}

	cart = models.NewCart(owner)
	if err := tx.carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart for %s: %w", owner, err)
	}
	return cart, nil
}

// lockLine locks the owner's cart and returns the line only if it belongs to it.
func (s *CartService) lockLine(ctx context.Context, tx cartTx, owner models.CartOwner, itemID string) (*models.Cart, *models.CartItem, error) {
	cart, err := tx.carts.FindByOwnerForUpdate(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find cart for %s: %w", owner, err)
	}
	if cart == nil {
		return nil, nil, NewNotFoundError(ErrMsgItemNotFound)
	}

	line, err := tx.items.FindInCart(ctx, cart.ID, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if line == nil {
		return nil, nil, NewNotFoundError(ErrMsgItemNotFound)
	}
	return cart, line, nil
}

func (s *CartService) lockPurchasable(ctx context.Context, tx cartTx, productID, variantID string) (purchasable, error) {
	product, err := tx.products.FindForUpdate(ctx, productID)
	if err != nil {
		return purchasable{}, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	if product == nil || !product.Active {
		return purchasable{}, NewNotFoundError(ErrMsgProductNotFound)
	}
	if variantID == "" {
		return purchasable{name: product.Name, price: product.Price, stock: product.Stock}, nil
	}

	variant, err := tx.products.FindVariantForUpdate(ctx, productID, variantID)
	if err != nil {
		return purchasable{}, fmt.Errorf("failed to get variant %s: %w", variantID, err)
	}
	if variant == nil || !variant.Active {
		return purchasable{}, NewNotFoundError(ErrMsgVariantNotFound)
	}
	return purchasable{
		name:  models.LineName(product.Name, variant.Name),
		price: variant.Price,
		stock: variant.Stock,
	}, nil
}

func (s *CartService) recalculate(ctx context.Context, tx cartTx, cartID string) error {
	items, err := tx.items.ListByCartID(ctx, cartID)
	if err != nil {
		return fmt.Errorf("failed to list cart items: %w", err)
	}

	lines := make([]calc.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, calc.Line{UnitPrice: item.Price, Qty: item.Qty})
	}

	if err := tx.carts.UpdateTotals(ctx, cartID, calc.CalculateTotals(lines, s.pricing)); err != nil {
		return fmt.Errorf("failed to update cart summary: %w", err)
	}
	return nil
}

func (s *CartService) reload(ctx context.Context, cartID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCartWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated cart: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("cart %s vanished after commit", cartID)
	}
	return cart, nil
}
