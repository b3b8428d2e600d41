package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService struct {
	db           *gorm.DB
	cartRepo     repositories.CartRepository
	cartItemRepo repositories.CartItemRepository
	productRepo  repositories.ProductRepository
	orderRepo    repositories.OrderRepository
	gateway      PaymentGateway
	pricing      calc.Pricing
	logger       *zap.Logger
}

// NewCheckoutService wires the checkout flow. gateway may be nil, in which case
// orders are placed without a payment token.
func NewCheckoutService(
	db *gorm.DB,
	cartRepo repositories.CartRepository,
	cartItemRepo repositories.CartItemRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	gateway PaymentGateway,
	pricing calc.Pricing,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:           db,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		gateway:      gateway,
		pricing:      pricing,
		logger:       logger,
	}
}

func newOrderCode(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}

// PlaceOrder turns the user's cart into a pending order. Stock is taken with a
// conditional decrement so two checkouts can never sell the same unit twice.
// The cart is emptied in the same transaction.
func (s *CheckoutService) PlaceOrder(ctx context.Context, owner models.CartOwner) (*models.Order, error) {
	user, ok := owner.(models.UserOwner)
	if !ok || !models.ValidOwner(user) {
		return nil, NewValidationError(ErrMsgLoginRequired)
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		items := s.cartItemRepo.WithTx(tx)
		products := s.productRepo.WithTx(tx)

		cart, err := carts.FindByOwnerForUpdate(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to find cart for %s: %w", user, err)
		}
		if cart == nil {
			return NewValidationError(ErrMsgCartEmpty)
		}

		lines, err := items.ListByCartID(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to list cart items: %w", err)
		}
		if len(lines) == 0 {
			return NewValidationError(ErrMsgCartEmpty)
		}

		now := time.Now()
		order = &models.Order{
			UserID:        user.UserID,
			OrderCode:     newOrderCode(now),
			OrderDate:     now,
			Currency:      s.pricing.Currency.String(),
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusUnpaid,
			OrderItems:    make([]models.OrderItem, 0, len(lines)),
		}

		calcLines := make([]calc.Line, 0, len(lines))
		for _, line := range lines {
			orderItem, err := s.takeStock(ctx, products, line)
			if err != nil {
				return err
			}
			order.OrderItems = append(order.OrderItems, orderItem)
			calcLines = append(calcLines, calc.Line{UnitPrice: line.Price, Qty: line.Qty})
		}

		totals := calc.CalculateTotals(calcLines, s.pricing)
		order.Subtotal = totals.Subtotal
		order.ShippingTotal = totals.ShippingTotal
		order.TaxTotal = totals.TaxTotal
		order.GrandTotal = totals.GrandTotal

		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := items.ClearCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}
		if err := carts.UpdateTotals(ctx, cart.ID, calc.ZeroTotals()); err != nil {
			return fmt.Errorf("failed to update cart summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("CheckoutService.PlaceOrder: order created",
		zap.String("order_code", order.OrderCode),
		zap.String("user_id", order.UserID),
		zap.String("grand_total", order.GrandTotal.String()),
	)

	s.startPayment(ctx, order)
	return order, nil
}

// takeStock decrements stock for one cart line and returns the matching order
// item built from the line's captured price.
func (s *CheckoutService) takeStock(ctx context.Context, products repositories.ProductRepository, line models.CartItem) (models.OrderItem, error) {
	product, err := products.FindForUpdate(ctx, line.ProductID)
	if err != nil {
		return models.OrderItem{}, fmt.Errorf("failed to get product %s: %w", line.ProductID, err)
	}
	if product == nil || !product.Active {
		return models.OrderItem{}, NewNotFoundError(ErrMsgProductNotFound)
	}

	name, sku, stock := product.Name, product.Sku, product.Stock
	var taken bool
	if line.VariantID == "" {
		taken, err = products.DecrementStock(ctx, product.ID, line.Qty)
	} else {
		variant, verr := products.FindVariantForUpdate(ctx, product.ID, line.VariantID)
		if verr != nil {
			return models.OrderItem{}, fmt.Errorf("failed to get variant %s: %w", line.VariantID, verr)
		}
		if variant == nil || !variant.Active {
			return models.OrderItem{}, NewNotFoundError(ErrMsgVariantNotFound)
		}
		name, sku, stock = models.LineName(product.Name, variant.Name), variant.Sku, variant.Stock
		taken, err = products.DecrementVariantStock(ctx, variant.ID, line.Qty)
	}
	if err != nil {
		return models.OrderItem{}, fmt.Errorf("failed to decrement stock for %s: %w", name, err)
	}
	if !taken {
		return models.OrderItem{}, NewInsufficientStockError(name, stock)
	}

	return models.OrderItem{
		ProductID:   line.ProductID,
		VariantID:   line.VariantID,
		ProductName: name,
		ProductSku:  sku,
		Qty:         line.Qty,
		Price:       line.Price,
		LineTotal:   line.LineTotal(),
	}, nil
}

// startPayment asks the gateway for a payment session. Failures leave the order
// pending without a token.
func (s *CheckoutService) startPayment(ctx context.Context, order *models.Order) {
	if s.gateway == nil {
		return
	}

	session, err := s.gateway.CreatePayment(ctx, order)
	if err != nil {
		s.logger.Error("CheckoutService.PlaceOrder: payment initiation failed",
			zap.String("order_code", order.OrderCode),
			zap.Error(err),
		)
		return
	}

	if err := s.orderRepo.UpdatePayment(ctx, order.ID, models.PaymentStatusPending, session.Token, session.RedirectURL); err != nil {
		s.logger.Error("CheckoutService.PlaceOrder: failed to store payment token",
			zap.String("order_code", order.OrderCode),
			zap.Error(err),
		)
		return
	}

	order.PaymentStatus = models.PaymentStatusPending
	order.PaymentToken = session.Token
	order.PaymentURL = session.RedirectURL
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, NewValidationError(ErrMsgLoginRequired)
	}

	orders, err := s.orderRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}
