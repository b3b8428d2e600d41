package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	FindByOwnerForUpdate(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	GetCartWithItems(ctx context.Context, cartID string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	UpdateTotals(ctx context.Context, cartID string, totals calc.Totals) error
	Delete(ctx context.Context, cartID string) error
	GetCartItemCount(ctx context.Context, cartID string) (int, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{tx}
}

func ownerScope(owner models.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch o := owner.(type) {
		case models.UserOwner:
			return db.Where("user_id = ?", o.UserID)
		case models.AnonymousOwner:
			return db.Where("session_id = ?", o.SessionID)
		default:
			_ = db.AddError(fmt.Errorf("unknown cart owner %T", owner))
			return db
		}
	}
}

// FindByOwner returns nil, nil when the owner has no cart yet.
func (r *cartRepository) FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	return r.findByOwner(r.db.WithContext(ctx), owner)
}

// FindByOwnerForUpdate is FindByOwner holding a row lock until the surrounding
// transaction ends.
func (r *cartRepository) FindByOwnerForUpdate(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	return r.findByOwner(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), owner)
}

func (r *cartRepository) findByOwner(db *gorm.DB, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	err := db.Scopes(ownerScope(owner)).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetCartWithItems(ctx context.Context, cartID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("CartItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC, cart_items.id ASC")
		}).
		Preload("CartItems.Product").
		Preload("CartItems.Product.Variants").
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error
}

func (r *cartRepository) UpdateTotals(ctx context.Context, cartID string, totals calc.Totals) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"subtotal":       totals.Subtotal,
			"shipping_total": totals.ShippingTotal,
			"tax_total":      totals.TaxTotal,
			"grand_total":    totals.GrandTotal,
		}).Error
}

func (r *cartRepository) Delete(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}

func (r *cartRepository) GetCartItemCount(ctx context.Context, cartID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Select("COALESCE(SUM(qty), 0)").
		Scan(&count).Error

	return int(count), err
}
