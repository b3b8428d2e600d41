package repositories

import (
	"context"
	"errors"

	"github.com/Rakhulsr/go-storefront/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is read-only from the cart's point of view; stock is only
// written when an order is placed.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetByID(ctx context.Context, id string) (*models.Product, error)
	FindForUpdate(ctx context.Context, id string) (*models.Product, error)
	FindVariantForUpdate(ctx context.Context, productID, variantID string) (*models.ProductVariant, error)
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	DecrementVariantStock(ctx context.Context, variantID string, qty int) (bool, error)
	Create(ctx context.Context, product *models.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db}
}

func (p *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{tx}
}

func (p *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := p.db.WithContext(ctx).
		Preload("Variants", "active = ?", true).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p *productRepository) FindForUpdate(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p *productRepository) FindVariantForUpdate(ctx context.Context, productID, variantID string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// DecrementStock takes qty units off the product only if that many are on hand.
// It reports false when the conditional update matched no row.
func (p *productRepository) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	res := p.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (p *productRepository) DecrementVariantStock(ctx context.Context, variantID string, qty int) (bool, error) {
	res := p.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (p *productRepository) Create(ctx context.Context, product *models.Product) error {
	return p.db.WithContext(ctx).Create(product).Error
}
