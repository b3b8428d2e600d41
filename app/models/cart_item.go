package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one line of a cart. VariantID is empty when the product is
// bought without a variant; (CartID, ProductID, VariantID) is unique.
type CartItem struct {
	ID        string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	CartID    string          `gorm:"size:36;not null;uniqueIndex:idx_cart_items_line"`
	ProductID string          `gorm:"size:36;not null;uniqueIndex:idx_cart_items_line"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	VariantID string          `gorm:"size:36;not null;default:'';uniqueIndex:idx_cart_items_line"`
	Qty       int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Qty)))
}

// DisplayName is the product name, followed by the variant name when the line
// is for a variant loaded in Product.Variants.
func (ci *CartItem) DisplayName() string {
	if ci.Product == nil {
		return ""
	}
	if ci.VariantID == "" {
		return ci.Product.Name
	}
	for i := range ci.Product.Variants {
		if ci.Product.Variants[i].ID == ci.VariantID {
			return LineName(ci.Product.Name, ci.Product.Variants[i].Name)
		}
	}
	return ci.Product.Name
}

// LineName names a variant line the same way in carts, stock errors and orders.
func LineName(productName, variantName string) string {
	if variantName == "" {
		return productName
	}
	return productName + " - " + variantName
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) (err error) {
	if ci.ID == "" {
		ci.ID = uuid.New().String()
	}
	return
}
