package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          string          `gorm:"size:36;not null;uniqueIndex;primary_key"`
	Name        string          `gorm:"size:255;not null"`
	Slug        string          `gorm:"size:255;not null;uniqueIndex"`
	Sku         string          `gorm:"size:100;uniqueIndex"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Stock       int             `gorm:"not null"`
	Active      bool            `gorm:"not null"`
	Variants    []ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// ProductVariant carries its own price and stock; a cart line that names a
// variant is priced and stock-checked against the variant, not the product.
type ProductVariant struct {
	ID        string          `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ProductID string          `gorm:"size:36;not null;index"`
	Name      string          `gorm:"size:255;not null"`
	Sku       string          `gorm:"size:100;uniqueIndex"`
	Price     decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Stock     int             `gorm:"not null"`
	Active    bool            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return
}
