package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = 1
	OrderStatusPaid      = 2
	OrderStatusCancelled = 3
)

const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPending = "pending"
)

type Order struct {
	ID            string    `gorm:"size:36;not null;uniqueIndex;primary_key"`
	UserID        string    `gorm:"size:36;not null;index"`
	OrderCode     string    `gorm:"type:varchar(64);unique;not null" json:"order_code"`
	OrderDate     time.Time `gorm:"not null" json:"order_date"`
	OrderItems    []OrderItem
	Subtotal      decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	ShippingTotal decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
	Status        int             `gorm:"not null"`
	PaymentStatus string          `gorm:"size:32;not null"`
	PaymentToken  string          `gorm:"size:255"`
	PaymentURL    string          `gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}
