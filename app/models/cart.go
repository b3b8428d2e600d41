package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Cart struct {
	ID            string          `gorm:"size:36;not null;uniqueIndex;primary_key"`
	UserID        *string         `gorm:"size:36;uniqueIndex;check:chk_carts_owner,(user_id IS NULL) <> (session_id IS NULL)"`
	SessionID     *string         `gorm:"size:64;uniqueIndex"`
	CartItems     []CartItem      `gorm:"constraint:OnDelete:CASCADE;"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0"`
	ShippingTotal decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewCart returns an unsaved, empty cart for owner.
func NewCart(owner CartOwner) *Cart {
	c := &Cart{
		Subtotal:      decimal.Zero,
		ShippingTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		GrandTotal:    decimal.Zero,
		CartItems:     []CartItem{},
	}
	c.SetOwner(owner)
	return c
}

// Owner rebuilds the owner variant from the two nullable key columns.
func (c *Cart) Owner() CartOwner {
	if c.UserID != nil {
		return UserOwner{UserID: *c.UserID}
	}
	if c.SessionID != nil {
		return AnonymousOwner{SessionID: *c.SessionID}
	}
	return nil
}

// SetOwner is the only writer of UserID/SessionID; it always clears the other key.
func (c *Cart) SetOwner(owner CartOwner) {
	c.UserID, c.SessionID = nil, nil
	switch o := owner.(type) {
	case UserOwner:
		id := o.UserID
		c.UserID = &id
	case AnonymousOwner:
		sid := o.SessionID
		c.SessionID = &sid
	}
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, item := range c.CartItems {
		n += item.Qty
	}
	return n
}

func (c *Cart) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
