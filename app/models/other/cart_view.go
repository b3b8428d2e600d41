package other

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItemView struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	VariantID   string          `json:"variantId,omitempty"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Provisional bool            `json:"provisional,omitempty"`
}

// CartView is the wire and client-cache shape of a cart.
type CartView struct {
	ID            string          `json:"id,omitempty"`
	Items         []CartItemView  `json:"items"`
	ItemCount     int             `json:"itemCount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingTotal decimal.Decimal `json:"shippingTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Currency      string          `json:"currency"`
	GrandTotalFmt string          `json:"grandTotalFormatted"`
}

// Clone returns a deep copy; the items slice is never shared.
func (c CartView) Clone() CartView {
	out := c
	out.Items = make([]CartItemView, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

type OrderItemView struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type OrderView struct {
	ID            string          `json:"id"`
	OrderCode     string          `json:"orderCode"`
	OrderDate     time.Time       `json:"orderDate"`
	Items         []OrderItemView `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingTotal decimal.Decimal `json:"shippingTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentURL    string          `json:"paymentUrl,omitempty"`
}

type ProductView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Variants []VariantView   `json:"variants,omitempty"`
}

type VariantView struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}
