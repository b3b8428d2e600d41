package calc

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxPercent            decimal.Decimal
	Currency              currency.Unit
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(500000),
		FlatShippingFee:       decimal.NewFromInt(30000),
		TaxPercent:            decimal.NewFromInt(8),
		Currency:              currency.MustParseISO("VND"),
	}
}

// Line is one priced cart line: captured unit price times quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Qty       int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Totals struct {
	Subtotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
}

func ZeroTotals() Totals {
	return Totals{
		Subtotal:      decimal.Zero,
		ShippingTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		GrandTotal:    decimal.Zero,
	}
}

// CalculateTotals derives the cart aggregates from its lines. A cart without
// lines has all-zero totals; shipping is only charged on something to ship.
func CalculateTotals(lines []Line, p Pricing) Totals {
	if len(lines) == 0 {
		return ZeroTotals()
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}

	shipping := p.FlatShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := CalculateTax(subtotal, p.TaxPercent, p.Currency)

	return Totals{
		Subtotal:      subtotal,
		ShippingTotal: shipping,
		TaxTotal:      tax,
		GrandTotal:    subtotal.Add(shipping).Add(tax),
	}
}
