package cartstore

import (
	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/Rakhulsr/go-storefront/app/utils/format"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const provisionalPrefix = "provisional-"

func lineTotal(item other.CartItemView) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// applyAdd merges into the matching (product, variant) line or appends a
// provisional one. A provisional line has no known price until reconciled.
func applyAdd(cart *other.CartView, in actions.AddToCartInput) {
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID == in.ProductID && item.VariantID == in.VariantID {
			item.Quantity += in.Quantity
			item.LineTotal = lineTotal(*item)
			return
		}
	}

	cart.Items = append(cart.Items, other.CartItemView{
		ID:          provisionalPrefix + uuid.New().String(),
		ProductID:   in.ProductID,
		VariantID:   in.VariantID,
		Quantity:    in.Quantity,
		UnitPrice:   decimal.Zero,
		LineTotal:   decimal.Zero,
		Provisional: true,
	})
}

func applyUpdate(cart *other.CartView, itemID string, qty int) {
	if qty == 0 {
		applyRemove(cart, itemID)
		return
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = qty
			cart.Items[i].LineTotal = lineTotal(cart.Items[i])
			return
		}
	}
}

func applyRemove(cart *other.CartView, itemID string) {
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
}

func applyClear(cart *other.CartView) {
	cart.Items = []other.CartItemView{}
}

// recompute refreshes the local totals with the same calculator the server uses.
func recompute(cart *other.CartView, p calc.Pricing) {
	lines := make([]calc.Line, 0, len(cart.Items))
	count := 0
	for _, item := range cart.Items {
		lines = append(lines, calc.Line{UnitPrice: item.UnitPrice, Qty: item.Quantity})
		count += item.Quantity
	}

	totals := calc.CalculateTotals(lines, p)
	cart.ItemCount = count
	cart.Subtotal = totals.Subtotal
	cart.ShippingTotal = totals.ShippingTotal
	cart.TaxTotal = totals.TaxTotal
	cart.GrandTotal = totals.GrandTotal
	cart.Currency = p.Currency.String()
	cart.GrandTotalFmt = format.Money(totals.GrandTotal, p.Currency)
}
