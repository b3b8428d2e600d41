package calc

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var hundred = decimal.NewFromInt(100)

// CalculateTax applies a flat percentage to base and rounds the result to the
// currency's standard number of minor units.
func CalculateTax(base, taxPercent decimal.Decimal, unit currency.Unit) decimal.Decimal {
	return RoundToCurrency(base.Mul(taxPercent).Div(hundred), unit)
}

func RoundToCurrency(amount decimal.Decimal, unit currency.Unit) decimal.Decimal {
	scale, _ := currency.Standard.Rounding(unit)
	return amount.Round(int32(scale))
}
