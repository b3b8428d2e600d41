package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type style struct {
	symbol   string
	thousand string
	decimal  string
	format   string
}

var styles = map[string]style{
	"VND": {symbol: "₫", thousand: ".", decimal: ",", format: "%v %s"},
	"IDR": {symbol: "Rp", thousand: ".", decimal: ",", format: "%s %v"},
	"USD": {symbol: "$", thousand: ",", decimal: ".", format: "%s%v"},
	"EUR": {symbol: "€", thousand: ".", decimal: ",", format: "%s%v"},
}

// Money renders amount for display in unit, e.g. "354.000 ₫" or "$73.47".
// Unknown currencies fall back to the ISO code as symbol.
func Money(amount decimal.Decimal, unit currency.Unit) string {
	s, ok := styles[unit.String()]
	if !ok {
		s = style{symbol: unit.String(), thousand: ",", decimal: ".", format: "%s %v"}
	}

	scale, _ := currency.Standard.Rounding(unit)

	ac := accounting.Accounting{
		Symbol:    s.symbol,
		Precision: scale,
		Thousand:  s.thousand,
		Decimal:   s.decimal,
		Format:    s.format,
	}
	return ac.FormatMoneyDecimal(amount)
}
