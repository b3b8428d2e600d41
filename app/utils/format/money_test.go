package format_test

import (
	"testing"

	"github.com/Rakhulsr/go-storefront/app/utils/format"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/currency"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		unit   currency.Unit
		want   string
	}{
		{name: "dong", amount: "354000", unit: currency.MustParseISO("VND"), want: "354.000 ₫"},
		{name: "dollars keep cents", amount: "73.47", unit: currency.USD, want: "$73.47"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.Money(decimal.RequireFromString(tt.amount), tt.unit))
		})
	}
}
