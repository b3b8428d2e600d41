package configs

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type ENV struct {
	DBHost              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBPort              string
	Port                string
	AppEnv              string
	AppURL              string
	AppAuthKey          string
	AppEncKey           string
	CSRFKey             string
	RedisURL            string
	MidtransServerKey   string
	MidtransClientKey   string
	StorefrontURL       string
	FreeShippingMinimum string
	FlatShippingFee     string
	TaxPercent          string
	Currency            string
}

// LoadEnv reads .env (when present) and then the process environment.
func LoadEnv() ENV {
	// a missing .env is normal outside local development
	_ = godotenv.Load(".env")

	return ENV{
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              getEnv("DB_PORT", "3306"),
		Port:                getEnv("APP_PORT", ":8080"),
		AppEnv:              getEnv("APP_ENV", "production"),
		AppURL:              os.Getenv("APP_URL"),
		AppAuthKey:          os.Getenv("APP_AUTH_KEY"),
		AppEncKey:           os.Getenv("APP_ENC_KEY"),
		CSRFKey:             os.Getenv("CSRF_KEY"),
		RedisURL:            os.Getenv("REDIS_URL"),
		MidtransServerKey:   os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:   os.Getenv("MIDTRANS_CLIENT_KEY"),
		StorefrontURL:       getEnv("STOREFRONT_URL", "http://localhost:8080"),
		FreeShippingMinimum: os.Getenv("FREE_SHIPPING_THRESHOLD"),
		FlatShippingFee:     os.Getenv("FLAT_SHIPPING_FEE"),
		TaxPercent:          os.Getenv("TAX_PERCENT"),
		Currency:            os.Getenv("CURRENCY"),
	}
}

func (e ENV) IsDevelopment() bool {
	return strings.EqualFold(e.AppEnv, "development")
}

// Pricing returns the cart pricing constants, falling back to calc.DefaultPricing
// for every value that is not configured.
func (e ENV) Pricing() (calc.Pricing, error) {
	p := calc.DefaultPricing()

	var err error
	if p.FreeShippingThreshold, err = parseAmount("FREE_SHIPPING_THRESHOLD", e.FreeShippingMinimum, p.FreeShippingThreshold); err != nil {
		return calc.Pricing{}, err
	}
	if p.FlatShippingFee, err = parseAmount("FLAT_SHIPPING_FEE", e.FlatShippingFee, p.FlatShippingFee); err != nil {
		return calc.Pricing{}, err
	}
	if p.TaxPercent, err = parseAmount("TAX_PERCENT", e.TaxPercent, p.TaxPercent); err != nil {
		return calc.Pricing{}, err
	}
	if p.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return calc.Pricing{}, fmt.Errorf("TAX_PERCENT must be between 0 and 100, got %s", p.TaxPercent)
	}

	if e.Currency != "" {
		unit, err := currency.ParseISO(e.Currency)
		if err != nil {
			return calc.Pricing{}, fmt.Errorf("CURRENCY[%s] is not valid: %w", e.Currency, err)
		}
		p.Currency = unit
	}

	return p, nil
}

func parseAmount(name, raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s[%s] is not a number: %w", name, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", name, raw)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
