package fakers

import (
	"strings"

	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFaker builds an unsaved, active product priced in whole thousands.
func ProductFaker(stock int) *models.Product {
	name := gofakeit.ProductName()
	suffix := uuid.NewString()[:8]

	return &models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slugify(name) + "-" + suffix,
		Sku:         strings.ToUpper(suffix),
		Description: gofakeit.ProductDescription(),
		Price:       decimal.NewFromInt(int64(gofakeit.IntRange(10, 900)) * 1000),
		Stock:       stock,
		Active:      true,
	}
}

// VariantFaker builds an unsaved, active variant of product.
func VariantFaker(product *models.Product, stock int) models.ProductVariant {
	suffix := uuid.NewString()[:8]
	return models.ProductVariant{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Name:      gofakeit.Color(),
		Sku:       strings.ToUpper(suffix),
		Price:     product.Price.Add(decimal.NewFromInt(int64(gofakeit.IntRange(0, 50)) * 1000)),
		Stock:     stock,
		Active:    true,
	}
}

func UserFaker(password string) *models.User {
	return &models.User{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
		Password:  password,
		Role:      models.RoleCustomer,
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
