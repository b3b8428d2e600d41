package seeders

import (
	"context"
	"fmt"

	"github.com/Rakhulsr/go-storefront/app/db/fakers"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DemoCustomerEmail    = "customer@storefront.test"
	DemoCustomerPassword = "password"
)

type Options struct {
	Products          int
	VariantsPerOdd    int
	StockPerProduct   int
	CreateDemoAccount bool
}

// DBSeed inserts fake products (every other one with variants) and, when
// asked, a demo customer account that can log in with DemoCustomerPassword.
func DBSeed(ctx context.Context, db *gorm.DB, opts Options, logger *zap.Logger) error {
	products := repositories.NewProductRepository(db)
	users := repositories.NewUserRepository(db)

	for i := 0; i < opts.Products; i++ {
		product := fakers.ProductFaker(opts.StockPerProduct)
		if i%2 == 1 {
			for j := 0; j < opts.VariantsPerOdd; j++ {
				product.Variants = append(product.Variants, fakers.VariantFaker(product, opts.StockPerProduct))
			}
		}
		if err := products.Create(ctx, product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", product.Name, err)
		}
		logger.Info("seeded product", zap.String("id", product.ID), zap.String("name", product.Name), zap.Int("variants", len(product.Variants)))
	}

	if !opts.CreateDemoAccount {
		return nil
	}

	existing, err := users.FindByEmail(ctx, DemoCustomerEmail)
	if err != nil {
		return fmt.Errorf("failed to look up demo customer: %w", err)
	}
	if existing != nil {
		logger.Info("demo customer already present", zap.String("email", DemoCustomerEmail))
		return nil
	}

	user := fakers.UserFaker(DemoCustomerPassword)
	user.Email = DemoCustomerEmail
	user.Role = models.RoleCustomer
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to seed demo customer: %w", err)
	}
	logger.Info("seeded demo customer", zap.String("email", DemoCustomerEmail))
	return nil
}
