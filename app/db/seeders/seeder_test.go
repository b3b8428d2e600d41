package seeders_test

import (
	"testing"

	"github.com/Rakhulsr/go-storefront/app/db/seeders"
	"github.com/Rakhulsr/go-storefront/app/db/testdb"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDBSeed(t *testing.T) {
	db := testdb.Open(t)
	opts := seeders.Options{Products: 4, VariantsPerOdd: 2, StockPerProduct: 7, CreateDemoAccount: true}

	require.NoError(t, seeders.DBSeed(t.Context(), db, opts, zaptest.NewLogger(t)))
	// a second run adds products but keeps the single demo account
	require.NoError(t, seeders.DBSeed(t.Context(), db, opts, zaptest.NewLogger(t)))

	var products, variants int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.ProductVariant{}).Count(&variants).Error)
	assert.EqualValues(t, 8, products)
	assert.EqualValues(t, 8, variants)

	user, err := repositories.NewUserRepository(db).Authenticate(t.Context(), seeders.DemoCustomerEmail, seeders.DemoCustomerPassword)
	require.NoError(t, err)
	require.NotNil(t, user)
}
