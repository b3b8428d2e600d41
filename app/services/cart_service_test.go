package services_test

import (
	"sync"
	"testing"

	"github.com/Rakhulsr/go-storefront/app/db/fakers"
	"github.com/Rakhulsr/go-storefront/app/db/testdb"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type cartServiceSuite struct {
	suite.Suite

	db       *gorm.DB
	products repositories.ProductRepository
	svc      *services.CartService
	owner    models.CartOwner
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(cartServiceSuite))
}

func (suite *cartServiceSuite) SetupTest() {
	suite.db = testdb.Open(suite.T())
	suite.products = repositories.NewProductRepository(suite.db)
	suite.svc = services.NewCartService(
		suite.db,
		repositories.NewCartRepository(suite.db),
		repositories.NewCartItemRepository(suite.db),
		suite.products,
		calc.DefaultPricing(),
		zaptest.NewLogger(suite.T()),
	)
	suite.owner = models.AnonymousOwner{SessionID: gofakeit.UUID()}
}

func (suite *cartServiceSuite) newProduct(price int64, stock int) *models.Product {
	p := fakers.ProductFaker(stock)
	p.Price = decimal.NewFromInt(price)
	suite.Require().NoError(suite.products.Create(suite.T().Context(), p))
	return p
}

func (suite *cartServiceSuite) requireKind(err error, kind services.ErrorKind) *services.CartError {
	suite.Require().Error(err)
	suite.Require().Equal(kind, services.KindOf(err), "unexpected error: %v", err)
	ce := &services.CartError{}
	suite.Require().ErrorAs(err, &ce)
	return ce
}

func assertTotals(t *testing.T, cart *models.Cart, subtotal, shipping, tax, grand int64) {
	t.Helper()
	assert.Truef(t, decimal.NewFromInt(subtotal).Equal(cart.Subtotal), "subtotal: got %s", cart.Subtotal)
	assert.Truef(t, decimal.NewFromInt(shipping).Equal(cart.ShippingTotal), "shipping: got %s", cart.ShippingTotal)
	assert.Truef(t, decimal.NewFromInt(tax).Equal(cart.TaxTotal), "tax: got %s", cart.TaxTotal)
	assert.Truef(t, decimal.NewFromInt(grand).Equal(cart.GrandTotal), "grand total: got %s", cart.GrandTotal)
}

func (suite *cartServiceSuite) TestGetCart_EmptyForNewOwner() {
	cart, err := suite.svc.GetCart(suite.T().Context(), suite.owner)
	suite.Require().NoError(err)
	suite.Empty(cart.ID)
	suite.Empty(cart.CartItems)
	assertTotals(suite.T(), cart, 0, 0, 0, 0)

	count, err := suite.svc.GetItemCount(suite.T().Context(), suite.owner)
	suite.NoError(err)
	suite.Zero(count)
}

func (suite *cartServiceSuite) TestAddItem_TotalsBelowFreeShipping() {
	p := suite.newProduct(100000, 10)

	cart, err := suite.svc.AddItem(suite.T().Context(), suite.owner, p.ID, 3, "")
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 1)
	suite.Equal(3, cart.CartItems[0].Qty)
	assertTotals(suite.T(), cart, 300000, 30000, 24000, 354000)
}

func (suite *cartServiceSuite) TestAddItem_TotalsAboveFreeShipping() {
	p := suite.newProduct(200000, 10)

	cart, err := suite.svc.AddItem(suite.T().Context(), suite.owner, p.ID, 3, "")
	suite.Require().NoError(err)
	assertTotals(suite.T(), cart, 600000, 0, 48000, 648000)
}

func (suite *cartServiceSuite) TestAddItem_MergesDuplicateLine() {
	ctx := suite.T().Context()
	p := suite.newProduct(50000, 10)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 2, "")
	suite.Require().NoError(err)
	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 3, "")
	suite.Require().NoError(err)

	suite.Require().Len(cart.CartItems, 1)
	suite.Equal(5, cart.CartItems[0].Qty)
	suite.Equal(5, cart.TotalItems())
}

func (suite *cartServiceSuite) TestAddItem_RefreshesCapturedPrice() {
	ctx := suite.T().Context()
	p := suite.newProduct(50000, 10)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", decimal.NewFromInt(60000)).Error)

	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, "")
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 1)
	suite.True(decimal.NewFromInt(60000).Equal(cart.CartItems[0].Price))
}

func (suite *cartServiceSuite) TestAddItem_InsufficientStockLeavesCartUnchanged() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 1)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 2, "")
	ce := suite.requireKind(err, services.KindInsufficientStock)
	suite.Equal(1, ce.Available)

	cart, err := suite.svc.GetCart(ctx, suite.owner)
	suite.Require().NoError(err)
	suite.Empty(cart.CartItems)
	suite.Empty(cart.ID, "failed add must not leave a cart behind")
}

func (suite *cartServiceSuite) TestAddItem_AvailableAccountsForExistingLine() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 4, "")
	suite.Require().NoError(err)

	_, err = suite.svc.AddItem(ctx, suite.owner, p.ID, 3, "")
	ce := suite.requireKind(err, services.KindInsufficientStock)
	suite.Equal(1, ce.Available)

	count, err := suite.svc.GetItemCount(ctx, suite.owner)
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *cartServiceSuite) TestAddItem_ConcurrentAddsNeverOversell() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 3)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = suite.svc.AddItem(ctx, suite.owner, p.ID, 1, "")
		}()
	}
	wg.Wait()

	added := 0
	for _, err := range errs {
		if err == nil {
			added++
			continue
		}
		suite.Equal(services.KindInsufficientStock, services.KindOf(err), "unexpected error: %v", err)
	}
	suite.Equal(3, added)

	cart, err := suite.svc.GetCart(ctx, suite.owner)
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 1)
	suite.Equal(3, cart.CartItems[0].Qty)
}

func (suite *cartServiceSuite) TestAddItem_Validation() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)

	tests := []struct {
		name      string
		owner     models.CartOwner
		productID string
		qty       int
		kind      services.ErrorKind
	}{
		{name: "zero quantity", owner: suite.owner, productID: p.ID, qty: 0, kind: services.KindValidation},
		{name: "negative quantity", owner: suite.owner, productID: p.ID, qty: -1, kind: services.KindValidation},
		{name: "missing product id", owner: suite.owner, productID: "", qty: 1, kind: services.KindValidation},
		{name: "missing owner", owner: models.AnonymousOwner{}, productID: p.ID, qty: 1, kind: services.KindValidation},
		{name: "unknown product", owner: suite.owner, productID: gofakeit.UUID(), qty: 1, kind: services.KindNotFound},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.svc.AddItem(ctx, tt.owner, tt.productID, tt.qty, "")
			require.Error(suite.T(), err)
			assert.Equal(suite.T(), tt.kind, services.KindOf(err))
		})
	}
}

func (suite *cartServiceSuite) TestAddItem_InactiveProductIsNotFound() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)
	suite.Require().NoError(suite.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("active", false).Error)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, "")
	suite.requireKind(err, services.KindNotFound)
}

func (suite *cartServiceSuite) TestAddItem_Variants() {
	ctx := suite.T().Context()
	p := fakers.ProductFaker(100)
	p.Price = decimal.NewFromInt(100000)
	red := fakers.VariantFaker(p, 2)
	red.Price = decimal.NewFromInt(120000)
	blue := fakers.VariantFaker(p, 5)
	p.Variants = []models.ProductVariant{red, blue}
	suite.Require().NoError(suite.products.Create(ctx, p))

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, red.ID)
	suite.Require().NoError(err)
	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, blue.ID)
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 2, "each variant is its own line")
	suite.True(decimal.NewFromInt(120000).Equal(cart.CartItems[0].Price))

	_, err = suite.svc.AddItem(ctx, suite.owner, p.ID, 2, red.ID)
	ce := suite.requireKind(err, services.KindInsufficientStock)
	suite.Equal(1, ce.Available, "variant stock, not product stock")

	_, err = suite.svc.AddItem(ctx, suite.owner, p.ID, 1, gofakeit.UUID())
	suite.requireKind(err, services.KindNotFound)
}

func (suite *cartServiceSuite) TestUpdateItem() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)

	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 1, "")
	suite.Require().NoError(err)
	itemID := cart.CartItems[0].ID

	cart, err = suite.svc.UpdateItem(ctx, suite.owner, itemID, 5)
	suite.Require().NoError(err)
	suite.Equal(5, cart.CartItems[0].Qty)
	assertTotals(suite.T(), cart, 500000, 30000, 40000, 570000)

	_, err = suite.svc.UpdateItem(ctx, suite.owner, itemID, 6)
	ce := suite.requireKind(err, services.KindInsufficientStock)
	suite.Equal(5, ce.Available)
	suite.Equal("Only 5 of "+p.Name+" in stock", ce.Message)

	_, err = suite.svc.UpdateItem(ctx, suite.owner, itemID, -1)
	suite.requireKind(err, services.KindValidation)

	_, err = suite.svc.UpdateItem(ctx, models.AnonymousOwner{SessionID: gofakeit.UUID()}, itemID, 1)
	suite.requireKind(err, services.KindNotFound)
}

func (suite *cartServiceSuite) TestUpdateItem_ZeroRemovesLine() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)
	q := suite.newProduct(20000, 5)

	_, err := suite.svc.AddItem(ctx, suite.owner, q.ID, 1, "")
	suite.Require().NoError(err)
	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 2, "")
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 2)

	cart, err = suite.svc.UpdateItem(ctx, suite.owner, cart.CartItems[1].ID, 0)
	suite.Require().NoError(err)
	suite.Require().Len(cart.CartItems, 1)
	suite.Equal(q.ID, cart.CartItems[0].ProductID)
	assertTotals(suite.T(), cart, 20000, 30000, 1600, 51600)
}

func (suite *cartServiceSuite) TestRemoveItem() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)

	cart, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 2, "")
	suite.Require().NoError(err)
	itemID := cart.CartItems[0].ID

	cart, err = suite.svc.RemoveItem(ctx, suite.owner, itemID)
	suite.Require().NoError(err)
	suite.Empty(cart.CartItems)
	assertTotals(suite.T(), cart, 0, 0, 0, 0)

	_, err = suite.svc.RemoveItem(ctx, suite.owner, itemID)
	suite.requireKind(err, services.KindNotFound)
}

func (suite *cartServiceSuite) TestClearCart_IsIdempotent() {
	ctx := suite.T().Context()
	p := suite.newProduct(100000, 5)

	_, err := suite.svc.AddItem(ctx, suite.owner, p.ID, 2, "")
	suite.Require().NoError(err)

	for range 2 {
		cart, err := suite.svc.ClearCart(ctx, suite.owner)
		suite.Require().NoError(err)
		suite.Empty(cart.CartItems)
		assertTotals(suite.T(), cart, 0, 0, 0, 0)
	}

	cart, err := suite.svc.ClearCart(ctx, models.UserOwner{UserID: gofakeit.UUID()})
	suite.Require().NoError(err)
	suite.Empty(cart.CartItems)
}

func (suite *cartServiceSuite) TestMergeCarts() {
	ctx := suite.T().Context()
	user := models.UserOwner{UserID: gofakeit.UUID()}
	anon := models.AnonymousOwner{SessionID: gofakeit.UUID()}

	shared := suite.newProduct(100000, 4)
	onlyAnon := suite.newProduct(50000, 10)
	gone := suite.newProduct(10000, 10)

	_, err := suite.svc.AddItem(ctx, user, shared.ID, 2, "")
	suite.Require().NoError(err)
	_, err = suite.svc.AddItem(ctx, anon, shared.ID, 3, "")
	suite.Require().NoError(err)
	_, err = suite.svc.AddItem(ctx, anon, onlyAnon.ID, 1, "")
	suite.Require().NoError(err)
	_, err = suite.svc.AddItem(ctx, anon, gone.ID, 1, "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Model(&models.Product{}).Where("id = ?", gone.ID).Update("active", false).Error)

	cart, err := suite.svc.MergeCarts(ctx, anon, user)
	suite.Require().NoError(err)

	qty := map[string]int{}
	for _, item := range cart.CartItems {
		qty[item.ProductID] = item.Qty
	}
	suite.Equal(map[string]int{shared.ID: 4, onlyAnon.ID: 1}, qty, "summed quantity is capped at stock")
	assertTotals(suite.T(), cart, 450000, 30000, 36000, 516000)

	anonCart, err := suite.svc.GetCart(ctx, anon)
	suite.Require().NoError(err)
	suite.Empty(anonCart.ID, "anonymous cart is deleted")

	again, err := suite.svc.MergeCarts(ctx, anon, user)
	suite.Require().NoError(err)
	suite.Equal(cart.ID, again.ID)
	suite.Len(again.CartItems, 2)
}
