package actions_test

import (
	"testing"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/db/fakers"
	"github.com/Rakhulsr/go-storefront/app/db/testdb"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newActions(t *testing.T) (*actions.CartActions, repositories.ProductRepository) {
	t.Helper()

	db := testdb.Open(t)
	logger := zaptest.NewLogger(t)
	pricing := calc.DefaultPricing()
	carts := repositories.NewCartRepository(db)
	items := repositories.NewCartItemRepository(db)
	products := repositories.NewProductRepository(db)

	cartSvc := services.NewCartService(db, carts, items, products, pricing, logger)
	checkoutSvc := services.NewCheckoutService(db, carts, items, products, repositories.NewOrderRepository(db), nil, pricing, logger)
	return actions.NewCartActions(cartSvc, checkoutSvc, products, logger), products
}

func createProduct(t *testing.T, products repositories.ProductRepository, price int64, stock int) *models.Product {
	t.Helper()
	p := fakers.ProductFaker(stock)
	p.Price = decimal.NewFromInt(price)
	require.NoError(t, products.Create(t.Context(), p))
	return p
}

func TestAddToCart_Envelope(t *testing.T) {
	a, products := newActions(t)
	ctx := t.Context()
	owner := models.AnonymousOwner{SessionID: gofakeit.UUID()}
	p := createProduct(t, products, 100000, 10)

	res := a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: p.ID, Quantity: 3})
	require.True(t, res.Success)
	require.Nil(t, res.Error)
	require.NotNil(t, res.Data)

	cart := *res.Data
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, "VND", cart.Currency)
	assert.Equal(t, "354.000 ₫", cart.GrandTotalFmt)
	require.Len(t, cart.Items, 1)

	want := other.CartItemView{
		ID:        cart.Items[0].ID,
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  3,
		UnitPrice: decimal.NewFromInt(100000),
		LineTotal: decimal.NewFromInt(300000),
	}
	decimalEqual := cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })
	if diff := cmp.Diff(want, cart.Items[0], decimalEqual); diff != "" {
		t.Errorf("cart item mismatch (-want +got):\n%s", diff)
	}
}

func TestAddToCart_VariantLineNamedLikeStockErrors(t *testing.T) {
	a, products := newActions(t)
	ctx := t.Context()
	owner := models.AnonymousOwner{SessionID: gofakeit.UUID()}

	p := fakers.ProductFaker(10)
	p.Price = decimal.NewFromInt(100000)
	size := fakers.VariantFaker(p, 2)
	p.Variants = []models.ProductVariant{size}
	require.NoError(t, products.Create(ctx, p))

	res := a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: p.ID, VariantID: size.ID, Quantity: 1})
	require.True(t, res.Success, "add failed: %+v", res.Error)
	require.Len(t, res.Data.Items, 1)
	wantName := p.Name + " - " + size.Name
	assert.Equal(t, wantName, res.Data.Items[0].Name)
	assert.Equal(t, size.ID, res.Data.Items[0].VariantID)

	res = a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: p.ID, VariantID: size.ID, Quantity: 5})
	require.False(t, res.Success)
	assert.Contains(t, res.Error.Message, wantName)

	cart := a.GetCart(ctx, owner)
	require.True(t, cart.Success)
	assert.Equal(t, wantName, cart.Data.Items[0].Name)
}

func TestAddToCart_InsufficientStockCarriesAvailable(t *testing.T) {
	a, products := newActions(t)
	ctx := t.Context()
	owner := models.AnonymousOwner{SessionID: gofakeit.UUID()}
	p := createProduct(t, products, 100000, 1)

	res := a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: p.ID, Quantity: 2})
	require.False(t, res.Success)
	assert.Nil(t, res.Data)
	require.NotNil(t, res.Error)
	assert.Equal(t, string(services.KindInsufficientStock), res.Error.Kind)
	require.NotNil(t, res.Error.Available)
	assert.Equal(t, 1, *res.Error.Available)

	cart := a.GetCart(ctx, owner)
	require.True(t, cart.Success)
	assert.Empty(t, cart.Data.Items)
	assert.Zero(t, cart.Data.ItemCount)
}

func TestActions_ErrorKinds(t *testing.T) {
	a, _ := newActions(t)
	ctx := t.Context()
	owner := models.AnonymousOwner{SessionID: gofakeit.UUID()}

	tests := []struct {
		name string
		res  other.Result[other.CartView]
		kind services.ErrorKind
	}{
		{name: "zero quantity", res: a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: gofakeit.UUID()}), kind: services.KindValidation},
		{name: "unknown product", res: a.AddToCart(ctx, owner, actions.AddToCartInput{ProductID: gofakeit.UUID(), Quantity: 1}), kind: services.KindNotFound},
		{name: "unknown item", res: a.UpdateCartItem(ctx, owner, gofakeit.UUID(), 1), kind: services.KindNotFound},
		{name: "negative quantity", res: a.UpdateCartItem(ctx, owner, gofakeit.UUID(), -1), kind: services.KindValidation},
		{name: "remove unknown item", res: a.RemoveFromCart(ctx, owner, gofakeit.UUID()), kind: services.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, tt.res.Success)
			require.NotNil(t, tt.res.Error)
			assert.Equal(t, string(tt.kind), tt.res.Error.Kind)
			assert.NotEmpty(t, tt.res.Error.Message)
			assert.Nil(t, tt.res.Error.Available)
		})
	}
}

func TestActions_PanicBecomesUnknownError(t *testing.T) {
	a := actions.NewCartActions(nil, nil, nil, zaptest.NewLogger(t))

	var res other.Result[other.CartView]
	require.NotPanics(t, func() {
		res = a.GetCart(t.Context(), models.UserOwner{UserID: gofakeit.UUID()})
	})
	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, string(services.KindUnknown), res.Error.Kind)
	assert.Equal(t, services.ErrMsgSomethingWentWrong, res.Error.Message)
}

func TestCheckoutAndOrders(t *testing.T) {
	a, products := newActions(t)
	ctx := t.Context()
	user := models.UserOwner{UserID: gofakeit.UUID()}
	p := createProduct(t, products, 200000, 5)

	require.True(t, a.AddToCart(ctx, user, actions.AddToCartInput{ProductID: p.ID, Quantity: 3}).Success)

	res := a.Checkout(ctx, user)
	require.True(t, res.Success, "checkout failed: %+v", res.Error)
	assert.Equal(t, "pending", res.Data.Status)
	assert.True(t, decimal.NewFromInt(648000).Equal(res.Data.GrandTotal))

	orders := a.Orders(ctx, user)
	require.True(t, orders.Success)
	require.Len(t, *orders.Data, 1)
	assert.Equal(t, res.Data.OrderCode, (*orders.Data)[0].OrderCode)

	anon := a.Orders(ctx, models.AnonymousOwner{SessionID: gofakeit.UUID()})
	require.False(t, anon.Success)
	assert.Equal(t, string(services.KindValidation), anon.Error.Kind)
}

func TestProduct(t *testing.T) {
	a, products := newActions(t)
	p := createProduct(t, products, 100000, 5)

	res := a.Product(t.Context(), p.ID)
	require.True(t, res.Success)
	assert.Equal(t, p.Name, res.Data.Name)

	missing := a.Product(t.Context(), gofakeit.UUID())
	require.False(t, missing.Success)
	assert.Equal(t, string(services.KindNotFound), missing.Error.Kind)
}
