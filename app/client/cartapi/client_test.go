package cartapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/client/cartapi"
	"github.com/Rakhulsr/go-storefront/app/client/cartstore"
	"github.com/Rakhulsr/go-storefront/app/configs"
	"github.com/Rakhulsr/go-storefront/app/db/fakers"
	"github.com/Rakhulsr/go-storefront/app/db/testdb"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/routes"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/gorilla/securecookie"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()

	db := testdb.Open(t)
	srv := httptest.NewServer(routes.NewRouter(routes.Deps{
		DB:      db,
		Logger:  zaptest.NewLogger(t),
		Pricing: calc.DefaultPricing(),
		SessionKeys: &configs.SessionKeys{
			AuthKey: securecookie.GenerateRandomKey(64),
			EncKey:  securecookie.GenerateRandomKey(32),
		},
	}))
	t.Cleanup(srv.Close)
	return srv, db
}

func newClient(t *testing.T, url string) *cartapi.Client {
	t.Helper()
	c, err := cartapi.New(url, cartapi.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := cartapi.New("localhost")
	assert.Error(t, err)
}

func TestClient_DrivesStoreAgainstServer(t *testing.T) {
	srv, db := newServer(t)
	p := fakers.ProductFaker(4)
	p.Price = decimal.NewFromInt(100000)
	require.NoError(t, repositories.NewProductRepository(db).Create(t.Context(), p))

	client := newClient(t, srv.URL)
	persister := cartstore.NewMemoryPersister()
	store := cartstore.New(client, cartstore.Options{Persister: persister, Logger: zaptest.NewLogger(t)})
	require.NoError(t, store.Mount(t.Context()))
	require.NotEmpty(t, client.SessionToken(), "server issues the cart cookie on first read")

	require.NoError(t, store.AddToCart(t.Context(), actions.AddToCartInput{ProductID: p.ID, Quantity: 3}))
	cart, err := store.Cart()
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, decimal.NewFromInt(354000).Equal(cart.GrandTotal))

	err = store.UpdateCartItem(t.Context(), cart.Items[0].ID, 9)
	var rejected *cartstore.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "INSUFFICIENT_STOCK", rejected.Body.Kind)
	require.NotNil(t, rejected.Body.Available)
	assert.Equal(t, 4, *rejected.Body.Available)

	count := client.CartCount(t.Context())
	require.True(t, count.Success)
	assert.Equal(t, 3, count.Data.Count)

	// a new process restores the same anonymous cart from the snapshot
	restarted := newClient(t, srv.URL)
	again := cartstore.New(restarted, cartstore.Options{Persister: persister, Logger: zaptest.NewLogger(t)})
	require.NoError(t, again.Mount(t.Context()))
	restored, err := again.Cart()
	require.NoError(t, err)
	require.Len(t, restored.Items, 1)
	assert.Equal(t, cart.Items[0].ID, restored.Items[0].ID)
}

func TestClient_Product(t *testing.T) {
	srv, db := newServer(t)
	p := fakers.ProductFaker(2)
	require.NoError(t, repositories.NewProductRepository(db).Create(t.Context(), p))
	client := newClient(t, srv.URL)

	res := client.Product(t.Context(), p.ID)
	require.True(t, res.Success)
	assert.Equal(t, p.Name, res.Data.Name)

	missing := client.Product(t.Context(), "nope")
	assert.False(t, missing.Success)
	assert.Equal(t, "NOT_FOUND", missing.Error.Kind)
}

func TestClient_TransportFailureIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newClient(t, url).GetCart(t.Context())
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "UNKNOWN_ERROR", res.Error.Kind)
}

func TestClient_TimeoutIsUnknown(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := cartapi.New(srv.URL, cartapi.WithLogger(zaptest.NewLogger(t)), cartapi.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	res := client.GetCart(t.Context())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "UNKNOWN_ERROR", res.Error.Kind)
}

func TestClient_NonEnvelopeResponseIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	res := newClient(t, srv.URL).ClearCart(t.Context())
	assert.False(t, res.Success)
	assert.Equal(t, "UNKNOWN_ERROR", res.Error.Kind)
}

func TestClient_EchoesCSRFToken(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-CSRF-Token"))
		w.Header().Set("X-CSRF-Token", "token-1")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[],"itemCount":0}}`))
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL)
	require.True(t, c.GetCart(t.Context()).Success)
	require.True(t, c.ClearCart(t.Context()).Success)

	assert.Equal(t, []string{"", "token-1"}, seen)
}
