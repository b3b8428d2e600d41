package cmd_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/Rakhulsr/go-storefront/app/cmd"
	"github.com/Rakhulsr/go-storefront/app/configs"
	"github.com/Rakhulsr/go-storefront/app/db/fakers"
	"github.com/Rakhulsr/go-storefront/app/db/testdb"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/routes"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/gorilla/securecookie"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGenerateKeys(t *testing.T) {
	var out bytes.Buffer
	app := cmd.NewApp(configs.ENV{}, zaptest.NewLogger(t), &out)

	require.NoError(t, app.Run(t.Context(), []string{"storefront", "generate-keys"}))

	env := configs.ENV{}
	for _, line := range bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n")) {
		k, v, ok := bytes.Cut(line, []byte("="))
		require.True(t, ok)
		switch string(k) {
		case "APP_AUTH_KEY":
			env.AppAuthKey = string(v)
		case "APP_ENC_KEY":
			env.AppEncKey = string(v)
		case "CSRF_KEY":
			env.CSRFKey = string(v)
		}
	}

	keys, err := env.SessionKeys()
	require.NoError(t, err)
	assert.Len(t, keys.EncKey, 32)
	csrfKey, err := env.CSRFKeyBytes()
	require.NoError(t, err)
	assert.Len(t, csrfKey, 32)
}

func TestCartCommands(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("STOREFRONT_URL", "")

	db := testdb.Open(t)
	p := fakers.ProductFaker(5)
	p.Price = decimal.NewFromInt(100000)
	require.NoError(t, repositories.NewProductRepository(db).Create(t.Context(), p))

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

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		app := cmd.NewApp(configs.ENV{}, zaptest.NewLogger(t), &out)
		err := app.Run(t.Context(), append([]string{"storefront", "cart", "--url", srv.URL}, args...))
		return out.String(), err
	}

	out, err := run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty")

	out, err = run("add", p.ID, "3")
	require.NoError(t, err)
	assert.Contains(t, out, p.Name)
	assert.Contains(t, out, "354.000 ₫")

	out, err = run("--timeout", "5s", "add", p.ID, "9")
	require.Error(t, err)
	assert.Contains(t, out, "Only 5 more of")

	_, err = run("add")
	assert.Error(t, err)

	user := fakers.UserFaker("secret-password")
	email := user.Email
	require.NoError(t, repositories.NewUserRepository(db).Create(t.Context(), user))

	_, err = run("orders", "--email", email, "--password", "wrong")
	assert.Error(t, err)

	out, err = run("orders", "--email", email, "--password", "secret-password")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as")

	_, err = run("checkout", "--email", email, "--password", "secret-password")
	require.Error(t, err)
	assert.Equal(t, services.ErrMsgCartEmpty, err.Error())
}
