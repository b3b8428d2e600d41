package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/client/cartapi"
	"github.com/Rakhulsr/go-storefront/app/client/cartstore"
	"github.com/Rakhulsr/go-storefront/app/configs"
	"github.com/Rakhulsr/go-storefront/app/db/seeders"
	"github.com/Rakhulsr/go-storefront/app/models/migrations"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/routes"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/format"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func RunCli() {
	env := configs.LoadEnv()
	logger, err := configs.NewLogger(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewApp(env, logger, os.Stdout).Run(ctx, os.Args); err != nil {
		logger.Error("command failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

// NewApp builds the storefront command tree. Running it without a
// subcommand serves the API.
func NewApp(env configs.ENV, logger *zap.Logger, out io.Writer) *cli.Command {
	serve := func(ctx context.Context, c *cli.Command) error {
		return runServer(ctx, env, logger)
	}

	return &cli.Command{
		Name:   "storefront",
		Usage:  "Storefront cart API and tooling",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := configs.OpenConnection(env, logger)
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					logger.Info("migration complete")
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "Insert fake products and a demo customer",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "products", Value: 20, Usage: "number of products"},
					&cli.IntFlag{Name: "variants", Value: 3, Usage: "variants on every other product"},
					&cli.IntFlag{Name: "stock", Value: 25, Usage: "stock per product and variant"},
					&cli.BoolFlag{Name: "demo-account", Value: true, Usage: "create " + seeders.DemoCustomerEmail},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := configs.OpenConnection(env, logger)
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					return seeders.DBSeed(ctx, db, seeders.Options{
						Products:          c.Int("products"),
						VariantsPerOdd:    c.Int("variants"),
						StockPerProduct:   c.Int("stock"),
						CreateDemoAccount: c.Bool("demo-account"),
					}, logger)
				},
			},
			{
				Name:  "generate-keys",
				Usage: "Generate session and CSRF keys for .env",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "also write the keys to this file"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := configs.GenerateSessionKeys(out, c.String("out")); err != nil {
						return err
					}
					logger.Info("key generation complete, copy the keys to your .env file")
					return nil
				},
			},
			cartCommand(env, logger, out),
		},
	}
}

func runServer(ctx context.Context, env configs.ENV, logger *zap.Logger) error {
	pricing, err := env.Pricing()
	if err != nil {
		return err
	}
	keys, err := env.SessionKeys()
	if err != nil {
		return err
	}
	csrfKey, err := env.CSRFKeyBytes()
	if err != nil {
		return err
	}

	db, err := configs.OpenConnection(env, logger)
	if err != nil {
		return err
	}
	if err := migrations.AutoMigrate(db); err != nil {
		return err
	}
	defer closeDB(db, logger)

	var gateway services.PaymentGateway
	if client := configs.NewSnapClient(env); client != nil {
		gateway = services.NewSnapGateway(client, env.AppURL)
	} else {
		logger.Warn("MIDTRANS_SERVER_KEY not set, orders will not start a payment")
	}

	server := &http.Server{
		Addr: env.Port,
		Handler: routes.NewRouter(routes.Deps{
			DB:          db,
			Logger:      logger,
			Pricing:     pricing,
			SessionKeys: keys,
			CSRFKey:     csrfKey,
			Secure:      !env.IsDevelopment(),
			Development: env.IsDevelopment(),
			Gateway:     gateway,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("currency", pricing.Currency.String()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func closeDB(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}

// cartCommand drives a running storefront through the client cart store, so
// the anonymous cart survives between invocations via the persisted snapshot.
func cartCommand(env configs.ENV, logger *zap.Logger, out io.Writer) *cli.Command {
	withStore := func(fn func(ctx context.Context, c *cli.Command, store *cartstore.Store) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			store, closeFn, err := openStore(ctx, env, logger, c, out)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := fn(ctx, c, store); err != nil {
				return err
			}
			cart, err := store.Cart()
			if err != nil {
				return err
			}
			printCart(out, cart)
			return nil
		}
	}

	return &cli.Command{
		Name:  "cart",
		Usage: "Inspect and change the cart on a running storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: env.StorefrontURL, Usage: "storefront base URL", Sources: cli.EnvVars("STOREFRONT_URL")},
			&cli.StringFlag{Name: "redis", Value: env.RedisURL, Usage: "persist the cart in this redis instead of memory", Sources: cli.EnvVars("REDIS_URL")},
			&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "give up on a storefront request after this long", Sources: cli.EnvVars("STOREFRONT_TIMEOUT")},
		},
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the cart",
				Action: withStore(func(ctx context.Context, c *cli.Command, store *cartstore.Store) error { return nil }),
			},
			{
				Name:      "add",
				Usage:     "Add a product to the cart",
				ArgsUsage: "<product-id> [quantity]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variant", Usage: "variant id"},
				},
				Action: withStore(func(ctx context.Context, c *cli.Command, store *cartstore.Store) error {
					if c.Args().Len() < 1 {
						return errors.New("product id is required")
					}
					qty := 1
					if c.Args().Len() > 1 {
						n, err := strconv.Atoi(c.Args().Get(1))
						if err != nil {
							return fmt.Errorf("invalid quantity %q", c.Args().Get(1))
						}
						qty = n
					}
					return store.AddToCart(ctx, actions.AddToCartInput{
						ProductID: c.Args().Get(0),
						Quantity:  qty,
						VariantID: c.String("variant"),
					})
				}),
			},
			{
				Name:      "update",
				Usage:     "Set the quantity of a cart line, 0 removes it",
				ArgsUsage: "<item-id> <quantity>",
				Action: withStore(func(ctx context.Context, c *cli.Command, store *cartstore.Store) error {
					if c.Args().Len() < 2 {
						return errors.New("item id and quantity are required")
					}
					qty, err := strconv.Atoi(c.Args().Get(1))
					if err != nil {
						return fmt.Errorf("invalid quantity %q", c.Args().Get(1))
					}
					return store.UpdateCartItem(ctx, c.Args().Get(0), qty)
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a cart line",
				ArgsUsage: "<item-id>",
				Action: withStore(func(ctx context.Context, c *cli.Command, store *cartstore.Store) error {
					if c.Args().Len() < 1 {
						return errors.New("item id is required")
					}
					return store.RemoveFromCart(ctx, c.Args().Get(0))
				}),
			},
			{
				Name:  "checkout",
				Usage: "Log in, merge this cart into the account and place an order",
				Flags: accountFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					client, closeFn, err := loggedIn(ctx, logger, c, out)
					if err != nil {
						return err
					}
					defer closeFn()

					res := client.Checkout(ctx)
					if !res.Success {
						return errors.New(res.Error.Message)
					}
					printOrder(out, *res.Data)
					return nil
				},
			},
			{
				Name:  "orders",
				Usage: "List the account's orders",
				Flags: accountFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					client, closeFn, err := loggedIn(ctx, logger, c, out)
					if err != nil {
						return err
					}
					defer closeFn()

					res := client.Orders(ctx)
					if !res.Success {
						return errors.New(res.Error.Message)
					}
					for _, order := range *res.Data {
						printOrder(out, order)
					}
					return nil
				},
			},
			{
				Name:   "clear",
				Usage:  "Empty the cart",
				Action: withStore(func(ctx context.Context, c *cli.Command, store *cartstore.Store) error { return store.ClearCart(ctx) }),
			},
		},
	}
}

func accountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true, Usage: "account email"},
		&cli.StringFlag{Name: "password", Required: true, Usage: "account password", Sources: cli.EnvVars("STOREFRONT_PASSWORD")},
	}
}

func newPersister(c *cli.Command) (cartstore.Persister, func()) {
	redisURL := c.String("redis")
	if redisURL == "" {
		return cartstore.NewMemoryPersister(), func() {}
	}
	rdb := configs.NewRedisClient(configs.ENV{RedisURL: redisURL})
	return cartstore.NewRedisPersister(rdb, cartstore.DefaultKey), func() { _ = rdb.Close() }
}

func newClient(logger *zap.Logger, c *cli.Command) (*cartapi.Client, error) {
	return cartapi.New(c.String("url"), cartapi.WithLogger(logger), cartapi.WithTimeout(c.Duration("timeout")))
}

// loggedIn restores the anonymous cart session, then logs in so the server
// merges that cart into the account. The local snapshot is dropped afterwards.
func loggedIn(ctx context.Context, logger *zap.Logger, c *cli.Command, out io.Writer) (*cartapi.Client, func(), error) {
	client, err := newClient(logger, c)
	if err != nil {
		return nil, nil, err
	}

	persister, closeFn := newPersister(c)
	snap, err := persister.Load(ctx)
	if err != nil {
		logger.Warn("ignoring unreadable cart snapshot", zap.Error(err))
	} else if snap != nil && snap.SessionToken != "" {
		client.SetSessionToken(snap.SessionToken)
	}

	res := client.Login(ctx, c.String("email"), c.String("password"))
	if !res.Success {
		closeFn()
		return nil, nil, errors.New(res.Error.Message)
	}
	if err := persister.Clear(ctx); err != nil {
		logger.Warn("failed to clear cart snapshot", zap.Error(err))
	}
	fmt.Fprintf(out, "Logged in as %s\n", c.String("email"))
	return client, closeFn, nil
}

func openStore(ctx context.Context, env configs.ENV, logger *zap.Logger, c *cli.Command, out io.Writer) (*cartstore.Store, func(), error) {
	pricing, err := env.Pricing()
	if err != nil {
		return nil, nil, err
	}

	client, err := newClient(logger, c)
	if err != nil {
		return nil, nil, err
	}

	persister, closeFn := newPersister(c)

	store := cartstore.New(client, cartstore.Options{
		Persister: persister,
		Pricing:   pricing,
		Logger:    logger,
		Notify:    func(msg string) { fmt.Fprintln(out, "!", msg) },
	})
	if err := store.Mount(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func printCart(out io.Writer, cart other.CartView) {
	unit, err := currency.ParseISO(cart.Currency)
	if err != nil {
		unit = currency.XXX
	}

	if len(cart.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}
	for _, item := range cart.Items {
		fmt.Fprintf(out, "%-38s %-30s x%-3d %s\n", item.ID, item.Name, item.Quantity, format.Money(item.LineTotal, unit))
	}
	fmt.Fprintf(out, "%-38s %s\n", "Subtotal", format.Money(cart.Subtotal, unit))
	fmt.Fprintf(out, "%-38s %s\n", "Shipping", format.Money(cart.ShippingTotal, unit))
	fmt.Fprintf(out, "%-38s %s\n", "Tax", format.Money(cart.TaxTotal, unit))
	fmt.Fprintf(out, "%-38s %s\n", "Total", format.Money(cart.GrandTotal, unit))
}

func printOrder(out io.Writer, order other.OrderView) {
	unit, err := currency.ParseISO(order.Currency)
	if err != nil {
		unit = currency.XXX
	}

	fmt.Fprintf(out, "%s  %s  %s/%s  %s\n", order.OrderCode, order.OrderDate.Format("2006-01-02 15:04"),
		order.Status, order.PaymentStatus, format.Money(order.GrandTotal, unit))
	for _, item := range order.Items {
		fmt.Fprintf(out, "  %-30s x%-3d %s\n", item.Name, item.Quantity, format.Money(item.LineTotal, unit))
	}
	if order.PaymentURL != "" {
		fmt.Fprintf(out, "  pay at %s\n", order.PaymentURL)
	}
}
