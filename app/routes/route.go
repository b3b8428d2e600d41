package routes

import (
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/configs"
	"github.com/Rakhulsr/go-storefront/app/handlers"
	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/middlewares"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/calc"
	"github.com/Rakhulsr/go-storefront/app/utils/renderer"
	"github.com/Rakhulsr/go-storefront/app/utils/sessions"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CSRFHeader carries the token on responses and is expected back on unsafe requests.
const CSRFHeader = "X-CSRF-Token"

type Deps struct {
	DB          *gorm.DB
	Logger      *zap.Logger
	Pricing     calc.Pricing
	SessionKeys *configs.SessionKeys
	// CSRFKey enables CSRF protection on /api when set.
	CSRFKey []byte
	// Secure marks cookies Secure; set it when served over HTTPS.
	Secure      bool
	Development bool
	Gateway     services.PaymentGateway
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	rdr := renderer.New(deps.Development)
	validate := helpers.NewValidator()

	cartRepo := repositories.NewCartRepository(deps.DB)
	cartItemRepo := repositories.NewCartItemRepository(deps.DB)
	productRepo := repositories.NewProductRepository(deps.DB)
	orderRepo := repositories.NewOrderRepository(deps.DB)
	userRepo := repositories.NewUserRepository(deps.DB)

	cartSvc := services.NewCartService(deps.DB, cartRepo, cartItemRepo, productRepo, deps.Pricing, logger)
	checkoutSvc := services.NewCheckoutService(deps.DB, cartRepo, cartItemRepo, productRepo, orderRepo, deps.Gateway, deps.Pricing, logger)
	cartActions := actions.NewCartActions(cartSvc, checkoutSvc, productRepo, logger)

	sessionStore := sessions.NewCookieSessionStore(deps.Secure, logger, deps.SessionKeys.AuthKey, deps.SessionKeys.EncKey)
	cartCookie := sessions.NewCartCookie(deps.SessionKeys.AuthKey, deps.SessionKeys.EncKey, deps.Secure)

	cartHandler := handlers.NewCartHandler(cartActions, rdr, validate, logger)
	productHandler := handlers.NewProductHandler(cartActions, rdr)
	authHandler := handlers.NewAuthHandler(cartActions, userRepo, sessionStore, cartCookie, rdr, validate, logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, rdr)

	router := mux.NewRouter()
	router.Use(middlewares.RequestLogger(logger))

	router.HandleFunc("/healthz", healthHandler.Healthz).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	if deps.CSRFKey != nil {
		api.Use(csrf.Protect(deps.CSRFKey,
			csrf.Secure(deps.Secure),
			csrf.Path("/"),
			csrf.RequestHeader(CSRFHeader),
			csrf.ErrorHandler(csrfFailure(rdr, logger)),
		))
		api.Use(exposeCSRFToken)
	}
	api.Use(middlewares.CartOwnerMiddleware(sessionStore, cartCookie, rdr, logger))

	api.HandleFunc("/cart", cartHandler.GetCart).Methods("GET")
	api.HandleFunc("/cart", cartHandler.ClearCart).Methods("DELETE")
	api.HandleFunc("/cart/count", cartHandler.GetCartCount).Methods("GET")
	api.HandleFunc("/cart/items", cartHandler.AddItem).Methods("POST")
	api.HandleFunc("/cart/items/{id}", cartHandler.UpdateItem).Methods("PATCH")
	api.HandleFunc("/cart/items/{id}", cartHandler.RemoveItem).Methods("DELETE")

	api.HandleFunc("/checkout", cartHandler.Checkout).Methods("POST")
	api.Handle("/orders", middlewares.RequireUser(userRepo, rdr, logger)(http.HandlerFunc(cartHandler.Orders))).Methods("GET")

	api.HandleFunc("/products/{id}", productHandler.GetProduct).Methods("GET")

	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	return router
}

func exposeCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(CSRFHeader, csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

func csrfFailure(rdr *render.Render, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("CSRF check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
		_ = rdr.JSON(w, http.StatusForbidden, other.Fail[struct{}](other.ErrorBody{
			Kind:    string(services.KindValidation),
			Message: "Invalid or missing CSRF token",
		}))
	})
}
