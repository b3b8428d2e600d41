package middlewares

import (
	"net/http"
	"time"

	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/sessions"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// CartOwnerMiddleware resolves whose cart the request acts on: the logged-in
// user if there is one, otherwise the anonymous cartSessionId cookie, which is
// issued on first use.
func CartOwnerMiddleware(store sessions.SessionStore, cartCookie *sessions.CartCookie, rdr *render.Render, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := store.GetUserID(r); userID != "" {
				ctx = helpers.WithUserID(ctx, userID)
				ctx = helpers.WithCartOwner(ctx, models.UserOwner{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionID, err := cartCookie.SessionID(w, r)
			if err != nil {
				logger.Error("CartOwnerMiddleware: failed to issue cart session", zap.Error(err))
				_ = rdr.JSON(w, http.StatusInternalServerError, other.Fail[struct{}](other.ErrorBody{
					Kind:    string(services.KindUnknown),
					Message: services.ErrMsgSomethingWentWrong,
				}))
				return
			}

			ctx = helpers.WithCartOwner(ctx, models.AnonymousOwner{SessionID: sessionID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
