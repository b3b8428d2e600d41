package middlewares

import (
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// RequireUser rejects requests without a logged-in, still existing user with
// 401. It must run after CartOwnerMiddleware.
func RequireUser(userRepo repositories.UserRepository, rdr *render.Render, logger *zap.Logger) func(http.Handler) http.Handler {
	unauthorized := func(w http.ResponseWriter) {
		_ = rdr.JSON(w, http.StatusUnauthorized, other.Fail[struct{}](other.ErrorBody{
			Kind:    string(services.KindValidation),
			Message: services.ErrMsgLoginRequired,
		}))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := helpers.UserIDFrom(r.Context())
			if userID == "" {
				unauthorized(w)
				return
			}

			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil || user == nil {
				logger.Warn("RequireUser: session user not found", zap.String("user_id", userID), zap.Error(err))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
