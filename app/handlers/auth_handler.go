package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/repositories"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/sessions"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

const errMsgInvalidCredentials = "Invalid email or password"

type AuthHandler struct {
	actions      *actions.CartActions
	userRepo     repositories.UserRepository
	sessionStore sessions.SessionStore
	cartCookie   *sessions.CartCookie
	render       *render.Render
	validator    *validator.Validate
	logger       *zap.Logger
}

func NewAuthHandler(
	a *actions.CartActions,
	userRepo repositories.UserRepository,
	sessionStore sessions.SessionStore,
	cartCookie *sessions.CartCookie,
	r *render.Render,
	v *validator.Validate,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		actions:      a,
		userRepo:     userRepo,
		sessionStore: sessionStore,
		cartCookie:   cartCookie,
		render:       r,
		validator:    v,
		logger:       logger,
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates the user and folds the anonymous cart of this browser
// into the user's cart. The response carries the resulting cart.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if !decodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}

	ctx := r.Context()
	user, err := h.userRepo.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		h.logger.Error("AuthHandler.Login: authentication failed", zap.Error(err))
		_ = h.render.JSON(w, http.StatusInternalServerError, unknownFailure())
		return
	}
	if user == nil {
		_ = h.render.JSON(w, http.StatusUnauthorized, other.Fail[struct{}](other.ErrorBody{
			Kind:    string(services.KindValidation),
			Message: errMsgInvalidCredentials,
		}))
		return
	}

	if err := h.sessionStore.SetUserID(w, r, user.ID); err != nil {
		h.logger.Error("AuthHandler.Login: failed to save session", zap.String("user_id", user.ID), zap.Error(err))
		_ = h.render.JSON(w, http.StatusInternalServerError, unknownFailure())
		return
	}

	to := models.UserOwner{UserID: user.ID}
	if from, ok := h.anonymousOwner(r); ok {
		res := h.actions.MergeCarts(ctx, from, to)
		if res.Success {
			h.cartCookie.Clear(w)
			respond(h.render, w, res)
			return
		}
		h.logger.Warn("AuthHandler.Login: cart merge failed, keeping anonymous cart",
			zap.String("user_id", user.ID),
			zap.String("kind", res.Error.Kind),
		)
	}

	respond(h.render, w, h.actions.GetCart(ctx, to))
}

func (h *AuthHandler) anonymousOwner(r *http.Request) (models.AnonymousOwner, bool) {
	owner, ok := helpers.CartOwnerFrom(r.Context())
	if !ok {
		return models.AnonymousOwner{}, false
	}
	anon, ok := owner.(models.AnonymousOwner)
	return anon, ok
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		h.logger.Error("AuthHandler.Logout: failed to clear session", zap.Error(err))
		_ = h.render.JSON(w, http.StatusInternalServerError, unknownFailure())
		return
	}
	_ = h.render.JSON(w, http.StatusOK, other.OK(struct{}{}))
}
