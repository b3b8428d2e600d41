package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/helpers"
	"github.com/Rakhulsr/go-storefront/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type CartHandler struct {
	actions   *actions.CartActions
	render    *render.Render
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCartHandler(a *actions.CartActions, r *render.Render, v *validator.Validate, logger *zap.Logger) *CartHandler {
	return &CartHandler{actions: a, render: r, validator: v, logger: logger}
}

// owner is set by CartOwnerMiddleware; a request without one is a wiring bug.
func (h *CartHandler) owner(w http.ResponseWriter, r *http.Request) (models.CartOwner, bool) {
	owner, ok := helpers.CartOwnerFrom(r.Context())
	if !ok {
		h.logger.Error("CartHandler: no cart owner in request context", zap.String("path", r.URL.Path))
		_ = h.render.JSON(w, http.StatusInternalServerError, unknownFailure())
	}
	return owner, ok
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.GetCart(r.Context(), owner))
}

func (h *CartHandler) GetCartCount(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.CartCount(r.Context(), owner))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in actions.AddToCartInput
	if !decodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	respond(h.render, w, h.actions.AddToCart(r.Context(), owner, in))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in actions.UpdateCartItemInput
	if !decodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	respond(h.render, w, h.actions.UpdateCartItem(r.Context(), owner, mux.Vars(r)["id"], *in.Quantity))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.RemoveFromCart(r.Context(), owner, mux.Vars(r)["id"]))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.ClearCart(r.Context(), owner))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.Checkout(r.Context(), owner))
}

func (h *CartHandler) Orders(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	respond(h.render, w, h.actions.Orders(r.Context(), owner))
}
