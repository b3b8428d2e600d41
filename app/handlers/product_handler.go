package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
)

type ProductHandler struct {
	actions *actions.CartActions
	render  *render.Render
}

func NewProductHandler(a *actions.CartActions, r *render.Render) *ProductHandler {
	return &ProductHandler{actions: a, render: r}
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	respond(h.render, w, h.actions.Product(r.Context(), mux.Vars(r)["id"]))
}
