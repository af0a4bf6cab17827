package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(Auth)

		r.Get("/cart", h.GetCart)
		r.Patch("/cart/items", h.SelectAllCartItems)
		r.Patch("/cart/items/{itemId}", h.UpdateCartItem)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListMyOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
		r.Patch("/orders/{orderId}", h.CancelOrder)

		r.Post("/payments/confirm", h.ConfirmPayment)
		r.Patch("/payments/cancel", h.CancelPayment)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleAdmin, RoleSuperAdmin))

			r.Post("/admin/orders", h.InstantPurchase)
			r.Get("/admin/orders", h.ListAdminOrders)
			r.Patch("/admin/orders/{orderId}", h.DecideOrder)
			r.Get("/admin/{companyId}/budgets", h.GetBudget)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleSuperAdmin))

			r.Patch("/super-admin/{companyId}/budgets", h.UpdateBudget)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "snack-order-service",
	})
}
