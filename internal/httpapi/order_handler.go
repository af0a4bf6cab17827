package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xdnjs7/snack-order-service/internal/order"
	"github.com/xdnjs7/snack-order-service/internal/payment"
)

type createOrderRequest struct {
	CartItemIDs    []string `json:"cartItemIds"`
	RequestMessage string   `json:"requestMessage"`
}

type checkoutResponse struct {
	Order   *order.Order     `json:"order"`
	Payment *payment.Session `json:"payment"`
}

// CreateOrder is the USER request path: the order is created PENDING and
// budget admission is deferred to approval time. A payment session locking
// the authoritative total is opened alongside.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	o, err := h.orders.Create(r.Context(), id.UserID, id.CompanyID, req.CartItemIDs, req.RequestMessage)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	sess, err := h.openSession(r, o, id.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{Order: o, Payment: sess})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderId")

	o, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if o.RequesterID != id.UserID && !(id.Role.IsAdmin() && o.CompanyID == id.CompanyID) {
		writeError(w, http.StatusForbidden, "not your order")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	orders, err := h.orders.ListMine(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

type cancelOrderRequest struct {
	Status string `json:"status"`
}

// CancelOrder handles PATCH /orders/{orderId}. The only transition a
// requester may drive is PENDING -> CANCELED.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderId")

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if order.Status(req.Status) != order.StatusCanceled {
		writeError(w, http.StatusBadRequest, "only CANCELED is accepted")
		return
	}

	if err := h.orders.Cancel(r.Context(), orderID, id.UserID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if err := h.sessions.Delete(r.Context(), orderID); err != nil {
		h.logger.Printf("discard session %s after cancel: %v", orderID, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openSession(r *http.Request, o *order.Order, customerKey string) (*payment.Session, error) {
	sess, err := payment.Open(o, customerKey)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		return nil, err
	}
	return sess, nil
}
