package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xdnjs7/snack-order-service/internal/approval"
	"github.com/xdnjs7/snack-order-service/internal/order"
)

type instantPurchaseRequest struct {
	CartItemIDs []string `json:"cartItemIds"`
}

// InstantPurchase is the ADMIN/SUPER_ADMIN "buy now" path: budget admission
// runs before the order exists, and a failed check means no order at all.
func (h *Handler) InstantPurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req instantPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	o, err := h.orders.InstantPurchase(r.Context(), id.UserID, id.CompanyID, req.CartItemIDs)
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

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type orderListResponse struct {
	Orders []order.Order `json:"orders"`
	Meta   orderListMeta `json:"meta"`
}

type orderListMeta struct {
	TotalCount int `json:"totalCount"`
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
}

func (h *Handler) ListAdminOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	f := order.ListFilter{
		Status:  order.StatusPending,
		Limit:   defaultPageSize,
		OrderBy: r.URL.Query().Get("orderBy"),
	}

	switch r.URL.Query().Get("status") {
	case "", "pending":
	case "approved":
		f.Status = order.StatusApproved
	default:
		writeError(w, http.StatusBadRequest, "status must be pending or approved")
		return
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		f.Offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		f.Limit = n
	}

	orders, total, err := h.orders.List(r.Context(), id.CompanyID, f)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: orders,
		Meta:   orderListMeta{TotalCount: total, Offset: f.Offset, Limit: f.Limit},
	})
}

type decideRequest struct {
	Status       string `json:"status"`
	AdminMessage string `json:"adminMessage"`
}

// DecideOrder handles PATCH /admin/orders/{orderId}: the admin decision.
// Budget is re-validated at this moment, not at order-creation time.
func (h *Handler) DecideOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderId")

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	var d approval.Decision
	switch order.Status(req.Status) {
	case order.StatusApproved:
		d = approval.DecisionApprove
	case order.StatusRejected:
		d = approval.DecisionReject
	default:
		writeError(w, http.StatusBadRequest, "status must be APPROVED or REJECTED")
		return
	}

	o, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if o.CompanyID != id.CompanyID {
		writeError(w, http.StatusForbidden, "order belongs to another company")
		return
	}

	decided, err := h.approvals.Decide(r.Context(), orderID, id.UserID, d, req.AdminMessage)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, decided)
}
