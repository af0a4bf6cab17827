package httpapi

import (
	"encoding/json"
	"net/http"
)

type confirmPaymentRequest struct {
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
	PaymentKey string `json:"paymentKey"`
}

// ConfirmPayment is the success-redirect callback target. The amount the
// redirect carried is re-verified against the order's authoritative total
// before the vendor confirm runs; duplicate callbacks are absorbed by the
// single-flight latch and the session's confirmed flag.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.OrderID == "" || req.PaymentKey == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "orderId, amount and paymentKey are required")
		return
	}

	o, err := h.confirmer.Confirm(r.Context(), req.OrderID, req.Amount, req.PaymentKey)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

type cancelPaymentRequest struct {
	OrderID string `json:"orderId"`
}

// CancelPayment is the abandonment path driven by the cancellation guard:
// it cancels the order and discards the session, unless the payment already
// confirmed.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req cancelPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	if err := h.guard.CancelPending(r.Context(), req.OrderID, id.UserID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
