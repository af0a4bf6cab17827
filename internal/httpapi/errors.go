package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/xdnjs7/snack-order-service/internal/budget"
	"github.com/xdnjs7/snack-order-service/internal/cart"
	"github.com/xdnjs7/snack-order-service/internal/checkout"
	"github.com/xdnjs7/snack-order-service/internal/order"
	"github.com/xdnjs7/snack-order-service/internal/payment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Budget
// shortfalls always carry the numeric remaining budget; vendor refusals
// carry the vendor's own code and message for the failure page.
func writeDomainError(w http.ResponseWriter, logger *log.Logger, err error) {
	var exceeded *budget.ExceededError
	var transition *order.InvalidTransitionError
	var mismatch *payment.AmountMismatchError
	var vendor *payment.VendorError

	switch {
	case errors.As(err, &exceeded):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     "budget exceeded",
			"code":      "BUDGET_EXCEEDED",
			"remaining": exceeded.Remaining,
		})
	case errors.As(err, &transition):
		writeErrorCode(w, http.StatusConflict, "INVALID_TRANSITION", transition.Error())
	case errors.As(err, &mismatch):
		writeErrorCode(w, http.StatusBadRequest, "AMOUNT_MISMATCH", mismatch.Error())
	case errors.As(err, &vendor):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   vendor.Message,
			"code":    vendor.Code,
			"message": vendor.Message,
		})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, budget.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrSessionNotFound):
		writeErrorCode(w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, order.ErrEmptySelection), errors.Is(err, cart.ErrLineNotFound), errors.Is(err, budget.ErrBelowSpent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotRequester):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, payment.ErrConfirmInFlight):
		writeErrorCode(w, http.StatusConflict, "CONFIRM_IN_FLIGHT", err.Error())
	case errors.Is(err, checkout.ErrAlreadyConfirmed):
		writeErrorCode(w, http.StatusConflict, "ALREADY_CONFIRMED", err.Error())
	default:
		logger.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
