package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xdnjs7/snack-order-service/internal/cart"
)

type cartResponse struct {
	Items        []cart.Line `json:"items"`
	CheckedTotal int64       `json:"checkedTotal"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	lines, err := h.carts.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	sel := cart.NewSelection(lines)
	items := sel.Lines()
	if items == nil {
		items = []cart.Line{}
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, CheckedTotal: sel.CheckedTotal()})
}

type selectAllRequest struct {
	IsChecked bool `json:"isChecked"`
}

func (h *Handler) SelectAllCartItems(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req selectAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	if err := h.carts.SetAllChecked(r.Context(), id.UserID, req.IsChecked); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCartItemRequest struct {
	IsChecked *bool `json:"isChecked"`
	Quantity  *int  `json:"quantity"`
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	itemID := chi.URLParam(r, "itemId")

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.IsChecked == nil && req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.IsChecked != nil {
		if err := h.carts.SetChecked(r.Context(), id.UserID, itemID, *req.IsChecked); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
	}
	if req.Quantity != nil {
		if err := h.carts.SetQuantity(r.Context(), id.UserID, itemID, *req.Quantity); err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
