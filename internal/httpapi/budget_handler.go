package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type budgetResponse struct {
	CompanyID           string `json:"companyId"`
	MonthlyBudget       int64  `json:"monthlyBudget"`
	CurrentMonthBudget  int64  `json:"currentMonthBudget"`
	CurrentMonthExpense int64  `json:"currentMonthExpense"`
	Remaining           int64  `json:"remaining"`
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	companyID := chi.URLParam(r, "companyId")

	if companyID != id.CompanyID {
		writeError(w, http.StatusForbidden, "budget belongs to another company")
		return
	}

	b, err := h.budgets.Get(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, budgetResponse{
		CompanyID:           b.CompanyID,
		MonthlyBudget:       b.MonthlyBudget,
		CurrentMonthBudget:  b.CurrentMonthBudget,
		CurrentMonthExpense: b.CurrentMonthExpense,
		Remaining:           b.Remaining(),
	})
}

type updateBudgetRequest struct {
	CurrentMonthBudget int64 `json:"currentMonthBudget"`
	MonthlyBudget      int64 `json:"monthlyBudget"`
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	companyID := chi.URLParam(r, "companyId")

	if companyID != id.CompanyID {
		writeError(w, http.StatusForbidden, "budget belongs to another company")
		return
	}

	var req updateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.CurrentMonthBudget < 0 || req.MonthlyBudget < 0 {
		writeError(w, http.StatusBadRequest, "budget figures must be non-negative")
		return
	}

	b, err := h.budgets.Update(r.Context(), companyID, req.CurrentMonthBudget, req.MonthlyBudget)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, budgetResponse{
		CompanyID:           b.CompanyID,
		MonthlyBudget:       b.MonthlyBudget,
		CurrentMonthBudget:  b.CurrentMonthBudget,
		CurrentMonthExpense: b.CurrentMonthExpense,
		Remaining:           b.Remaining(),
	})
}
