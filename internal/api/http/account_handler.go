package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
)

func (h *Handler) RegisterHousehold(w http.ResponseWriter, r *http.Request) {
	var hh domain.Household
	if err := decodeJSON(r, &hh); err != nil {
		writeError(w, r, err)
		return
	}
	hh.ID = 0
	if err := h.svc.Accounts.RegisterHousehold(r.Context(), &hh); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

// Deposit handles POST /api/v1/households/{id}/deposits. Amounts are decimal strings such as "10.00".
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	entry, balance, err := h.svc.Accounts.Deposit(r.Context(), id, body.Amount, body.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": entry, "balance": balance})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	session, err := householdSession(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := h.svc.Accounts.GetBalance(r.Context(), session.HouseholdID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"household_id": session.HouseholdID, "balance": balance})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session, err := householdSession(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, total, err := h.svc.Accounts.ListTransactions(r.Context(), session.HouseholdID, queryInt32(r, "page"), queryInt32(r, "page_size"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "total": total})
}
