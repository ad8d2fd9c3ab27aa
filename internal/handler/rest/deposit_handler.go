package rest

import (
	"net/http"

	"github.com/shopspring/decimal"

	"ledger-service/internal/pkg/response"
)

type createDepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *LedgerHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var req createDepositRequest
	if !h.decode(w, r, &req) {
		return
	}
	dep, err := h.deposits.Create(r.Context(), accountID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, "deposit submitted", dep)
}

func (h *LedgerHandler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	dep, err := h.deposits.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if dep.AccountID != accountID {
		response.Error(w, http.StatusNotFound, "deposit not found")
		return
	}
	response.JSON(w, http.StatusOK, "deposit", dep)
}

func (h *LedgerHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	deps, err := h.deposits.ListByAccount(r.Context(), accountID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "deposits", deps)
}
