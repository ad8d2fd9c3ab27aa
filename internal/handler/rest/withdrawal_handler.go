package rest

import (
	"net/http"

	"github.com/shopspring/decimal"

	"ledger-service/internal/pkg/response"
)

type createWithdrawalRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address"`
}

func (h *LedgerHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var req createWithdrawalRequest
	if !h.decode(w, r, &req) {
		return
	}
	wd, err := h.withdrawals.Create(r.Context(), accountID, req.Amount, req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, "withdrawal submitted", wd)
}

func (h *LedgerHandler) WithdrawalEligibility(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	elig, err := h.withdrawals.CheckEligibility(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "withdrawal eligibility", elig)
}

func (h *LedgerHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}
	wd, err := h.withdrawals.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if wd.AccountID != accountID {
		response.Error(w, http.StatusNotFound, "withdrawal not found")
		return
	}
	response.JSON(w, http.StatusOK, "withdrawal", wd)
}

func (h *LedgerHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	wds, err := h.withdrawals.ListByAccount(r.Context(), accountID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "withdrawals", wds)
}
