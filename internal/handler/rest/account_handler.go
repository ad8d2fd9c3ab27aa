package rest

import (
	"net/http"

	"ledger-service/internal/pkg/response"
)

type registerAccountRequest struct {
	AccountID int64  `json:"account_id"`
	InvitedBy *int64 `json:"invited_by,omitempty"`
}

// GetAccount returns the caller's balances and ledger markers.
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "account retrieved", acc)
}

// RegisterAccount provisions a ledger row for an account created upstream.
func (h *LedgerHandler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	acc, err := h.accounts.Register(r.Context(), req.AccountID, req.InvitedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, "account registered", acc)
}
