package rest

import (
	"net/http"

	"ledger-service/internal/pkg/response"
)

func (h *LedgerHandler) ReferralStats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	stats, err := h.referrals.GetStats(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "referral stats", stats)
}

func (h *LedgerHandler) ReferralCommissions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	commissions, err := h.referrals.ListCommissions(r.Context(), accountID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "referral commissions", commissions)
}

// RefreshReferralTier recounts confirmed invites and persists the resulting tier.
func (h *LedgerHandler) RefreshReferralTier(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	stats, err := h.referrals.UpdateUserTier(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "referral tier refreshed", stats)
}
