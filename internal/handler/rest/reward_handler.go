package rest

import (
	"net/http"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/response"
)

type claimResult struct {
	Claim   *domain.RewardClaim `json:"claim"`
	ResetAt time.Time           `json:"reset_at"`
}

func (h *LedgerHandler) DailyRewardStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	status, err := h.dailyRewards.CheckEligibility(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "daily reward status", status)
}

func (h *LedgerHandler) ClaimDailyReward(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	claim, resetAt, err := h.dailyRewards.Claim(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "daily reward claimed", claimResult{Claim: claim, ResetAt: resetAt})
}

func (h *LedgerHandler) DailyRewardHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	claims, err := h.dailyRewards.History(r.Context(), accountID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "daily reward history", claims)
}

func (h *LedgerHandler) RandomRewardStatus(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	status, err := h.randomReward.Status(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "random reward status", status)
}

func (h *LedgerHandler) ClaimRandomReward(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	claim, resetAt, err := h.randomReward.Claim(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "random reward claimed", claimResult{Claim: claim, ResetAt: resetAt})
}

func (h *LedgerHandler) RandomRewardHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}
	claims, err := h.randomReward.History(r.Context(), accountID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "random reward history", claims)
}
