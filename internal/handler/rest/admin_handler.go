package rest

import (
	"net/http"

	"ledger-service/internal/domain"
	"ledger-service/internal/middleware"
	"ledger-service/internal/pkg/response"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

type setPolicyRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *LedgerHandler) reviewerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing authentication")
		return 0, false
	}
	return id, true
}

func (h *LedgerHandler) ListPendingDeposits(w http.ResponseWriter, r *http.Request) {
	deps, err := h.deposits.ListPending(r.Context(), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "pending deposits", deps)
}

func (h *LedgerHandler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := h.reviewerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	dep, err := h.deposits.Approve(r.Context(), id, reviewerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "deposit approved", dep)
}

func (h *LedgerHandler) RejectDeposit(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := h.reviewerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	var req rejectRequest
	if !h.decode(w, r, &req) {
		return
	}
	dep, err := h.deposits.Reject(r.Context(), id, reviewerID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "deposit rejected", dep)
}

func (h *LedgerHandler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	wds, err := h.withdrawals.ListPending(r.Context(), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "pending withdrawals", wds)
}

func (h *LedgerHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := h.reviewerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}
	wd, err := h.withdrawals.Approve(r.Context(), id, reviewerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "withdrawal approved", wd)
}

func (h *LedgerHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := h.reviewerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}
	var req rejectRequest
	if !h.decode(w, r, &req) {
		return
	}
	wd, err := h.withdrawals.Reject(r.Context(), id, reviewerID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "withdrawal rejected", wd)
}

func (h *LedgerHandler) GetPolicies(w http.ResponseWriter, r *http.Request) {
	values, err := h.policies.Values(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "policies", values)
}

func (h *LedgerHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.reviewerID(w, r)
	if !ok {
		return
	}
	var req setPolicyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.policies.SetPolicy(r.Context(), actorID, req.Key, req.Value); err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "policy updated", map[string]string{req.Key: req.Value})
}

func (h *LedgerHandler) ListAuditRecords(w http.ResponseWriter, r *http.Request) {
	entityType := domain.AuditEntityType(r.URL.Query().Get("entity_type"))
	entityID := r.URL.Query().Get("entity_id")
	records, err := h.audits.List(r.Context(), entityType, entityID, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, "audit records", records)
}
