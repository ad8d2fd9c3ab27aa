package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ledger-service/internal/middleware"
	"ledger-service/internal/pkg/response"
	"ledger-service/internal/pkg/xerrors"
	"ledger-service/internal/usecase"
)

// LedgerHandler exposes the REST surface of the ledger service.
type LedgerHandler struct {
	accounts     *usecase.AccountUsecase
	deposits     *usecase.DepositUsecase
	withdrawals  *usecase.WithdrawalUsecase
	dailyRewards *usecase.DailyRewardUsecase
	randomReward *usecase.RandomRewardUsecase
	referrals    *usecase.ReferralUsecase
	policies     *usecase.PolicyUsecase
	audits       *usecase.AuditUsecase
	logger       *zap.Logger
}

func NewLedgerHandler(
	accounts *usecase.AccountUsecase,
	deposits *usecase.DepositUsecase,
	withdrawals *usecase.WithdrawalUsecase,
	dailyRewards *usecase.DailyRewardUsecase,
	randomReward *usecase.RandomRewardUsecase,
	referrals *usecase.ReferralUsecase,
	policies *usecase.PolicyUsecase,
	audits *usecase.AuditUsecase,
	logger *zap.Logger,
) *LedgerHandler {
	return &LedgerHandler{
		accounts:     accounts,
		deposits:     deposits,
		withdrawals:  withdrawals,
		dailyRewards: dailyRewards,
		randomReward: randomReward,
		referrals:    referrals,
		policies:     policies,
		audits:       audits,
		logger:       logger,
	}
}

func (h *LedgerHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, "ledger service healthy", nil)
}

// accountID pulls the authenticated account from the request context.
func (h *LedgerHandler) accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing authentication")
		return 0, false
	}
	return id, true
}

func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and surfaced as a generic 500.
func (h *LedgerHandler) writeError(w http.ResponseWriter, err error) {
	var locked *xerrors.LockedError
	switch {
	case errors.As(err, &locked):
		response.Error(w, http.StatusLocked, locked.Error())
	case errors.Is(err, xerrors.ErrInvalidInput),
		errors.Is(err, xerrors.ErrAmountTooSmall),
		errors.Is(err, xerrors.ErrNoBaseBalance),
		errors.Is(err, xerrors.ErrRewardNotWon):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, xerrors.ErrForbidden),
		errors.Is(err, xerrors.ErrRewardDisabled):
		response.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrNotPending),
		errors.Is(err, xerrors.ErrAlreadyClaimedToday),
		errors.Is(err, xerrors.ErrInsufficientBalance):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, xerrors.ErrWithdrawalLocked):
		response.Error(w, http.StatusLocked, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, xerrors.ErrInternalServer.Error())
	}
}
