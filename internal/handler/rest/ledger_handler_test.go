package rest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledger-service/internal/pkg/xerrors"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	h := &LedgerHandler{logger: zap.NewNop()}
	unlockAt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", xerrors.ErrInvalidInput, http.StatusBadRequest},
		{"amount too small", xerrors.ErrAmountTooSmall, http.StatusBadRequest},
		{"no base balance", xerrors.ErrNoBaseBalance, http.StatusBadRequest},
		{"reward not won", xerrors.ErrRewardNotWon, http.StatusBadRequest},
		{"unauthorized", xerrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", xerrors.ErrForbidden, http.StatusForbidden},
		{"reward disabled", xerrors.ErrRewardDisabled, http.StatusForbidden},
		{"not found", xerrors.ErrNotFound, http.StatusNotFound},
		{"not pending", xerrors.ErrNotPending, http.StatusConflict},
		{"already claimed", xerrors.ErrAlreadyClaimedToday, http.StatusConflict},
		{"insufficient balance", xerrors.ErrInsufficientBalance, http.StatusConflict},
		{"locked bare", xerrors.ErrWithdrawalLocked, http.StatusLocked},
		{"locked with date", &xerrors.LockedError{UnlockAt: &unlockAt}, http.StatusLocked},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, tt.err)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

// Unknown errors surface the generic sentinel, never their own text.
func TestWriteErrorHidesInternalDetail(t *testing.T) {
	h := &LedgerHandler{logger: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.writeError(rec, errors.New("pq: connection reset"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), xerrors.ErrInternalServer.Error())
	require.NotContains(t, rec.Body.String(), "connection reset")
}
