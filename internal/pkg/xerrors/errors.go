package xerrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidInput   = errors.New("invalid input provided")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Review / state machine
var (
	ErrNotPending          = errors.New("entry is not pending review")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Rewards
var (
	ErrAlreadyClaimedToday = errors.New("reward already claimed today")
	ErrNoBaseBalance       = errors.New("no deposit principal to earn rewards on")
	ErrRewardDisabled      = errors.New("reward is disabled")
	ErrRewardNotWon        = errors.New("no reward won today")
)

// Withdrawals
var (
	ErrWithdrawalLocked = errors.New("withdrawals are locked for this account")
	ErrAmountTooSmall   = errors.New("amount is below the allowed minimum")
)

// LockedError carries the unlock date for a time-locked withdrawal.
// Matches ErrWithdrawalLocked via errors.Is. UnlockAt is nil when the
// account has no approved deposit yet and the lock is open-ended.
type LockedError struct {
	UnlockAt *time.Time
}

func (e *LockedError) Error() string {
	if e.UnlockAt == nil {
		return ErrWithdrawalLocked.Error()
	}
	return fmt.Sprintf("withdrawals locked until %s", e.UnlockAt.UTC().Format("2006-01-02"))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrWithdrawalLocked
}

// ParsePGErrorCode extracts the postgres error code from a pgx error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation. Claim repositories translate this into ErrAlreadyClaimedToday.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == "23505"
}
