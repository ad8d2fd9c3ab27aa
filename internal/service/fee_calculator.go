package service

import (
	"time"

	"ledger-service/internal/domain"

	"github.com/shopspring/decimal"
)

// WithdrawalFeeCalculator derives the fee tier for a withdrawal from the
// account's deposit and withdrawal history. It is pure: the eligibility
// dry run and the submission path call the same function with the same
// clock and must agree on the tier.
type WithdrawalFeeCalculator struct{}

func NewWithdrawalFeeCalculator() *WithdrawalFeeCalculator {
	return &WithdrawalFeeCalculator{}
}

// TierResult is the outcome of resolving the fee tier at a point in time.
type TierResult struct {
	Locked   bool
	UnlockAt *time.Time
	Tier     domain.FeeTier
	FeePct   decimal.Decimal
}

// ResolveTier applies the time-window rules:
//
//  1. no approved deposit yet -> locked, no unlock date
//  2. fewer than lockDays since the first approved deposit -> locked until
//     firstDepositAt + lockDays
//  3. no prior approved withdrawal -> monthly tier (a first withdrawal
//     after the lock period is treated as mature regardless of recency)
//  4. otherwise monthly if at least thresholdDays since the last approved
//     withdrawal, weekly if fewer
//
// Day counts are floored whole days, so the lock lifts exactly at the
// lockDays boundary.
func (c *WithdrawalFeeCalculator) ResolveTier(
	now time.Time,
	firstDepositAt *time.Time,
	lastWithdrawalAt *time.Time,
	policy domain.PolicySnapshot,
) TierResult {
	if firstDepositAt == nil {
		return TierResult{Locked: true}
	}

	daysSinceFirstDeposit := wholeDaysBetween(*firstDepositAt, now)
	if daysSinceFirstDeposit < policy.WithdrawLockDays {
		unlockAt := firstDepositAt.UTC().AddDate(0, 0, policy.WithdrawLockDays)
		return TierResult{Locked: true, UnlockAt: &unlockAt}
	}

	if lastWithdrawalAt == nil {
		return TierResult{Tier: domain.FeeTierMonthly, FeePct: policy.WithdrawMonthlyFeePct}
	}

	daysSinceLastWithdrawal := wholeDaysBetween(*lastWithdrawalAt, now)
	if daysSinceLastWithdrawal >= policy.WithdrawMonthlyThresholdDays {
		return TierResult{Tier: domain.FeeTierMonthly, FeePct: policy.WithdrawMonthlyFeePct}
	}
	return TierResult{Tier: domain.FeeTierWeekly, FeePct: policy.WithdrawWeeklyFeePct}
}

// Quote computes the fee breakdown for a given amount at a resolved tier.
func (c *WithdrawalFeeCalculator) Quote(amount decimal.Decimal, tier TierResult) (feeAmount, netAmount decimal.Decimal) {
	feeAmount = amount.Mul(tier.FeePct).Div(decimal.NewFromInt(100))
	netAmount = amount.Sub(feeAmount)
	return feeAmount, netAmount
}

// wholeDaysBetween floors the elapsed time from a to b to whole days.
// Negative spans clamp to zero.
func wholeDaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
