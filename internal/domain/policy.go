package domain

import (
	"github.com/shopspring/decimal"
)

// Policy keys. These are the admin-mutated configuration names; the values
// live in the policies table and are read through PolicySnapshot.
const (
	PolicyDepositFeePct               = "depositFeePct"
	PolicyMinDepositAmount            = "minDepositAmount"
	PolicyMinWithdrawalAmount         = "minWithdrawalAmount"
	PolicyWithdrawFirstMinDays        = "withdrawFirstMinDays"
	PolicyWithdrawWeeklyFeePct        = "withdrawWeeklyFeePct"
	PolicyWithdrawMonthlyFeePct       = "withdrawMonthlyFeePct"
	PolicyWithdrawMonthlyThresholdDay = "withdrawMonthlyThresholdDays"
	PolicyBaseMonthlyRate             = "baseMonthlyRate"
	PolicyTier5Rate                   = "tier5Rate"
	PolicyTier10Rate                  = "tier10Rate"
	PolicyRandomRewardEnabled         = "randomRewardEnabled"
	PolicyRandomRewardChancePct       = "randomRewardChancePct"
	PolicyRandomRewardBonusPct        = "randomRewardBonusPct"
	PolicyRandomRewardWinRatePct      = "randomRewardWinRatePct"
	PolicyRandomRewardMinAmount       = "randomRewardMinAmount"
	PolicyRandomRewardMaxAmount       = "randomRewardMaxAmount"
)

// PolicySnapshot is one consistent view of all engine configuration,
// fetched once per operation so the decision and the write see the same
// policy values.
type PolicySnapshot struct {
	DepositFeePct       decimal.Decimal
	MinDepositAmount    decimal.Decimal
	MinWithdrawalAmount decimal.Decimal

	WithdrawLockDays             int
	WithdrawWeeklyFeePct         decimal.Decimal
	WithdrawMonthlyFeePct        decimal.Decimal
	WithdrawMonthlyThresholdDays int

	BaseMonthlyRate decimal.Decimal
	Tier5Rate       decimal.Decimal
	Tier10Rate      decimal.Decimal

	RandomRewardEnabled    bool
	RandomRewardChancePct  decimal.Decimal // deposit-triggered channel
	RandomRewardBonusPct   decimal.Decimal
	RandomRewardWinRatePct decimal.Decimal // daily claim channel
	RandomRewardMinAmount  decimal.Decimal
	RandomRewardMaxAmount  decimal.Decimal
}

// DefaultPolicySnapshot returns the engine defaults applied when a key has
// never been set by an admin.
func DefaultPolicySnapshot() PolicySnapshot {
	return PolicySnapshot{
		DepositFeePct:       decimal.Zero,
		MinDepositAmount:    decimal.NewFromInt(10),
		MinWithdrawalAmount: decimal.NewFromInt(10),

		WithdrawLockDays:             45,
		WithdrawWeeklyFeePct:         decimal.NewFromInt(10),
		WithdrawMonthlyFeePct:        decimal.NewFromInt(5),
		WithdrawMonthlyThresholdDays: 30,

		BaseMonthlyRate: decimal.NewFromInt(25),
		Tier5Rate:       decimal.NewFromInt(30),
		Tier10Rate:      decimal.NewFromInt(35),

		RandomRewardEnabled:    true,
		RandomRewardChancePct:  decimal.NewFromInt(10),
		RandomRewardBonusPct:   decimal.NewFromInt(5),
		RandomRewardWinRatePct: decimal.NewFromInt(20),
		RandomRewardMinAmount:  decimal.NewFromInt(1),
		RandomRewardMaxAmount:  decimal.NewFromInt(10),
	}
}
