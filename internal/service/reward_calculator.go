package service

import (
	"ledger-service/internal/domain"

	"github.com/shopspring/decimal"
)

var thirty = decimal.NewFromInt(30)

// DailyRewardCalculator derives the per-day reward amount from the
// account's approved-deposit principal and its referral tier rate.
type DailyRewardCalculator struct{}

func NewDailyRewardCalculator() *DailyRewardCalculator {
	return &DailyRewardCalculator{}
}

// MonthlyRate maps a referral tier to its monthly percentage rate.
func (c *DailyRewardCalculator) MonthlyRate(tier int, policy domain.PolicySnapshot) decimal.Decimal {
	switch {
	case tier >= 3:
		return policy.Tier10Rate
	case tier == 2:
		return policy.Tier5Rate
	default:
		return policy.BaseMonthlyRate
	}
}

// DailyAmount computes baseBalance * monthlyRate% / 30. The result is kept
// unrounded; rounding is a display concern, not a ledger one.
func (c *DailyRewardCalculator) DailyAmount(baseBalance, monthlyRate decimal.Decimal) decimal.Decimal {
	return baseBalance.Mul(monthlyRate).Div(decimal.NewFromInt(100)).Div(thirty)
}
