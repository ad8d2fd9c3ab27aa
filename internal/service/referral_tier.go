package service

import (
	"github.com/shopspring/decimal"
)

// Referral tiers are a pure function of the confirmed invite count:
// accounts the user invited that have at least one approved deposit.

// Tier returns 3 for >=10 confirmed invites, 2 for >=5, else 1.
func Tier(invitedCount int) int {
	switch {
	case invitedCount >= 10:
		return 3
	case invitedCount >= 5:
		return 2
	default:
		return 1
	}
}

// CommissionRate returns the one-time first-deposit commission percentage
// for a tier. The cascade always pays at the tier-1 rate; higher tiers
// affect the daily reward rate, not this commission.
func CommissionRate(tier int) decimal.Decimal {
	switch {
	case tier >= 3:
		return decimal.NewFromInt(10)
	case tier == 2:
		return decimal.NewFromInt(7)
	default:
		return decimal.NewFromInt(5)
	}
}

// BaseCommissionRate is the tier-1 rate used for the first-deposit payout.
func BaseCommissionRate() decimal.Decimal {
	return CommissionRate(1)
}
