package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralStats tracks the confirmed referral count and the tier derived
// from it. Tier is always recomputed from InvitedCount, never hand-edited.
type ReferralStats struct {
	AccountID    int64     `json:"account_id"`
	InvitedCount int       `json:"invited_count"`
	Tier         int       `json:"tier"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReferralCommission is the one-time commission paid to a referrer when a
// referred account's first deposit is approved.
type ReferralCommission struct {
	ID         int64           `json:"id"`
	ReferrerID int64           `json:"referrer_id"`
	ReferredID int64           `json:"referred_id"`
	DepositID  int64           `json:"deposit_id"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	CreatedAt  time.Time       `json:"created_at"`
}
