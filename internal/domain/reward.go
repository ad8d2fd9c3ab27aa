package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardChannel distinguishes the two per-day claim tables.
type RewardChannel string

const (
	RewardChannelDaily  RewardChannel = "daily"
	RewardChannelRandom RewardChannel = "random"
)

// RewardClaim is one claim row. ClaimDate is the UTC calendar day key;
// the storage layer enforces uniqueness on (account_id, claim_date).
type RewardClaim struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	AccountID int64           `json:"account_id"`
	ClaimDate string          `json:"claim_date"` // "2006-01-02", UTC
	Amount    decimal.Decimal `json:"amount"`
	ClaimedAt time.Time       `json:"claimed_at"`
}

// DailyRewardStatus is the eligibility answer for the daily reward.
type DailyRewardStatus struct {
	Eligible    bool            `json:"eligible"`
	Amount      decimal.Decimal `json:"amount"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	Tier        int             `json:"tier"`
	BaseBalance decimal.Decimal `json:"base_balance"`
	ClaimedAt   *time.Time      `json:"claimed_at,omitempty"`
	ResetAt     time.Time       `json:"reset_at"` // next UTC midnight
}

// RandomRewardStatus is the eligibility answer for the daily random draw.
// Won and Amount are deterministic per (account, UTC day): checking the
// status and claiming always agree on the outcome.
type RandomRewardStatus struct {
	Enabled   bool            `json:"enabled"`
	Won       bool            `json:"won"`
	Amount    decimal.Decimal `json:"amount"`
	Claimed   bool            `json:"claimed"`
	ClaimedAt *time.Time      `json:"claimed_at,omitempty"`
	ResetAt   time.Time       `json:"reset_at"`
}

// DayKey formats t as the UTC calendar day used to partition claims.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NextUTCMidnight returns the instant the current claim day rolls over.
func NextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
