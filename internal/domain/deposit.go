package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewStatus is the lifecycle of a deposit or withdrawal entry.
// PENDING is the only state a review action may leave from; APPROVED and
// REJECTED are terminal.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// Deposit represents a user deposit awaiting or past admin review.
type Deposit struct {
	ID           int64              `json:"id"`
	Reference    string             `json:"reference"`
	AccountID    int64              `json:"account_id"`
	Amount       decimal.Decimal    `json:"amount"`
	Status       ReviewStatus       `json:"status"`
	RewardAmount decimal.Decimal    `json:"reward_amount"`
	RewardMeta   *DepositRewardMeta `json:"reward_meta,omitempty"`
	ReviewedBy   *int64             `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time         `json:"reviewed_at,omitempty"`
	EffectiveAt  *time.Time         `json:"effective_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// DepositRewardMeta records the deposit-triggered random reward decision
// for later display. Persisted as JSON alongside the deposit row.
type DepositRewardMeta struct {
	ChancePct decimal.Decimal `json:"chance_pct"`
	BonusPct  decimal.Decimal `json:"bonus_pct"`
	Applied   bool            `json:"applied"`
}

// DepositCreate is the payload for a new pending deposit.
type DepositCreate struct {
	Reference string
	AccountID int64
	Amount    decimal.Decimal
}
