package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeTier is the withdrawal fee band derived from elapsed time since the
// account's first approved deposit and last approved withdrawal.
type FeeTier string

const (
	FeeTierWeekly  FeeTier = "weekly"
	FeeTierMonthly FeeTier = "monthly"
)

// Withdrawal represents a withdrawal request. Fee fields are snapshotted
// at submission time and never recomputed — a withdrawal's fee is fixed
// when the user submits it, which keeps the audit trail honest even if
// policy changes before review.
type Withdrawal struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	FeeTier     FeeTier         `json:"fee_tier"`
	FeePct      decimal.Decimal `json:"fee_pct"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	Address     string          `json:"address"`
	Status      ReviewStatus    `json:"status"`
	ReviewedBy  *int64          `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
	EffectiveAt *time.Time      `json:"effective_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WithdrawalCreate is the payload for a new pending withdrawal with its
// fee snapshot already computed.
type WithdrawalCreate struct {
	Reference string
	AccountID int64
	Amount    decimal.Decimal
	FeeTier   FeeTier
	FeePct    decimal.Decimal
	FeeAmount decimal.Decimal
	NetAmount decimal.Decimal
	Address   string
}

// WithdrawalEligibility is the dry-run answer for "can this account
// withdraw right now, and at which fee tier".
type WithdrawalEligibility struct {
	Eligible  bool            `json:"eligible"`
	UnlockAt  *time.Time      `json:"unlock_at,omitempty"`
	FeeTier   FeeTier         `json:"fee_tier,omitempty"`
	FeePct    decimal.Decimal `json:"fee_pct"`
	MinAmount decimal.Decimal `json:"min_amount"`
}
