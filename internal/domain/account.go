package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account: one balance per user plus the
// temporal markers the fee and reward calculators depend on.
type Account struct {
	ID               int64           `json:"id"`
	Balance          decimal.Decimal `json:"balance"`
	BaseBalance      decimal.Decimal `json:"base_balance"` // cumulative approved deposit principal
	FirstDepositAt   *time.Time      `json:"first_deposit_at,omitempty"`
	LastWithdrawalAt *time.Time      `json:"last_withdrawal_at,omitempty"`
	InvitedBy        *int64          `json:"invited_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
