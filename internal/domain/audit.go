package domain

import (
	"time"
)

// AuditEntityType names the entity an audit record is about.
type AuditEntityType string

const (
	AuditEntityDeposit            AuditEntityType = "deposit"
	AuditEntityWithdrawal         AuditEntityType = "withdrawal"
	AuditEntityRewardClaim        AuditEntityType = "reward_claim"
	AuditEntityReferralCommission AuditEntityType = "referral_commission"
	AuditEntityPolicy             AuditEntityType = "policy"
)

// AuditRecord is an immutable before/after snapshot of a state change,
// appended inside the same transaction as the change itself.
type AuditRecord struct {
	ID         string                 `json:"id"`
	ActorID    int64                  `json:"actor_id"`
	EntityType AuditEntityType        `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
