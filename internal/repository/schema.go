package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the ledger tables when they do not exist yet. The
// unique index on (account_id, claim_date) is what enforces the single
// claim per UTC day, so it lives here next to the tables.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT PRIMARY KEY,
			balance NUMERIC(30, 10) NOT NULL DEFAULT 0,
			base_balance NUMERIC(30, 10) NOT NULL DEFAULT 0,
			first_deposit_at TIMESTAMPTZ,
			last_withdrawal_at TIMESTAMPTZ,
			invited_by BIGINT REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT accounts_balance_nonnegative CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS deposits (
			id BIGSERIAL PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			amount NUMERIC(30, 10) NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			reward_amount NUMERIC(30, 10) NOT NULL DEFAULT 0,
			reward_meta JSONB,
			reviewed_by BIGINT,
			reviewed_at TIMESTAMPTZ,
			effective_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_account ON deposits (account_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_pending ON deposits (created_at) WHERE status = 'pending'`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id BIGSERIAL PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			amount NUMERIC(30, 10) NOT NULL,
			fee_tier TEXT NOT NULL,
			fee_pct NUMERIC(10, 4) NOT NULL,
			fee_amount NUMERIC(30, 10) NOT NULL,
			net_amount NUMERIC(30, 10) NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			reviewed_by BIGINT,
			reviewed_at TIMESTAMPTZ,
			effective_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawals (account_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_pending ON withdrawals (created_at) WHERE status = 'pending'`,
		`CREATE TABLE IF NOT EXISTS daily_reward_claims (
			id BIGSERIAL PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			claim_date DATE NOT NULL,
			amount NUMERIC(30, 10) NOT NULL,
			claimed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT daily_reward_claims_one_per_day UNIQUE (account_id, claim_date)
		)`,
		`CREATE TABLE IF NOT EXISTS random_reward_claims (
			id BIGSERIAL PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			claim_date DATE NOT NULL,
			amount NUMERIC(30, 10) NOT NULL,
			claimed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT random_reward_claims_one_per_day UNIQUE (account_id, claim_date)
		)`,
		`CREATE TABLE IF NOT EXISTS referral_stats (
			account_id BIGINT PRIMARY KEY REFERENCES accounts(id),
			invited_count INT NOT NULL DEFAULT 0,
			tier INT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS referral_commissions (
			id BIGSERIAL PRIMARY KEY,
			referrer_id BIGINT NOT NULL REFERENCES accounts(id),
			referred_id BIGINT NOT NULL REFERENCES accounts(id),
			deposit_id BIGINT NOT NULL REFERENCES deposits(id),
			amount NUMERIC(30, 10) NOT NULL,
			rate NUMERIC(10, 4) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT referral_commissions_once_per_deposit UNIQUE (deposit_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			actor_id BIGINT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			before JSONB,
			after JSONB,
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_records (entity_type, entity_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS policies (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
