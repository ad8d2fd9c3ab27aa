package repository

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository interface {
	// CountConfirmedInvites counts accounts invited by referrerID that
	// have at least one approved deposit. Runs inside the caller's
	// transaction when the count feeds a write.
	CountConfirmedInvites(ctx context.Context, tx pgx.Tx, referrerID int64) (int, error)

	UpsertStats(ctx context.Context, tx pgx.Tx, stats *domain.ReferralStats) error
	GetStats(ctx context.Context, accountID int64) (*domain.ReferralStats, error)

	InsertCommission(ctx context.Context, tx pgx.Tx, commission *domain.ReferralCommission) error
	ListCommissions(ctx context.Context, referrerID int64, limit, offset int) ([]*domain.ReferralCommission, error)
}

type referralRepo struct {
	db *pgxpool.Pool
}

func NewReferralRepo(db *pgxpool.Pool) ReferralRepository {
	return &referralRepo{db: db}
}

func (r *referralRepo) CountConfirmedInvites(ctx context.Context, tx pgx.Tx, referrerID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM accounts a
		WHERE a.invited_by = $1
		AND EXISTS (
			SELECT 1 FROM deposits d
			WHERE d.account_id = a.id AND d.status = $2
		)
	`
	var count int
	if err := tx.QueryRow(ctx, query, referrerID, domain.StatusApproved).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed invites: %w", err)
	}
	return count, nil
}

func (r *referralRepo) UpsertStats(ctx context.Context, tx pgx.Tx, stats *domain.ReferralStats) error {
	query := `
		INSERT INTO referral_stats (account_id, invited_count, tier, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET invited_count = EXCLUDED.invited_count,
		    tier = EXCLUDED.tier,
		    updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, stats.AccountID, stats.InvitedCount, stats.Tier); err != nil {
		return fmt.Errorf("failed to upsert referral stats: %w", err)
	}
	return nil
}

func (r *referralRepo) GetStats(ctx context.Context, accountID int64) (*domain.ReferralStats, error) {
	query := `
		SELECT account_id, invited_count, tier, updated_at
		FROM referral_stats
		WHERE account_id = $1
	`
	var stats domain.ReferralStats
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&stats.AccountID,
		&stats.InvitedCount,
		&stats.Tier,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}
	return &stats, nil
}

func (r *referralRepo) InsertCommission(ctx context.Context, tx pgx.Tx, commission *domain.ReferralCommission) error {
	query := `
		INSERT INTO referral_commissions (referrer_id, referred_id, deposit_id, amount, rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query,
		commission.ReferrerID,
		commission.ReferredID,
		commission.DepositID,
		commission.Amount,
		commission.Rate,
		commission.CreatedAt,
	).Scan(&commission.ID)
	if err != nil {
		return fmt.Errorf("failed to insert referral commission: %w", err)
	}
	return nil
}

func (r *referralRepo) ListCommissions(ctx context.Context, referrerID int64, limit, offset int) ([]*domain.ReferralCommission, error) {
	query := `
		SELECT id, referrer_id, referred_id, deposit_id, amount, rate, created_at
		FROM referral_commissions
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, referrerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral commissions: %w", err)
	}
	defer rows.Close()

	var commissions []*domain.ReferralCommission
	for rows.Next() {
		var c domain.ReferralCommission
		if err := rows.Scan(&c.ID, &c.ReferrerID, &c.ReferredID, &c.DepositID, &c.Amount, &c.Rate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan referral commission: %w", err)
		}
		commissions = append(commissions, &c)
	}
	return commissions, rows.Err()
}
