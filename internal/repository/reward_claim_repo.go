package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardClaimRepository covers both per-day claim tables. Each has a
// unique constraint on (account_id, claim_date): the idempotency invariant
// lives in the schema, not in application logic.
type RewardClaimRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, channel domain.RewardChannel, claim *domain.RewardClaim) error
	GetByDay(ctx context.Context, channel domain.RewardChannel, accountID int64, dateKey string) (*domain.RewardClaim, error)
	ListByAccount(ctx context.Context, channel domain.RewardChannel, accountID int64, limit, offset int) ([]*domain.RewardClaim, error)
}

type rewardClaimRepo struct {
	db *pgxpool.Pool
}

func NewRewardClaimRepo(db *pgxpool.Pool) RewardClaimRepository {
	return &rewardClaimRepo{db: db}
}

func claimTable(channel domain.RewardChannel) string {
	if channel == domain.RewardChannelRandom {
		return "random_reward_claims"
	}
	return "daily_reward_claims"
}

const claimColumns = `id, reference, account_id, claim_date, amount, claimed_at`

func scanClaim(row pgx.Row) (*domain.RewardClaim, error) {
	var (
		c         domain.RewardClaim
		claimDate time.Time
	)
	err := row.Scan(
		&c.ID,
		&c.Reference,
		&c.AccountID,
		&claimDate,
		&c.Amount,
		&c.ClaimedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan reward claim: %w", err)
	}
	c.ClaimDate = claimDate.Format("2006-01-02")
	return &c, nil
}

// Insert writes the claim row inside the caller's transaction. A unique
// violation means another request won the day; it surfaces as
// ErrAlreadyClaimedToday, never as a raw storage error.
func (r *rewardClaimRepo) Insert(ctx context.Context, tx pgx.Tx, channel domain.RewardChannel, claim *domain.RewardClaim) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (reference, account_id, claim_date, amount, claimed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, claimTable(channel))

	err := tx.QueryRow(ctx, query,
		claim.Reference,
		claim.AccountID,
		claim.ClaimDate,
		claim.Amount,
		claim.ClaimedAt,
	).Scan(&claim.ID)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return xerrors.ErrAlreadyClaimedToday
		}
		return fmt.Errorf("failed to insert %s reward claim: %w", channel, err)
	}
	return nil
}

func (r *rewardClaimRepo) GetByDay(ctx context.Context, channel domain.RewardChannel, accountID int64, dateKey string) (*domain.RewardClaim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND claim_date = $2
	`, claimColumns, claimTable(channel))
	return scanClaim(r.db.QueryRow(ctx, query, accountID, dateKey))
}

func (r *rewardClaimRepo) ListByAccount(ctx context.Context, channel domain.RewardChannel, accountID int64, limit, offset int) ([]*domain.RewardClaim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1
		ORDER BY claim_date DESC
		LIMIT $2 OFFSET $3
	`, claimColumns, claimTable(channel))

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s reward claims: %w", channel, err)
	}
	defer rows.Close()

	var claims []*domain.RewardClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
