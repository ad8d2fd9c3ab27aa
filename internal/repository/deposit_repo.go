package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type DepositRepository interface {
	Create(ctx context.Context, create *domain.DepositCreate) (*domain.Deposit, error)
	GetByID(ctx context.Context, id int64) (*domain.Deposit, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Deposit, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Deposit, error)
	ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, error)

	// MarkReviewed flips a pending deposit to its terminal status. The
	// status guard is part of the UPDATE predicate; zero affected rows
	// means the entry was already reviewed.
	MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
		reviewer int64, reviewedAt time.Time, effectiveAt *time.Time,
		rewardAmount decimal.Decimal, rewardMeta *domain.DepositRewardMeta) error

	// CountApprovedExcluding counts the account's approved deposits other
	// than the given one. Called inside the approval transaction so the
	// first-deposit referral cascade cannot fire twice.
	CountApprovedExcluding(ctx context.Context, tx pgx.Tx, accountID, excludeID int64) (int, error)
}

type depositRepo struct {
	db *pgxpool.Pool
}

func NewDepositRepo(db *pgxpool.Pool) DepositRepository {
	return &depositRepo{db: db}
}

const depositColumns = `
	id, reference, account_id, amount, status, reward_amount, reward_meta,
	reviewed_by, reviewed_at, effective_at, created_at
`

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var (
		d        domain.Deposit
		metaJSON []byte
	)
	err := row.Scan(
		&d.ID,
		&d.Reference,
		&d.AccountID,
		&d.Amount,
		&d.Status,
		&d.RewardAmount,
		&metaJSON,
		&d.ReviewedBy,
		&d.ReviewedAt,
		&d.EffectiveAt,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan deposit: %w", err)
	}
	if len(metaJSON) > 0 {
		var meta domain.DepositRewardMeta
		if err := json.Unmarshal(metaJSON, &meta); err == nil {
			d.RewardMeta = &meta
		}
	}
	return &d, nil
}

func (r *depositRepo) Create(ctx context.Context, create *domain.DepositCreate) (*domain.Deposit, error) {
	query := `
		INSERT INTO deposits (reference, account_id, amount, status, reward_amount, created_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		RETURNING ` + depositColumns
	return scanDeposit(r.db.QueryRow(ctx, query,
		create.Reference,
		create.AccountID,
		create.Amount,
		domain.StatusPending,
	))
}

func (r *depositRepo) GetByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`
	return scanDeposit(r.db.QueryRow(ctx, query, id))
}

func (r *depositRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1 FOR UPDATE`
	return scanDeposit(tx.QueryRow(ctx, query, id))
}

func (r *depositRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Deposit, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func (r *depositRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Deposit, error) {
	query := `
		SELECT ` + depositColumns + `
		FROM deposits
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, accountID, limit, offset)
}

func (r *depositRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, error) {
	query := `
		SELECT ` + depositColumns + `
		FROM deposits
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, domain.StatusPending, limit, offset)
}

func (r *depositRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
	reviewer int64, reviewedAt time.Time, effectiveAt *time.Time,
	rewardAmount decimal.Decimal, rewardMeta *domain.DepositRewardMeta) error {

	var metaJSON []byte
	if rewardMeta != nil {
		metaJSON, _ = json.Marshal(rewardMeta)
	}

	query := `
		UPDATE deposits
		SET status = $2, reviewed_by = $3, reviewed_at = $4, effective_at = $5,
		    reward_amount = $6, reward_meta = $7
		WHERE id = $1 AND status = $8
	`
	tag, err := tx.Exec(ctx, query, id, status, reviewer, reviewedAt, effectiveAt,
		rewardAmount, metaJSON, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to review deposit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotPending
	}
	return nil
}

func (r *depositRepo) CountApprovedExcluding(ctx context.Context, tx pgx.Tx, accountID, excludeID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM deposits
		WHERE account_id = $1 AND status = $2 AND id <> $3
	`
	var count int
	if err := tx.QueryRow(ctx, query, accountID, domain.StatusApproved, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count approved deposits: %w", err)
	}
	return count, nil
}
