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

type WithdrawalRepository interface {
	Create(ctx context.Context, create *domain.WithdrawalCreate) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Withdrawal, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Withdrawal, error)
	ListPending(ctx context.Context, limit, offset int) ([]*domain.Withdrawal, error)
	MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
		reviewer int64, reviewedAt time.Time, effectiveAt *time.Time) error
}

type withdrawalRepo struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepo(db *pgxpool.Pool) WithdrawalRepository {
	return &withdrawalRepo{db: db}
}

const withdrawalColumns = `
	id, reference, account_id, amount, fee_tier, fee_pct, fee_amount, net_amount,
	address, status, reviewed_by, reviewed_at, effective_at, created_at
`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(
		&w.ID,
		&w.Reference,
		&w.AccountID,
		&w.Amount,
		&w.FeeTier,
		&w.FeePct,
		&w.FeeAmount,
		&w.NetAmount,
		&w.Address,
		&w.Status,
		&w.ReviewedBy,
		&w.ReviewedAt,
		&w.EffectiveAt,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
	}
	return &w, nil
}

func (r *withdrawalRepo) Create(ctx context.Context, create *domain.WithdrawalCreate) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (
			reference, account_id, amount, fee_tier, fee_pct, fee_amount,
			net_amount, address, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + withdrawalColumns
	return scanWithdrawal(r.db.QueryRow(ctx, query,
		create.Reference,
		create.AccountID,
		create.Amount,
		create.FeeTier,
		create.FeePct,
		create.FeeAmount,
		create.NetAmount,
		create.Address,
		domain.StatusPending,
	))
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`
	return scanWithdrawal(r.db.QueryRow(ctx, query, id))
}

func (r *withdrawalRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1 FOR UPDATE`
	return scanWithdrawal(tx.QueryRow(ctx, query, id))
}

func (r *withdrawalRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func (r *withdrawalRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, accountID, limit, offset)
}

func (r *withdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, domain.StatusPending, limit, offset)
}

func (r *withdrawalRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
	reviewer int64, reviewedAt time.Time, effectiveAt *time.Time) error {

	query := `
		UPDATE withdrawals
		SET status = $2, reviewed_by = $3, reviewed_at = $4, effective_at = $5
		WHERE id = $1 AND status = $6
	`
	tag, err := tx.Exec(ctx, query, id, status, reviewer, reviewedAt, effectiveAt, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to review withdrawal %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotPending
	}
	return nil
}
