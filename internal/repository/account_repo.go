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
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error)
	Create(ctx context.Context, id int64, invitedBy *int64) error

	// Balance mutations. Always called inside a transaction.
	Credit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error
	Debit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error
	AddBasePrincipal(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error

	// Temporal markers.
	SetFirstDepositAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error
	SetLastWithdrawalAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `
	id, balance, base_balance, first_deposit_at, last_withdrawal_at,
	invited_by, created_at, updated_at
`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.ID,
		&acc.Balance,
		&acc.BaseBalance,
		&acc.FirstDepositAt,
		&acc.LastWithdrawalAt,
		&acc.InvitedBy,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acc, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// GetForUpdate locks the account row for the remainder of the transaction.
// Every approval and claim path locks the account first, so concurrent
// mutations of one balance serialize at the storage layer.
func (r *accountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, id))
}

func (r *accountRepo) Create(ctx context.Context, id int64, invitedBy *int64) error {
	query := `
		INSERT INTO accounts (id, balance, base_balance, invited_by, created_at, updated_at)
		VALUES ($1, 0, 0, $2, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, id, invitedBy); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepo) Credit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// Debit fails closed: the balance guard lives in the SQL predicate, so a
// concurrent debit can never push the balance below zero.
func (r *accountRepo) Debit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
	`
	tag, err := tx.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrInsufficientBalance
	}
	return nil
}

func (r *accountRepo) AddBasePrincipal(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET base_balance = base_balance + $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to update base principal for account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// SetFirstDepositAt only writes when the marker is still unset; the first
// approved deposit wins and later approvals leave it alone.
func (r *accountRepo) SetFirstDepositAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error {
	query := `
		UPDATE accounts
		SET first_deposit_at = $2, updated_at = NOW()
		WHERE id = $1 AND first_deposit_at IS NULL
	`
	if _, err := tx.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to set first deposit marker for account %d: %w", id, err)
	}
	return nil
}

func (r *accountRepo) SetLastWithdrawalAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error {
	query := `
		UPDATE accounts
		SET last_withdrawal_at = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to set last withdrawal marker for account %d: %w", id, err)
	}
	return nil
}
