package repository

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyRepository holds the named key/value configuration the engine
// reads. Values are admin-mutated strings; typed parsing happens in the
// policy usecase.
type PolicyRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)

	// Set runs inside the caller's transaction so the change and its
	// audit record commit together.
	Set(ctx context.Context, tx pgx.Tx, key, value string) error
}

type policyRepo struct {
	db *pgxpool.Pool
}

func NewPolicyRepo(db *pgxpool.Pool) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM policies WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", xerrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get policy %s: %w", key, err)
	}
	return value, nil
}

func (r *policyRepo) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM policies`)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (r *policyRepo) Set(ctx context.Context, tx pgx.Tx, key, value string) error {
	query := `
		INSERT INTO policies (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set policy %s: %w", key, err)
	}
	return nil
}
