package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository is append-only. Records land inside the same
// transaction as the mutation they describe.
type AuditRepository interface {
	Append(ctx context.Context, tx pgx.Tx, record *domain.AuditRecord) error
	List(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]*domain.AuditRecord, error)
}

type auditRepo struct {
	db *pgxpool.Pool
}

func NewAuditRepo(db *pgxpool.Pool) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, tx pgx.Tx, record *domain.AuditRecord) error {
	beforeJSON, _ := json.Marshal(record.Before)
	afterJSON, _ := json.Marshal(record.After)

	query := `
		INSERT INTO audit_records (id, actor_id, entity_type, entity_id, action, before, after, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, query,
		record.ID,
		record.ActorID,
		record.EntityType,
		record.EntityID,
		record.Action,
		beforeJSON,
		afterJSON,
		record.Reason,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]*domain.AuditRecord, error) {
	query := `
		SELECT id, actor_id, entity_type, entity_id, action, before, after, reason, created_at
		FROM audit_records
	`
	args := []interface{}{}
	where := ""
	if entityType != "" {
		where = ` WHERE entity_type = $1`
		args = append(args, entityType)
		if entityID != "" {
			where += ` AND entity_id = $2`
			args = append(args, entityID)
		}
	}
	query += where + fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*domain.AuditRecord
	for rows.Next() {
		rec, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanAuditRecord(row pgx.Row) (*domain.AuditRecord, error) {
	var (
		rec        domain.AuditRecord
		beforeJSON []byte
		afterJSON  []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.ActorID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.Action,
		&beforeJSON,
		&afterJSON,
		&rec.Reason,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit record: %w", err)
	}
	_ = json.Unmarshal(beforeJSON, &rec.Before)
	_ = json.Unmarshal(afterJSON, &rec.After)
	return &rec, nil
}
