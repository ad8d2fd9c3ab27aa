package usecase

import (
	"context"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
)

// AuditUsecase is the read side of the audit trail; writes happen inside
// the mutating use cases' transactions.
type AuditUsecase struct {
	auditRepo repository.AuditRepository
}

func NewAuditUsecase(auditRepo repository.AuditRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

func (uc *AuditUsecase) List(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]*domain.AuditRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return uc.auditRepo.List(ctx, entityType, entityID, limit, offset)
}
