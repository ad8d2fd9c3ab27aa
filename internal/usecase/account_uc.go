package usecase

import (
	"context"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
	"ledger-service/internal/repository"

	"go.uber.org/zap"
)

// AccountUsecase provisions ledger accounts and serves the balance view.
// Account identity lives in the user service; the ledger only mirrors the
// ID and the optional referrer link.
type AccountUsecase struct {
	accountRepo repository.AccountRepository
	logger      *zap.Logger
}

func NewAccountUsecase(accountRepo repository.AccountRepository, logger *zap.Logger) *AccountUsecase {
	return &AccountUsecase{accountRepo: accountRepo, logger: logger}
}

// Register creates the ledger row for an account. Idempotent: registering
// an existing account is a no-op and never rewrites invited_by.
func (uc *AccountUsecase) Register(ctx context.Context, accountID int64, invitedBy *int64) (*domain.Account, error) {
	if accountID <= 0 {
		return nil, xerrors.ErrInvalidInput
	}
	if invitedBy != nil {
		if *invitedBy == accountID {
			return nil, xerrors.ErrInvalidInput
		}
		if _, err := uc.accountRepo.GetByID(ctx, *invitedBy); err != nil {
			return nil, err
		}
	}

	if err := uc.accountRepo.Create(ctx, accountID, invitedBy); err != nil {
		return nil, err
	}

	uc.logger.Info("account registered", zap.Int64("account_id", accountID))
	return uc.accountRepo.GetByID(ctx, accountID)
}

// Get returns the account's balances and markers.
func (uc *AccountUsecase) Get(ctx context.Context, accountID int64) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, accountID)
}
