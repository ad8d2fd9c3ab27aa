package usecase

import (
	"context"
	"errors"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
	publisher "ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/service"
	"ledger-service/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ReferralUsecase owns tier bookkeeping and the one-time first-deposit
// commission cascade. The cascade runs inside the deposit approval
// transaction, never as a separate commit.
type ReferralUsecase struct {
	referralRepo repository.ReferralRepository
	accountRepo  repository.AccountRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TxManager
	events       *publisher.LedgerEventPublisher
	refGen       *utils.ReferenceGenerator
	logger       *zap.Logger

	now func() time.Time
}

func NewReferralUsecase(
	referralRepo repository.ReferralRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *ReferralUsecase {
	return &ReferralUsecase{
		referralRepo: referralRepo,
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       events,
		refGen:       utils.NewReferenceGenerator(),
		logger:       logger,
		now:          time.Now,
	}
}

// GetStats returns the referral stats for an account, zero-valued when
// the account has no confirmed invites yet.
func (uc *ReferralUsecase) GetStats(ctx context.Context, accountID int64) (*domain.ReferralStats, error) {
	stats, err := uc.referralRepo.GetStats(ctx, accountID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return &domain.ReferralStats{AccountID: accountID, InvitedCount: 0, Tier: service.Tier(0)}, nil
		}
		return nil, err
	}
	return stats, nil
}

// ListCommissions returns the commissions paid to a referrer.
func (uc *ReferralUsecase) ListCommissions(ctx context.Context, referrerID int64, limit, offset int) ([]*domain.ReferralCommission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.referralRepo.ListCommissions(ctx, referrerID, limit, offset)
}

// UpdateUserTier recounts confirmed invites and upserts the derived tier.
func (uc *ReferralUsecase) UpdateUserTier(ctx context.Context, referrerID int64) (*domain.ReferralStats, error) {
	var stats *domain.ReferralStats
	err := uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		var err error
		stats, err = uc.refreshTier(ctx, tx, referrerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// refreshTier does the recount-and-upsert inside an existing transaction.
func (uc *ReferralUsecase) refreshTier(ctx context.Context, tx pgx.Tx, referrerID int64) (*domain.ReferralStats, error) {
	count, err := uc.referralRepo.CountConfirmedInvites(ctx, tx, referrerID)
	if err != nil {
		return nil, err
	}
	stats := &domain.ReferralStats{
		AccountID:    referrerID,
		InvitedCount: count,
		Tier:         service.Tier(count),
		UpdatedAt:    uc.now().UTC(),
	}
	if err := uc.referralRepo.UpsertStats(ctx, tx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// HandleFirstDepositApproved pays the referrer the one-time commission for
// a referred account's first approved deposit and refreshes the tier.
// Runs inside the deposit approval transaction: the caller has already
// verified this is the account's first approved deposit, under the same
// transaction, so the commission can never double-pay.
//
// The commission always uses the tier-1 rate. Higher tiers raise the daily
// reward rate, not this payout.
func (uc *ReferralUsecase) HandleFirstDepositApproved(ctx context.Context, tx pgx.Tx, referrerID int64, deposit *domain.Deposit) (*domain.ReferralCommission, error) {
	rate := service.BaseCommissionRate()
	amount := deposit.Amount.Mul(rate).Div(hundred)

	if err := uc.accountRepo.Credit(ctx, tx, referrerID, amount); err != nil {
		return nil, err
	}

	commission := &domain.ReferralCommission{
		ReferrerID: referrerID,
		ReferredID: deposit.AccountID,
		DepositID:  deposit.ID,
		Amount:     amount,
		Rate:       rate,
		CreatedAt:  uc.now().UTC(),
	}
	if err := uc.referralRepo.InsertCommission(ctx, tx, commission); err != nil {
		return nil, err
	}

	if _, err := uc.refreshTier(ctx, tx, referrerID); err != nil {
		return nil, err
	}

	err := uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
		ID:         uc.refGen.GenerateAuditID(),
		ActorID:    referrerID,
		EntityType: domain.AuditEntityReferralCommission,
		EntityID:   deposit.Reference,
		Action:     "referral.commission_paid",
		Before:     map[string]interface{}{},
		After: map[string]interface{}{
			"referrer_id": referrerID,
			"referred_id": deposit.AccountID,
			"amount":      amount.String(),
			"rate":        rate.String(),
		},
		CreatedAt: uc.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("referral commission paid",
		zap.Int64("referrer_id", referrerID),
		zap.Int64("referred_id", deposit.AccountID),
		zap.String("amount", amount.String()))
	return commission, nil
}
