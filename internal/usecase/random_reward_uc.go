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

// RandomRewardUsecase runs the daily random draw. The outcome is seeded
// from (accountID, UTC day), so the status check and the claim always
// agree: a user told "you won" cannot lose the draw at claim time.
type RandomRewardUsecase struct {
	claimRepo   repository.RewardClaimRepository
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TxManager
	policyUC    *PolicyUsecase
	evaluator   *service.RandomRewardEvaluator
	events      *publisher.LedgerEventPublisher
	refGen      *utils.ReferenceGenerator
	logger      *zap.Logger

	now func() time.Time
}

func NewRandomRewardUsecase(
	claimRepo repository.RewardClaimRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	policyUC *PolicyUsecase,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *RandomRewardUsecase {
	return &RandomRewardUsecase{
		claimRepo:   claimRepo,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		policyUC:    policyUC,
		evaluator:   service.NewRandomRewardEvaluator(),
		events:      events,
		refGen:      utils.NewReferenceGenerator(),
		logger:      logger,
		now:         time.Now,
	}
}

// Status returns today's deterministic outcome and whether it was already
// claimed. Fails with ErrRewardDisabled when the policy toggle is off.
func (uc *RandomRewardUsecase) Status(ctx context.Context, accountID int64) (*domain.RandomRewardStatus, error) {
	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.RandomRewardEnabled {
		return nil, xerrors.ErrRewardDisabled
	}

	now := uc.now()
	dateKey := domain.DayKey(now)
	outcome := uc.evaluator.Evaluate(accountID, dateKey, policy)

	status := &domain.RandomRewardStatus{
		Enabled: true,
		Won:     outcome.Won,
		Amount:  outcome.Amount,
		ResetAt: domain.NextUTCMidnight(now),
	}

	claim, err := uc.claimRepo.GetByDay(ctx, domain.RewardChannelRandom, accountID, dateKey)
	if err == nil {
		status.Claimed = true
		status.ClaimedAt = &claim.ClaimedAt
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	return status, nil
}

// Claim pays today's winning draw once. Re-evaluation inside the claim
// path yields the same outcome as Status did; the unique day row keeps a
// winning day from paying twice.
func (uc *RandomRewardUsecase) Claim(ctx context.Context, accountID int64) (*domain.RewardClaim, time.Time, error) {
	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !policy.RandomRewardEnabled {
		return nil, time.Time{}, xerrors.ErrRewardDisabled
	}

	now := uc.now()
	dateKey := domain.DayKey(now)
	outcome := uc.evaluator.Evaluate(accountID, dateKey, policy)
	if !outcome.Won {
		return nil, time.Time{}, xerrors.ErrRewardNotWon
	}

	var claim *domain.RewardClaim
	err = uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		if _, err := uc.accountRepo.GetForUpdate(ctx, tx, accountID); err != nil {
			return err
		}

		claim = &domain.RewardClaim{
			Reference: uc.refGen.GenerateClaimRef(),
			AccountID: accountID,
			ClaimDate: dateKey,
			Amount:    outcome.Amount,
			ClaimedAt: now.UTC(),
		}
		if err := uc.claimRepo.Insert(ctx, tx, domain.RewardChannelRandom, claim); err != nil {
			return err
		}
		if err := uc.accountRepo.Credit(ctx, tx, accountID, outcome.Amount); err != nil {
			return err
		}

		return uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    accountID,
			EntityType: domain.AuditEntityRewardClaim,
			EntityID:   claim.Reference,
			Action:     "reward.random.claim",
			Before:     map[string]interface{}{},
			After: map[string]interface{}{
				"claim_date": dateKey,
				"amount":     outcome.Amount.String(),
			},
			CreatedAt: now.UTC(),
		})
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	resetAt := domain.NextUTCMidnight(now)
	uc.events.RewardClaimed(ctx, string(domain.RewardChannelRandom), accountID, claim.Reference, claim.Amount)
	uc.logger.Info("random reward claimed",
		zap.Int64("account_id", accountID),
		zap.String("claim_date", dateKey),
		zap.String("amount", claim.Amount.String()))
	return claim, resetAt, nil
}

// History lists past random reward claims for the account.
func (uc *RandomRewardUsecase) History(ctx context.Context, accountID int64, limit, offset int) ([]*domain.RewardClaim, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.claimRepo.ListByAccount(ctx, domain.RewardChannelRandom, accountID, limit, offset)
}
