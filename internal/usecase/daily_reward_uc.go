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

// DailyRewardUsecase pays the once-per-UTC-day reward derived from the
// account's approved-deposit principal. Idempotency is the unique
// (account_id, claim_date) constraint; a concurrent duplicate claim loses
// the insert and surfaces as ErrAlreadyClaimedToday.
type DailyRewardUsecase struct {
	claimRepo    repository.RewardClaimRepository
	accountRepo  repository.AccountRepository
	referralRepo repository.ReferralRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TxManager
	policyUC     *PolicyUsecase
	calc         *service.DailyRewardCalculator
	events       *publisher.LedgerEventPublisher
	refGen       *utils.ReferenceGenerator
	logger       *zap.Logger

	now func() time.Time
}

func NewDailyRewardUsecase(
	claimRepo repository.RewardClaimRepository,
	accountRepo repository.AccountRepository,
	referralRepo repository.ReferralRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	policyUC *PolicyUsecase,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *DailyRewardUsecase {
	return &DailyRewardUsecase{
		claimRepo:    claimRepo,
		accountRepo:  accountRepo,
		referralRepo: referralRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		policyUC:     policyUC,
		calc:         service.NewDailyRewardCalculator(),
		events:       events,
		refGen:       utils.NewReferenceGenerator(),
		logger:       logger,
		now:          time.Now,
	}
}

// CheckEligibility answers whether the account can claim today and how
// much. Fails with ErrAlreadyClaimedToday or ErrNoBaseBalance.
func (uc *DailyRewardUsecase) CheckEligibility(ctx context.Context, accountID int64) (*domain.DailyRewardStatus, error) {
	now := uc.now()
	dateKey := domain.DayKey(now)

	if _, err := uc.claimRepo.GetByDay(ctx, domain.RewardChannelDaily, accountID, dateKey); err == nil {
		return nil, xerrors.ErrAlreadyClaimedToday
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.BaseBalance.IsPositive() {
		return nil, xerrors.ErrNoBaseBalance
	}

	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	tier, err := uc.currentTier(ctx, accountID)
	if err != nil {
		return nil, err
	}
	rate := uc.calc.MonthlyRate(tier, policy)

	return &domain.DailyRewardStatus{
		Eligible:    true,
		Amount:      uc.calc.DailyAmount(account.BaseBalance, rate),
		MonthlyRate: rate,
		Tier:        tier,
		BaseBalance: account.BaseBalance,
		ResetAt:     domain.NextUTCMidnight(now),
	}, nil
}

// Claim re-runs eligibility and then, in one transaction, inserts the
// claim row and credits the balance. The amount is recomputed against the
// locked account row so the claim pays exactly what the locked principal
// and tier say at commit time.
func (uc *DailyRewardUsecase) Claim(ctx context.Context, accountID int64) (*domain.RewardClaim, time.Time, error) {
	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	now := uc.now()
	dateKey := domain.DayKey(now)
	var claim *domain.RewardClaim

	err = uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		account, err := uc.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !account.BaseBalance.IsPositive() {
			return xerrors.ErrNoBaseBalance
		}

		tier, err := uc.currentTier(ctx, accountID)
		if err != nil {
			return err
		}
		rate := uc.calc.MonthlyRate(tier, policy)
		amount := uc.calc.DailyAmount(account.BaseBalance, rate)

		claim = &domain.RewardClaim{
			Reference: uc.refGen.GenerateClaimRef(),
			AccountID: accountID,
			ClaimDate: dateKey,
			Amount:    amount,
			ClaimedAt: now.UTC(),
		}
		// The unique constraint is the race backstop: a concurrent claim
		// for the same day fails here and rolls the credit back.
		if err := uc.claimRepo.Insert(ctx, tx, domain.RewardChannelDaily, claim); err != nil {
			return err
		}
		if err := uc.accountRepo.Credit(ctx, tx, accountID, amount); err != nil {
			return err
		}

		return uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    accountID,
			EntityType: domain.AuditEntityRewardClaim,
			EntityID:   claim.Reference,
			Action:     "reward.daily.claim",
			Before:     map[string]interface{}{},
			After: map[string]interface{}{
				"claim_date": dateKey,
				"amount":     amount.String(),
				"tier":       tier,
			},
			CreatedAt: now.UTC(),
		})
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	resetAt := domain.NextUTCMidnight(now)
	uc.events.RewardClaimed(ctx, string(domain.RewardChannelDaily), accountID, claim.Reference, claim.Amount)
	uc.logger.Info("daily reward claimed",
		zap.Int64("account_id", accountID),
		zap.String("claim_date", dateKey),
		zap.String("amount", claim.Amount.String()))
	return claim, resetAt, nil
}

// History lists past claims for the account.
func (uc *DailyRewardUsecase) History(ctx context.Context, accountID int64, limit, offset int) ([]*domain.RewardClaim, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.claimRepo.ListByAccount(ctx, domain.RewardChannelDaily, accountID, limit, offset)
}

func (uc *DailyRewardUsecase) currentTier(ctx context.Context, accountID int64) (int, error) {
	stats, err := uc.referralRepo.GetStats(ctx, accountID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return service.Tier(0), nil
		}
		return 0, err
	}
	return stats.Tier, nil
}
