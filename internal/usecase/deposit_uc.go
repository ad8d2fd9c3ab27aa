package usecase

import (
	"context"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
	publisher "ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/service"
	"ledger-service/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// DepositUsecase drives the deposit half of the state machine:
// PENDING -> APPROVED | REJECTED, terminal either way. Approval mutates
// the account balance, the base principal, the first-deposit marker, the
// deposit-triggered reward and the referral cascade in one transaction.
type DepositUsecase struct {
	depositRepo repository.DepositRepository
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TxManager
	policyUC    *PolicyUsecase
	referralUC  *ReferralUsecase
	evaluator   *service.RandomRewardEvaluator
	events      *publisher.LedgerEventPublisher
	refGen      *utils.ReferenceGenerator
	logger      *zap.Logger

	now func() time.Time
}

func NewDepositUsecase(
	depositRepo repository.DepositRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	policyUC *PolicyUsecase,
	referralUC *ReferralUsecase,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *DepositUsecase {
	return &DepositUsecase{
		depositRepo: depositRepo,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		policyUC:    policyUC,
		referralUC:  referralUC,
		evaluator:   service.NewRandomRewardEvaluator(),
		events:      events,
		refGen:      utils.NewReferenceGenerator(),
		logger:      logger,
		now:         time.Now,
	}
}

// Create opens a new pending deposit after the minimum-amount policy check.
func (uc *DepositUsecase) Create(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Deposit, error) {
	if !amount.IsPositive() {
		return nil, xerrors.ErrInvalidInput
	}

	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(policy.MinDepositAmount) {
		return nil, xerrors.ErrAmountTooSmall
	}

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	deposit, err := uc.depositRepo.Create(ctx, &domain.DepositCreate{
		Reference: uc.refGen.GenerateDepositRef(),
		AccountID: accountID,
		Amount:    amount,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("deposit created",
		zap.Int64("account_id", accountID),
		zap.String("reference", deposit.Reference),
		zap.String("amount", amount.String()))
	return deposit, nil
}

// Approve flips a pending deposit to APPROVED and applies every effect in
// one transaction: balance credit, base principal, first-deposit marker,
// the per-deposit reward draw and — when this is the referred account's
// first approved deposit — the referral commission cascade. A re-approval
// attempt fails with ErrNotPending; the balance can never double-apply.
func (uc *DepositUsecase) Approve(ctx context.Context, depositID, reviewerID int64) (*domain.Deposit, error) {
	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		approved     *domain.Deposit
		balanceAfter decimal.Decimal
		commission   *domain.ReferralCommission
	)

	err = uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		deposit, err := uc.depositRepo.GetForUpdate(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != domain.StatusPending {
			return xerrors.ErrNotPending
		}

		account, err := uc.accountRepo.GetForUpdate(ctx, tx, deposit.AccountID)
		if err != nil {
			return err
		}

		now := uc.now().UTC()

		// Per-deposit reward channel: one draw per deposit, recorded on
		// the row itself, credited together with the principal.
		rewardAmount, applied := uc.evaluator.EvaluateDepositReward(deposit.Reference, deposit.Amount, policy)
		meta := &domain.DepositRewardMeta{
			ChancePct: policy.RandomRewardChancePct,
			BonusPct:  policy.RandomRewardBonusPct,
			Applied:   applied,
		}

		if err := uc.depositRepo.MarkReviewed(ctx, tx, deposit.ID, domain.StatusApproved,
			reviewerID, now, &now, rewardAmount, meta); err != nil {
			return err
		}

		credit := deposit.Amount
		if applied {
			credit = credit.Add(rewardAmount)
		}
		if err := uc.accountRepo.Credit(ctx, tx, deposit.AccountID, credit); err != nil {
			return err
		}
		if err := uc.accountRepo.AddBasePrincipal(ctx, tx, deposit.AccountID, deposit.Amount); err != nil {
			return err
		}
		if err := uc.accountRepo.SetFirstDepositAt(ctx, tx, deposit.AccountID, now); err != nil {
			return err
		}

		// First-approved-deposit check runs inside this transaction so
		// two concurrent approvals cannot both see zero prior approvals.
		priorApproved, err := uc.depositRepo.CountApprovedExcluding(ctx, tx, deposit.AccountID, deposit.ID)
		if err != nil {
			return err
		}
		if priorApproved == 0 && account.InvitedBy != nil {
			commission, err = uc.referralUC.HandleFirstDepositApproved(ctx, tx, *account.InvitedBy, deposit)
			if err != nil {
				return err
			}
		}

		if err := uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    reviewerID,
			EntityType: domain.AuditEntityDeposit,
			EntityID:   deposit.Reference,
			Action:     "deposit.approve",
			Before:     map[string]interface{}{"status": string(domain.StatusPending)},
			After: map[string]interface{}{
				"status":        string(domain.StatusApproved),
				"amount":        deposit.Amount.String(),
				"reward_amount": rewardAmount.String(),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		deposit.Status = domain.StatusApproved
		deposit.ReviewedBy = &reviewerID
		deposit.ReviewedAt = &now
		deposit.EffectiveAt = &now
		deposit.RewardAmount = rewardAmount
		deposit.RewardMeta = meta
		approved = deposit
		balanceAfter = account.Balance.Add(credit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.events.DepositReviewed(ctx, true, approved.AccountID, approved.Reference, approved.Amount, balanceAfter, reviewerID)
	if commission != nil {
		uc.events.CommissionPaid(ctx, commission.ReferrerID, approved.AccountID, commission.Amount)
	}
	uc.logger.Info("deposit approved",
		zap.Int64("deposit_id", approved.ID),
		zap.Int64("account_id", approved.AccountID),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("amount", approved.Amount.String()))
	return approved, nil
}

// Reject flips a pending deposit to REJECTED. No balance effect and no
// effective date.
func (uc *DepositUsecase) Reject(ctx context.Context, depositID, reviewerID int64, reason string) (*domain.Deposit, error) {
	var rejected *domain.Deposit

	err := uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		deposit, err := uc.depositRepo.GetForUpdate(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != domain.StatusPending {
			return xerrors.ErrNotPending
		}

		now := uc.now().UTC()
		if err := uc.depositRepo.MarkReviewed(ctx, tx, deposit.ID, domain.StatusRejected,
			reviewerID, now, nil, decimal.Zero, nil); err != nil {
			return err
		}

		if err := uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    reviewerID,
			EntityType: domain.AuditEntityDeposit,
			EntityID:   deposit.Reference,
			Action:     "deposit.reject",
			Before:     map[string]interface{}{"status": string(domain.StatusPending)},
			After:      map[string]interface{}{"status": string(domain.StatusRejected)},
			Reason:     reason,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		deposit.Status = domain.StatusRejected
		deposit.ReviewedBy = &reviewerID
		deposit.ReviewedAt = &now
		rejected = deposit
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.events.DepositReviewed(ctx, false, rejected.AccountID, rejected.Reference, rejected.Amount, decimal.Zero, reviewerID)
	uc.logger.Info("deposit rejected",
		zap.Int64("deposit_id", rejected.ID),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("reason", reason))
	return rejected, nil
}

func (uc *DepositUsecase) Get(ctx context.Context, depositID int64) (*domain.Deposit, error) {
	return uc.depositRepo.GetByID(ctx, depositID)
}

func (uc *DepositUsecase) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.depositRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *DepositUsecase) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.depositRepo.ListPending(ctx, limit, offset)
}
