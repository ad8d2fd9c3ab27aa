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

// WithdrawalUsecase drives the withdrawal half of the state machine. The
// fee is snapshotted at submission; the balance check is re-validated at
// approval because the balance may have moved since submission.
type WithdrawalUsecase struct {
	withdrawalRepo repository.WithdrawalRepository
	accountRepo    repository.AccountRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TxManager
	policyUC       *PolicyUsecase
	feeCalc        *service.WithdrawalFeeCalculator
	events         *publisher.LedgerEventPublisher
	refGen         *utils.ReferenceGenerator
	logger         *zap.Logger

	now func() time.Time
}

func NewWithdrawalUsecase(
	withdrawalRepo repository.WithdrawalRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	policyUC *PolicyUsecase,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *WithdrawalUsecase {
	return &WithdrawalUsecase{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		policyUC:       policyUC,
		feeCalc:        service.NewWithdrawalFeeCalculator(),
		events:         events,
		refGen:         utils.NewReferenceGenerator(),
		logger:         logger,
		now:            time.Now,
	}
}

// CheckEligibility is the dry-run preview: same calculator, same clock
// discipline as submission, so both always agree on the tier.
func (uc *WithdrawalUsecase) CheckEligibility(ctx context.Context, accountID int64) (*domain.WithdrawalEligibility, error) {
	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tier := uc.feeCalc.ResolveTier(uc.now(), account.FirstDepositAt, account.LastWithdrawalAt, policy)
	if tier.Locked {
		return &domain.WithdrawalEligibility{
			Eligible: false,
			UnlockAt: tier.UnlockAt,
		}, nil
	}
	return &domain.WithdrawalEligibility{
		Eligible:  true,
		FeeTier:   tier.Tier,
		FeePct:    tier.FeePct,
		MinAmount: policy.MinWithdrawalAmount,
	}, nil
}

// Create submits a withdrawal with its fee snapshot. The snapshot is
// immutable afterwards: policy changes between submission and review do
// not move a submitted withdrawal's fee.
func (uc *WithdrawalUsecase) Create(ctx context.Context, accountID int64, amount decimal.Decimal, address string) (*domain.Withdrawal, error) {
	if !amount.IsPositive() || address == "" {
		return nil, xerrors.ErrInvalidInput
	}

	policy, err := uc.policyUC.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(policy.MinWithdrawalAmount) {
		return nil, xerrors.ErrAmountTooSmall
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tier := uc.feeCalc.ResolveTier(uc.now(), account.FirstDepositAt, account.LastWithdrawalAt, policy)
	if tier.Locked {
		return nil, &xerrors.LockedError{UnlockAt: tier.UnlockAt}
	}

	if account.Balance.LessThan(amount) {
		return nil, xerrors.ErrInsufficientBalance
	}

	feeAmount, netAmount := uc.feeCalc.Quote(amount, tier)
	withdrawal, err := uc.withdrawalRepo.Create(ctx, &domain.WithdrawalCreate{
		Reference: uc.refGen.GenerateWithdrawalRef(),
		AccountID: accountID,
		Amount:    amount,
		FeeTier:   tier.Tier,
		FeePct:    tier.FeePct,
		FeeAmount: feeAmount,
		NetAmount: netAmount,
		Address:   address,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("withdrawal created",
		zap.Int64("account_id", accountID),
		zap.String("reference", withdrawal.Reference),
		zap.String("amount", amount.String()),
		zap.String("fee_tier", string(tier.Tier)))
	return withdrawal, nil
}

// Approve flips a pending withdrawal to APPROVED, debits the net amount
// (not the gross) and stamps the last-withdrawal marker, all in one
// transaction. The balance check runs against the locked account row; a
// shortfall fails closed with ErrInsufficientBalance and nothing moves.
func (uc *WithdrawalUsecase) Approve(ctx context.Context, withdrawalID, reviewerID int64) (*domain.Withdrawal, error) {
	var (
		approved     *domain.Withdrawal
		balanceAfter decimal.Decimal
	)

	err := uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		withdrawal, err := uc.withdrawalRepo.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.StatusPending {
			return xerrors.ErrNotPending
		}

		account, err := uc.accountRepo.GetForUpdate(ctx, tx, withdrawal.AccountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(withdrawal.NetAmount) {
			return xerrors.ErrInsufficientBalance
		}

		now := uc.now().UTC()
		if err := uc.withdrawalRepo.MarkReviewed(ctx, tx, withdrawal.ID, domain.StatusApproved,
			reviewerID, now, &now); err != nil {
			return err
		}
		if err := uc.accountRepo.Debit(ctx, tx, withdrawal.AccountID, withdrawal.NetAmount); err != nil {
			return err
		}
		if err := uc.accountRepo.SetLastWithdrawalAt(ctx, tx, withdrawal.AccountID, now); err != nil {
			return err
		}

		if err := uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    reviewerID,
			EntityType: domain.AuditEntityWithdrawal,
			EntityID:   withdrawal.Reference,
			Action:     "withdrawal.approve",
			Before:     map[string]interface{}{"status": string(domain.StatusPending)},
			After: map[string]interface{}{
				"status":     string(domain.StatusApproved),
				"amount":     withdrawal.Amount.String(),
				"fee_amount": withdrawal.FeeAmount.String(),
				"net_amount": withdrawal.NetAmount.String(),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		withdrawal.Status = domain.StatusApproved
		withdrawal.ReviewedBy = &reviewerID
		withdrawal.ReviewedAt = &now
		withdrawal.EffectiveAt = &now
		approved = withdrawal
		balanceAfter = account.Balance.Sub(withdrawal.NetAmount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.events.WithdrawalReviewed(ctx, true, approved.AccountID, approved.Reference,
		approved.Amount, approved.FeeAmount, balanceAfter, reviewerID)
	uc.logger.Info("withdrawal approved",
		zap.Int64("withdrawal_id", approved.ID),
		zap.Int64("account_id", approved.AccountID),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("net_amount", approved.NetAmount.String()))
	return approved, nil
}

// Reject flips a pending withdrawal to REJECTED. No balance effect.
func (uc *WithdrawalUsecase) Reject(ctx context.Context, withdrawalID, reviewerID int64, reason string) (*domain.Withdrawal, error) {
	var rejected *domain.Withdrawal

	err := uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		withdrawal, err := uc.withdrawalRepo.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != domain.StatusPending {
			return xerrors.ErrNotPending
		}

		now := uc.now().UTC()
		if err := uc.withdrawalRepo.MarkReviewed(ctx, tx, withdrawal.ID, domain.StatusRejected,
			reviewerID, now, nil); err != nil {
			return err
		}

		if err := uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    reviewerID,
			EntityType: domain.AuditEntityWithdrawal,
			EntityID:   withdrawal.Reference,
			Action:     "withdrawal.reject",
			Before:     map[string]interface{}{"status": string(domain.StatusPending)},
			After:      map[string]interface{}{"status": string(domain.StatusRejected)},
			Reason:     reason,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		withdrawal.Status = domain.StatusRejected
		withdrawal.ReviewedBy = &reviewerID
		withdrawal.ReviewedAt = &now
		rejected = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.events.WithdrawalReviewed(ctx, false, rejected.AccountID, rejected.Reference,
		rejected.Amount, rejected.FeeAmount, decimal.Zero, reviewerID)
	uc.logger.Info("withdrawal rejected",
		zap.Int64("withdrawal_id", rejected.ID),
		zap.Int64("reviewer_id", reviewerID),
		zap.String("reason", reason))
	return rejected, nil
}

func (uc *WithdrawalUsecase) Get(ctx context.Context, withdrawalID int64) (*domain.Withdrawal, error) {
	return uc.withdrawalRepo.GetByID(ctx, withdrawalID)
}

func (uc *WithdrawalUsecase) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.withdrawalRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *WithdrawalUsecase) ListPending(ctx context.Context, limit, offset int) ([]*domain.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.withdrawalRepo.ListPending(ctx, limit, offset)
}
