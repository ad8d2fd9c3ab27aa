package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/cache"
	"ledger-service/internal/pkg/xerrors"
	"ledger-service/internal/repository"
	publisher "ledger-service/internal/pub"
	"ledger-service/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	policyCacheNamespace = "ledger:policy"
	policyCacheKey       = "snapshot"
	policyCacheTTL       = 5 * time.Minute
)

// PolicyUsecase builds one consistent policy snapshot per operation and
// handles admin updates. Policy values are stable, so snapshots are cached
// briefly in redis and invalidated on every update.
type PolicyUsecase struct {
	policyRepo repository.PolicyRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TxManager
	cache      *cache.Cache
	events     *publisher.LedgerEventPublisher
	refGen     *utils.ReferenceGenerator
	logger     *zap.Logger
}

func NewPolicyUsecase(
	policyRepo repository.PolicyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TxManager,
	c *cache.Cache,
	events *publisher.LedgerEventPublisher,
	logger *zap.Logger,
) *PolicyUsecase {
	return &PolicyUsecase{
		policyRepo: policyRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		cache:      c,
		events:     events,
		refGen:     utils.NewReferenceGenerator(),
		logger:     logger,
	}
}

// Snapshot returns the current policy view, from cache when fresh.
func (uc *PolicyUsecase) Snapshot(ctx context.Context) (domain.PolicySnapshot, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, policyCacheNamespace, policyCacheKey); err == nil {
			var snap domain.PolicySnapshot
			if jsonErr := json.Unmarshal([]byte(cached), &snap); jsonErr == nil {
				return snap, nil
			}
		}
	}

	values, err := uc.policyRepo.GetAll(ctx)
	if err != nil {
		return domain.PolicySnapshot{}, err
	}
	snap := buildSnapshot(values)

	if uc.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = uc.cache.Set(ctx, policyCacheNamespace, policyCacheKey, data, policyCacheTTL)
		}
	}
	return snap, nil
}

// SetPolicy validates and writes one policy value, audit-logged, and
// drops the cached snapshot.
func (uc *PolicyUsecase) SetPolicy(ctx context.Context, actorID int64, key, value string) error {
	if !validatePolicyValue(key, value) {
		return xerrors.ErrInvalidInput
	}

	previous, err := uc.policyRepo.Get(ctx, key)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	err = uc.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := uc.policyRepo.Set(ctx, tx, key, value); err != nil {
			return err
		}
		return uc.auditRepo.Append(ctx, tx, &domain.AuditRecord{
			ID:         uc.refGen.GenerateAuditID(),
			ActorID:    actorID,
			EntityType: domain.AuditEntityPolicy,
			EntityID:   key,
			Action:     "policy.update",
			Before:     map[string]interface{}{"value": previous},
			After:      map[string]interface{}{"value": value},
			CreatedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, policyCacheNamespace, policyCacheKey)
	}
	uc.events.PolicyUpdated(ctx, actorID, key)
	uc.logger.Info("policy updated",
		zap.Int64("actor_id", actorID),
		zap.String("key", key))
	return nil
}

// Values returns the raw key/value map for the admin console.
func (uc *PolicyUsecase) Values(ctx context.Context) (map[string]string, error) {
	return uc.policyRepo.GetAll(ctx)
}

// ===============================
// SNAPSHOT PARSING
// ===============================

func buildSnapshot(values map[string]string) domain.PolicySnapshot {
	snap := domain.DefaultPolicySnapshot()

	getDecimal := func(key string, dst *decimal.Decimal) {
		if v, ok := values[key]; ok {
			if d, err := decimal.NewFromString(v); err == nil {
				*dst = d
			}
		}
	}
	getInt := func(key string, dst *int) {
		if v, ok := values[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	getBool := func(key string, dst *bool) {
		if v, ok := values[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	getDecimal(domain.PolicyDepositFeePct, &snap.DepositFeePct)
	getDecimal(domain.PolicyMinDepositAmount, &snap.MinDepositAmount)
	getDecimal(domain.PolicyMinWithdrawalAmount, &snap.MinWithdrawalAmount)
	getInt(domain.PolicyWithdrawFirstMinDays, &snap.WithdrawLockDays)
	getDecimal(domain.PolicyWithdrawWeeklyFeePct, &snap.WithdrawWeeklyFeePct)
	getDecimal(domain.PolicyWithdrawMonthlyFeePct, &snap.WithdrawMonthlyFeePct)
	getInt(domain.PolicyWithdrawMonthlyThresholdDay, &snap.WithdrawMonthlyThresholdDays)
	getDecimal(domain.PolicyBaseMonthlyRate, &snap.BaseMonthlyRate)
	getDecimal(domain.PolicyTier5Rate, &snap.Tier5Rate)
	getDecimal(domain.PolicyTier10Rate, &snap.Tier10Rate)
	getBool(domain.PolicyRandomRewardEnabled, &snap.RandomRewardEnabled)
	getDecimal(domain.PolicyRandomRewardChancePct, &snap.RandomRewardChancePct)
	getDecimal(domain.PolicyRandomRewardBonusPct, &snap.RandomRewardBonusPct)
	getDecimal(domain.PolicyRandomRewardWinRatePct, &snap.RandomRewardWinRatePct)
	getDecimal(domain.PolicyRandomRewardMinAmount, &snap.RandomRewardMinAmount)
	getDecimal(domain.PolicyRandomRewardMaxAmount, &snap.RandomRewardMaxAmount)

	return snap
}

func validatePolicyValue(key, value string) bool {
	switch key {
	case domain.PolicyWithdrawFirstMinDays, domain.PolicyWithdrawMonthlyThresholdDay:
		n, err := strconv.Atoi(value)
		return err == nil && n >= 0
	case domain.PolicyRandomRewardEnabled:
		_, err := strconv.ParseBool(value)
		return err == nil
	case domain.PolicyDepositFeePct,
		domain.PolicyMinDepositAmount,
		domain.PolicyMinWithdrawalAmount,
		domain.PolicyWithdrawWeeklyFeePct,
		domain.PolicyWithdrawMonthlyFeePct,
		domain.PolicyBaseMonthlyRate,
		domain.PolicyTier5Rate,
		domain.PolicyTier10Rate,
		domain.PolicyRandomRewardChancePct,
		domain.PolicyRandomRewardBonusPct,
		domain.PolicyRandomRewardWinRatePct,
		domain.PolicyRandomRewardMinAmount,
		domain.PolicyRandomRewardMaxAmount:
		d, err := decimal.NewFromString(value)
		return err == nil && !d.IsNegative()
	default:
		return false
	}
}
