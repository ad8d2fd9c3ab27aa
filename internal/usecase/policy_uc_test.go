package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
)

func TestSnapshotDefaults(t *testing.T) {
	env := newTestEnv()

	snap, err := env.policyUC.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 45, snap.WithdrawLockDays)
	require.Equal(t, 30, snap.WithdrawMonthlyThresholdDays)
	require.True(t, decimal.NewFromInt(10).Equal(snap.WithdrawWeeklyFeePct))
	require.True(t, decimal.NewFromInt(5).Equal(snap.WithdrawMonthlyFeePct))
	require.True(t, decimal.NewFromInt(25).Equal(snap.BaseMonthlyRate))
	require.True(t, snap.RandomRewardEnabled)
}

func TestSnapshotOverrides(t *testing.T) {
	env := newTestEnv()
	env.policies.values[domain.PolicyWithdrawFirstMinDays] = "60"
	env.policies.values[domain.PolicyWithdrawWeeklyFeePct] = "12.5"
	env.policies.values[domain.PolicyRandomRewardEnabled] = "false"
	env.policies.values[domain.PolicyBaseMonthlyRate] = "not-a-number" // ignored

	snap, err := env.policyUC.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 60, snap.WithdrawLockDays)
	require.True(t, decimal.RequireFromString("12.5").Equal(snap.WithdrawWeeklyFeePct))
	require.False(t, snap.RandomRewardEnabled)
	require.True(t, decimal.NewFromInt(25).Equal(snap.BaseMonthlyRate), "bad value falls back to default")
}

func TestSetPolicyValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.policyUC.SetPolicy(ctx, 9, "unknownKey", "1")
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)

	err = env.policyUC.SetPolicy(ctx, 9, domain.PolicyWithdrawWeeklyFeePct, "-3")
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)

	err = env.policyUC.SetPolicy(ctx, 9, domain.PolicyWithdrawFirstMinDays, "4.5")
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)

	err = env.policyUC.SetPolicy(ctx, 9, domain.PolicyRandomRewardEnabled, "maybe")
	require.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestSetPolicyWritesAndAudits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.policyUC.SetPolicy(ctx, 9, domain.PolicyWithdrawWeeklyFeePct, "12")
	require.NoError(t, err)

	values, err := env.policyUC.Values(ctx)
	require.NoError(t, err)
	require.Equal(t, "12", values[domain.PolicyWithdrawWeeklyFeePct])

	snap, err := env.policyUC.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(12).Equal(snap.WithdrawWeeklyFeePct))

	require.Contains(t, env.audits.actions(), "policy.update")
	records, err := env.audits.List(ctx, domain.AuditEntityPolicy, domain.PolicyWithdrawWeeklyFeePct, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(9), records[0].ActorID)
}
