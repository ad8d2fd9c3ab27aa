package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
)

func TestRandomRewardDisabled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.accounts.add(1, decimal.Zero, decimal.Zero)
	env.policies.values[domain.PolicyRandomRewardEnabled] = "false"

	_, err := env.randomRewardUC.Status(ctx, 1)
	require.ErrorIs(t, err, xerrors.ErrRewardDisabled)

	_, _, err = env.randomRewardUC.Claim(ctx, 1)
	require.ErrorIs(t, err, xerrors.ErrRewardDisabled)
}

func TestRandomRewardClaimWinningDay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.accounts.add(1, decimal.NewFromInt(100), decimal.NewFromInt(100))
	env.policies.values[domain.PolicyRandomRewardWinRatePct] = "100"

	status, err := env.randomRewardUC.Status(ctx, 1)
	require.NoError(t, err)
	require.True(t, status.Won)
	require.False(t, status.Claimed)

	claim, resetAt, err := env.randomRewardUC.Claim(ctx, 1)
	require.NoError(t, err)
	// the claim pays exactly what status promised
	require.True(t, status.Amount.Equal(claim.Amount))
	require.Equal(t, domain.NextUTCMidnight(env.now), resetAt)

	acc, _ := env.accounts.GetByID(ctx, 1)
	require.True(t, decimal.NewFromInt(100).Add(claim.Amount).Equal(acc.Balance))

	// winning day pays once
	_, _, err = env.randomRewardUC.Claim(ctx, 1)
	require.ErrorIs(t, err, xerrors.ErrAlreadyClaimedToday)

	status, err = env.randomRewardUC.Status(ctx, 1)
	require.NoError(t, err)
	require.True(t, status.Claimed)
	require.NotNil(t, status.ClaimedAt)

	require.Contains(t, env.audits.actions(), "reward.random.claim")
}

func TestRandomRewardLosingDay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.accounts.add(1, decimal.NewFromInt(100), decimal.NewFromInt(100))
	env.policies.values[domain.PolicyRandomRewardWinRatePct] = "0"

	status, err := env.randomRewardUC.Status(ctx, 1)
	require.NoError(t, err)
	require.False(t, status.Won)
	require.True(t, status.Amount.IsZero())

	_, _, err = env.randomRewardUC.Claim(ctx, 1)
	require.ErrorIs(t, err, xerrors.ErrRewardNotWon)

	acc, _ := env.accounts.GetByID(ctx, 1)
	require.True(t, decimal.NewFromInt(100).Equal(acc.Balance))
}

func TestRandomRewardResetsNextDay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.accounts.add(1, decimal.NewFromInt(100), decimal.NewFromInt(100))
	env.policies.values[domain.PolicyRandomRewardWinRatePct] = "100"

	_, _, err := env.randomRewardUC.Claim(ctx, 1)
	require.NoError(t, err)

	env.now = env.now.Add(24 * time.Hour)
	_, _, err = env.randomRewardUC.Claim(ctx, 1)
	require.NoError(t, err)

	claims, err := env.randomRewardUC.History(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, claims, 2)
}
