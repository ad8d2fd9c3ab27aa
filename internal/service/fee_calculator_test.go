package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/domain"
)

func TestResolveTierLockWindow(t *testing.T) {
	calc := NewWithdrawalFeeCalculator()
	policy := domain.DefaultPolicySnapshot()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no deposit ever", func(t *testing.T) {
		res := calc.ResolveTier(now, nil, nil, policy)
		require.True(t, res.Locked)
		require.Nil(t, res.UnlockAt)
	})

	t.Run("44 days elapsed stays locked", func(t *testing.T) {
		first := now.AddDate(0, 0, -45).Add(time.Hour) // 44 whole days
		res := calc.ResolveTier(now, &first, nil, policy)
		require.True(t, res.Locked)
		require.NotNil(t, res.UnlockAt)
		require.Equal(t, first.UTC().AddDate(0, 0, 45), *res.UnlockAt)
	})

	t.Run("exactly 45 days unlocks", func(t *testing.T) {
		first := now.AddDate(0, 0, -45)
		res := calc.ResolveTier(now, &first, nil, policy)
		require.False(t, res.Locked)
		require.Equal(t, domain.FeeTierMonthly, res.Tier)
	})

	t.Run("future first deposit clamps to locked", func(t *testing.T) {
		first := now.Add(time.Hour)
		res := calc.ResolveTier(now, &first, nil, policy)
		require.True(t, res.Locked)
	})
}

func TestResolveTierFeeSelection(t *testing.T) {
	calc := NewWithdrawalFeeCalculator()
	policy := domain.DefaultPolicySnapshot()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := now.AddDate(0, 0, -100)

	tests := []struct {
		name              string
		daysSinceLastWith int
		wantTier          domain.FeeTier
		wantPct           decimal.Decimal
	}{
		{"withdrew yesterday", 1, domain.FeeTierWeekly, policy.WithdrawWeeklyFeePct},
		{"withdrew 29 days ago", 29, domain.FeeTierWeekly, policy.WithdrawWeeklyFeePct},
		{"withdrew exactly 30 days ago", 30, domain.FeeTierMonthly, policy.WithdrawMonthlyFeePct},
		{"withdrew 90 days ago", 90, domain.FeeTierMonthly, policy.WithdrawMonthlyFeePct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.AddDate(0, 0, -tt.daysSinceLastWith)
			res := calc.ResolveTier(now, &first, &last, policy)
			require.False(t, res.Locked)
			require.Equal(t, tt.wantTier, res.Tier)
			require.True(t, tt.wantPct.Equal(res.FeePct))
		})
	}

	t.Run("first withdrawal after lock is monthly", func(t *testing.T) {
		res := calc.ResolveTier(now, &first, nil, policy)
		require.False(t, res.Locked)
		require.Equal(t, domain.FeeTierMonthly, res.Tier)
		require.True(t, policy.WithdrawMonthlyFeePct.Equal(res.FeePct))
	})
}

func TestQuote(t *testing.T) {
	calc := NewWithdrawalFeeCalculator()

	fee, net := calc.Quote(decimal.NewFromInt(200), TierResult{
		Tier:   domain.FeeTierWeekly,
		FeePct: decimal.NewFromInt(10),
	})
	require.True(t, decimal.NewFromInt(20).Equal(fee), "fee = %s", fee)
	require.True(t, decimal.NewFromInt(180).Equal(net), "net = %s", net)

	fee, net = calc.Quote(decimal.NewFromInt(200), TierResult{
		Tier:   domain.FeeTierMonthly,
		FeePct: decimal.NewFromInt(5),
	})
	require.True(t, decimal.NewFromInt(10).Equal(fee))
	require.True(t, decimal.NewFromInt(190).Equal(net))
}
