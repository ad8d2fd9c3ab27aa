package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/domain"
)

func TestEvaluateDeterministic(t *testing.T) {
	eval := NewRandomRewardEvaluator()
	policy := domain.DefaultPolicySnapshot()

	first := eval.Evaluate(42, "2026-03-01", policy)
	for i := 0; i < 10; i++ {
		again := eval.Evaluate(42, "2026-03-01", policy)
		require.Equal(t, first.Won, again.Won)
		require.True(t, first.Amount.Equal(again.Amount))
	}
}

func TestEvaluateAmountBounds(t *testing.T) {
	eval := NewRandomRewardEvaluator()
	policy := domain.DefaultPolicySnapshot()
	policy.RandomRewardWinRatePct = decimal.NewFromInt(100) // force wins

	for accountID := int64(1); accountID <= 200; accountID++ {
		out := eval.Evaluate(accountID, "2026-03-01", policy)
		require.True(t, out.Won)
		require.True(t, out.Amount.GreaterThanOrEqual(policy.RandomRewardMinAmount),
			"account %d amount %s below min", accountID, out.Amount)
		require.True(t, out.Amount.LessThanOrEqual(policy.RandomRewardMaxAmount),
			"account %d amount %s above max", accountID, out.Amount)
	}
}

func TestEvaluateWinRateExtremes(t *testing.T) {
	eval := NewRandomRewardEvaluator()
	policy := domain.DefaultPolicySnapshot()

	policy.RandomRewardWinRatePct = decimal.Zero
	for accountID := int64(1); accountID <= 50; accountID++ {
		out := eval.Evaluate(accountID, "2026-03-01", policy)
		require.False(t, out.Won)
		require.True(t, out.Amount.IsZero())
	}

	policy.RandomRewardWinRatePct = decimal.NewFromInt(100)
	for accountID := int64(1); accountID <= 50; accountID++ {
		require.True(t, eval.Evaluate(accountID, "2026-03-01", policy).Won)
	}
}

func TestEvaluateVariesAcrossDaysAndAccounts(t *testing.T) {
	eval := NewRandomRewardEvaluator()
	policy := domain.DefaultPolicySnapshot()
	policy.RandomRewardWinRatePct = decimal.NewFromInt(100)

	base := eval.Evaluate(1, "2026-03-01", policy)
	differs := false
	for accountID := int64(2); accountID <= 20 && !differs; accountID++ {
		if !eval.Evaluate(accountID, "2026-03-01", policy).Amount.Equal(base.Amount) {
			differs = true
		}
	}
	require.True(t, differs, "amounts should differ across accounts")

	differs = false
	days := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"}
	for _, day := range days {
		if !eval.Evaluate(1, day, policy).Amount.Equal(base.Amount) {
			differs = true
			break
		}
	}
	require.True(t, differs, "amounts should differ across days")
}

func TestEvaluateDepositReward(t *testing.T) {
	eval := NewRandomRewardEvaluator()
	policy := domain.DefaultPolicySnapshot()
	amount := decimal.NewFromInt(1000)

	t.Run("disabled toggle wins nothing", func(t *testing.T) {
		p := policy
		p.RandomRewardEnabled = false
		p.RandomRewardChancePct = decimal.NewFromInt(100)
		reward, won := eval.EvaluateDepositReward("DEP-X", amount, p)
		require.False(t, won)
		require.True(t, reward.IsZero())
	})

	t.Run("certain chance pays bonus pct", func(t *testing.T) {
		p := policy
		p.RandomRewardChancePct = decimal.NewFromInt(100)
		reward, won := eval.EvaluateDepositReward("DEP-X", amount, p)
		require.True(t, won)
		// 1000 * 5% = 50
		require.True(t, decimal.NewFromInt(50).Equal(reward), "reward = %s", reward)
	})

	t.Run("zero chance never pays", func(t *testing.T) {
		p := policy
		p.RandomRewardChancePct = decimal.Zero
		_, won := eval.EvaluateDepositReward("DEP-X", amount, p)
		require.False(t, won)
	})

	t.Run("same reference same outcome", func(t *testing.T) {
		r1, w1 := eval.EvaluateDepositReward("DEP-SAME", amount, policy)
		r2, w2 := eval.EvaluateDepositReward("DEP-SAME", amount, policy)
		require.Equal(t, w1, w2)
		require.True(t, r1.Equal(r2))
	})
}
