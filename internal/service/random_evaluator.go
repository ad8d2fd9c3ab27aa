package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"ledger-service/internal/domain"

	"github.com/shopspring/decimal"
)

// RandomRewardEvaluator decides the daily random reward outcome for an
// account. The decision is seeded from (accountID, dateKey), so checking
// the status and claiming are guaranteed to agree: only the claim
// side-effect differs between the two calls.
type RandomRewardEvaluator struct{}

func NewRandomRewardEvaluator() *RandomRewardEvaluator {
	return &RandomRewardEvaluator{}
}

// RandomOutcome is the deterministic win/amount decision for one UTC day.
type RandomOutcome struct {
	Won    bool
	Amount decimal.Decimal
}

const drawScale = 100000 // 3 decimal places of percentage resolution

// Evaluate hashes (accountID, dateKey) into two independent uniform draws:
// the first decides the win against winRatePct, the second places the
// amount inside [minAmount, maxAmount].
func (e *RandomRewardEvaluator) Evaluate(accountID int64, dateKey string, policy domain.PolicySnapshot) RandomOutcome {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", accountID, dateKey)))

	// draw in [0, 100) with 3 decimal places
	winDraw := decimal.NewFromInt(int64(binary.BigEndian.Uint64(sum[0:8]) % drawScale)).
		Div(decimal.NewFromInt(drawScale / 100))

	if winDraw.GreaterThanOrEqual(policy.RandomRewardWinRatePct) {
		return RandomOutcome{Won: false, Amount: decimal.Zero}
	}

	// independent sub-draw in [0, 1) for the amount position
	frac := decimal.NewFromInt(int64(binary.BigEndian.Uint64(sum[8:16]) % drawScale)).
		Div(decimal.NewFromInt(drawScale))

	span := policy.RandomRewardMaxAmount.Sub(policy.RandomRewardMinAmount)
	amount := policy.RandomRewardMinAmount.Add(span.Mul(frac))

	return RandomOutcome{Won: true, Amount: amount}
}

// EvaluateDepositReward runs the per-deposit reward channel: one draw per
// deposit, reward = amount * bonusPct% with probability chancePct. This
// channel is deliberately not idempotent per day — every approved deposit
// gets its own draw — so it is seeded from the deposit reference instead
// of the calendar day.
func (e *RandomRewardEvaluator) EvaluateDepositReward(depositRef string, amount decimal.Decimal, policy domain.PolicySnapshot) (decimal.Decimal, bool) {
	if !policy.RandomRewardEnabled {
		return decimal.Zero, false
	}

	sum := sha256.Sum256([]byte("deposit:" + depositRef))
	draw := decimal.NewFromInt(int64(binary.BigEndian.Uint64(sum[0:8]) % drawScale)).
		Div(decimal.NewFromInt(drawScale / 100))

	if draw.GreaterThanOrEqual(policy.RandomRewardChancePct) {
		return decimal.Zero, false
	}

	reward := amount.Mul(policy.RandomRewardBonusPct).Div(decimal.NewFromInt(100))
	return reward, true
}
