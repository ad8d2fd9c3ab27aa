package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	LedgerEventsChannel = "ledger_events"
	LedgerEventsTopic   = "ledger.events"
)

// LedgerEventPublisher fans ledger events out to kafka (durable consumers:
// notification service, analytics) and redis pubsub (in-cluster listeners).
// Publishing is best effort: the transaction has already committed, an
// event failure is logged and never unwinds ledger state.
type LedgerEventPublisher struct {
	rdb    *redis.Client
	writer *kafka.Writer
	logger *zap.Logger
}

func NewLedgerEventPublisher(rdb *redis.Client, writer *kafka.Writer, logger *zap.Logger) *LedgerEventPublisher {
	return &LedgerEventPublisher{rdb: rdb, writer: writer, logger: logger}
}

type LedgerEvent struct {
	EventType    string                 `json:"event_type"` // deposit.approved, withdrawal.rejected, reward.claimed, ...
	AccountID    int64                  `json:"account_id"`
	Reference    string                 `json:"reference,omitempty"`
	Amount       decimal.Decimal        `json:"amount"`
	Fee          decimal.Decimal        `json:"fee,omitempty"`
	BalanceAfter decimal.Decimal        `json:"balance_after,omitempty"`
	ActorID      int64                  `json:"actor_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Publish sends one event to both transports.
func (p *LedgerEventPublisher) Publish(ctx context.Context, event *LedgerEvent) {
	if p == nil {
		return
	}
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal ledger event", zap.Error(err))
		return
	}

	if p.writer != nil {
		msg := kafka.Message{
			Key:   []byte(fmt.Sprintf("%d", event.AccountID)),
			Value: payload,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Warn("failed to publish ledger event to kafka",
				zap.String("event_type", event.EventType),
				zap.Error(err))
		}
	}

	if p.rdb != nil {
		if err := p.rdb.Publish(ctx, LedgerEventsChannel, payload).Err(); err != nil {
			p.logger.Warn("failed to publish ledger event to redis",
				zap.String("event_type", event.EventType),
				zap.Error(err))
		}
	}

	p.logger.Debug("published ledger event",
		zap.String("event_type", event.EventType),
		zap.Int64("account_id", event.AccountID),
		zap.String("reference", event.Reference))
}

func (p *LedgerEventPublisher) DepositReviewed(ctx context.Context, approved bool, accountID int64, reference string, amount, balanceAfter decimal.Decimal, actorID int64) {
	eventType := "deposit.approved"
	if !approved {
		eventType = "deposit.rejected"
	}
	p.Publish(ctx, &LedgerEvent{
		EventType:    eventType,
		AccountID:    accountID,
		Reference:    reference,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		ActorID:      actorID,
	})
}

func (p *LedgerEventPublisher) WithdrawalReviewed(ctx context.Context, approved bool, accountID int64, reference string, amount, fee, balanceAfter decimal.Decimal, actorID int64) {
	eventType := "withdrawal.approved"
	if !approved {
		eventType = "withdrawal.rejected"
	}
	p.Publish(ctx, &LedgerEvent{
		EventType:    eventType,
		AccountID:    accountID,
		Reference:    reference,
		Amount:       amount,
		Fee:          fee,
		BalanceAfter: balanceAfter,
		ActorID:      actorID,
	})
}

func (p *LedgerEventPublisher) RewardClaimed(ctx context.Context, channel string, accountID int64, reference string, amount decimal.Decimal) {
	p.Publish(ctx, &LedgerEvent{
		EventType: "reward." + channel + ".claimed",
		AccountID: accountID,
		Reference: reference,
		Amount:    amount,
	})
}

func (p *LedgerEventPublisher) CommissionPaid(ctx context.Context, referrerID, referredID int64, amount decimal.Decimal) {
	p.Publish(ctx, &LedgerEvent{
		EventType: "referral.commission_paid",
		AccountID: referrerID,
		Amount:    amount,
		Metadata:  map[string]interface{}{"referred_id": referredID},
	})
}

func (p *LedgerEventPublisher) PolicyUpdated(ctx context.Context, actorID int64, key string) {
	p.Publish(ctx, &LedgerEvent{
		EventType: "policy.updated",
		ActorID:   actorID,
		Amount:    decimal.Zero,
		Metadata:  map[string]interface{}{"key": key},
	})
}
