package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ChannelPrefix = "pos:events:"
	ChannelAll    = "pos:events:all"

	OrderPlaced        = "order.placed"
	OrderCompleted     = "order.completed"
	InventoryRestocked = "inventory.restocked"
	ReportDrained      = "report.drained"
)

type Event struct {
	EventID    string           `json:"event_id"`
	EventType  string           `json:"event_type"`
	OrderID    int64            `json:"order_id,omitempty"`
	EmployeeID int64            `json:"employee_id,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Items      []int64          `json:"items,omitempty"`
	Count      int              `json:"count,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Publisher fans events out to a per-type channel and the shared "all" channel.
type Publisher struct {
	redis *redis.Client
	log   *zap.Logger
}

func NewPublisher(redisClient *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{redis: redisClient, log: log}
}

func Channel(eventType string) string {
	return ChannelPrefix + eventType
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.redis == nil {
		return nil
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.redis.Publish(ctx, Channel(event.EventType), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.redis.Publish(ctx, ChannelAll, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}

// PublishBestEffort logs instead of returning errors; callers have already committed.
func (p *Publisher) PublishBestEffort(ctx context.Context, event Event) {
	if err := p.Publish(ctx, event); err != nil && p.log != nil {
		p.log.Warn("event publish failed", zap.String("event_type", event.EventType), zap.Error(err))
	}
}
