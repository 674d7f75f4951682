// Package events publishes movement lifecycle events to a Redis stream so
// other services (notifications, reporting) can react without being in the
// request path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// Stream is the Redis stream movement events are appended to.
const Stream = "movements"

type movementEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Movement  domain.Movement `json:"movement"`
}

// Publisher appends movement events to a Redis stream. A nil *Publisher is
// valid and publishes nothing, so callers need no feature flag.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher backed by the given Redis client.
func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// MovementCompleted publishes a terminal movement. Failures are logged and
// swallowed: event delivery must never affect the saga's outcome.
func (p *Publisher) MovementCompleted(ctx context.Context, movement domain.Movement) {
	if p == nil {
		return
	}
	event := movementEvent{
		Type:      "movement." + string(movement.Status),
		Timestamp: time.Now().UTC(),
		Movement:  movement,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal movement event", slog.String("error", err.Error()))
		return
	}
	args := &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]any{"event": payload},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Error("Failed to publish movement event",
			slog.String("movement_id", movement.MovementID),
			slog.String("error", err.Error()))
	}
}
