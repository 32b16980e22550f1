package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ChannelBookingCreated   = "booking.created"
	ChannelBookingCancelled = "booking.cancelled"
	ChannelBookingCompleted = "booking.completed"
)

// Publisher pushes domain events onto redis pub/sub channels. Publishing is
// strictly best-effort: callers have already committed their state change and
// a transport failure must never bubble back up to them.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event payload",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	p.logger.Info("event published", zap.String("channel", channel))
}
