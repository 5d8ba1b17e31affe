// Package events fans ledger state changes out to the external realtime and
// notification systems. Delivery is best effort: the ledger commit has already
// happened by the time an event is published, and a failed publish is logged
// and dropped, never propagated back to the caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "ledger_events"

type Type string

const (
	BetPlaced      Type = "bet.placed"
	BetSettled     Type = "bet.settled"
	BetDeleted     Type = "bet.deleted"
	SessionClosed  Type = "session.closed"
	SessionDeleted Type = "session.deleted"
)

type Event struct {
	Type      Type       `json:"type"`
	UserID    uint       `json:"userId"`
	SessionID uuid.UUID  `json:"sessionId"`
	BetID     *uuid.UUID `json:"betId,omitempty"`
	At        time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher broadcasts events on a pub/sub channel consumed by the
// realtime gateway.
type RedisPublisher struct {
	r       *redis.Client
	log     *zap.Logger
	channel string
}

func NewRedisPublisher(r *redis.Client, log *zap.Logger, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{r: r, log: log, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("event marshal failed", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.r.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.Warn("event publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("channel", p.channel),
			zap.Error(err))
	}
}

// Nop discards all events. Used when no Redis address is configured and in
// tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
