package presence

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/wardenlink/internal/reliability/circuitbreaker"
)

// DefaultBusChannel is the redis channel hub events travel on.
const DefaultBusChannel = "wardenlink:events"

type pubsub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RedisBus relays hub events between server instances. While redis is
// failing the breaker opens and events are delivered locally only.
type RedisBus struct {
	ps      pubsub
	channel string
	local   func(Event)
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewRedisBus creates a bus delivering received events through local,
// normally Hub.Deliver.
func NewRedisBus(ps pubsub, channel string, local func(Event), breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	if channel == "" {
		channel = DefaultBusChannel
	}
	return &RedisBus{ps: ps, channel: channel, local: local, breaker: breaker, logger: logger}
}

// Publish sends ev to every instance. Delivery on this instance happens when
// the event comes back through the subscription.
func (b *RedisBus) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to encode bus event", slog.String("error", err.Error()))
		return
	}
	err = b.breaker.Execute(func() error {
		return b.ps.Publish(ctx, b.channel, payload)
	})
	if err == nil {
		return
	}
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		b.logger.Warn("bus publish failed, delivering locally",
			slog.String("event", ev.Name),
			slog.String("error", err.Error()),
		)
	}
	b.local(ev)
}

// Run consumes the channel until ctx is done or the subscription ends.
func (b *RedisBus) Run(ctx context.Context) error {
	msgs, err := b.ps.Subscribe(ctx, b.channel)
	if err != nil {
		return err
	}
	b.logger.Info("event bus subscribed", slog.String("channel", b.channel))
	for payload := range msgs {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			b.logger.Warn("discarding malformed bus event", slog.String("error", err.Error()))
			continue
		}
		b.local(ev)
	}
	return ctx.Err()
}
