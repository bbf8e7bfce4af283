package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/pkg/envutil"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// ProgressBus fans per-round analysis events out to the API nodes that
// stream them to clients.
type ProgressBus interface {
	Publish(ctx context.Context, ev analysis.RoundEvent) error
	Subscribe(ctx context.Context, onEvent func(ev analysis.RoundEvent)) error
	Close() error
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(rdb *goredis.Client, log *logger.Logger) (ProgressBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisBus{
		log:     log.With("component", "ProgressBus"),
		rdb:     rdb,
		channel: envutil.String("ANALYSIS_PROGRESS_CHANNEL", "analysis_progress"),
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev analysis.RoundEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe blocks until ctx is done, invoking onEvent per message.
func (b *redisBus) Subscribe(ctx context.Context, onEvent func(ev analysis.RoundEvent)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev analysis.RoundEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("Dropping malformed progress event", "error", err)
				continue
			}
			onEvent(ev)
		}
	}
}

func (b *redisBus) Close() error { return nil }

// NopBus is used when no Redis is configured.
type NopBus struct{}

func (NopBus) Publish(context.Context, analysis.RoundEvent) error { return nil }
func (NopBus) Subscribe(ctx context.Context, _ func(analysis.RoundEvent)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (NopBus) Close() error { return nil }
