// Package notify delivers coarse change signals. A signal names only the
// collection that changed; consumers re-fetch whatever they display.
package notify

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const channel = "meridian:changes"

// Broker publishes and subscribes to collection-change signals over Redis
// pub/sub, fanning out across server instances.
type Broker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBroker constructs a Broker.
func NewBroker(client *redis.Client, logger *slog.Logger) *Broker {
	return &Broker{client: client, logger: logger}
}

// Changed announces that a collection changed. Failures are logged, not
// returned to the mutation path.
func (b *Broker) Changed(ctx context.Context, entity string) error {
	if err := b.client.Publish(ctx, channel, entity).Err(); err != nil {
		if b.logger != nil {
			b.logger.Warn("publish change signal", slog.String("entity", entity), slog.Any("error", err))
		}
		return err
	}
	return nil
}

// Subscribe returns a channel of entity names. The channel closes when ctx
// is cancelled.
func (b *Broker) Subscribe(ctx context.Context) (<-chan string, error) {
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
