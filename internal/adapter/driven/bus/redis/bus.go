package redis

import (
	"context"
	"sync"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handler receives every message delivered on a subscribed channel.
type Handler func(channel string, payload []byte)

// Bus implements port.MessageBus over Redis pub/sub. One publisher
// connection and one subscriber connection per instance, shared by every
// local session; subscribe/unsubscribe are idempotent per channel name.
type Bus struct {
	pub     *redis.Client
	sub     *redis.PubSub
	handler Handler

	mu       sync.Mutex
	channels map[string]struct{}
}

func Open(ctx context.Context, addr, password string, db int, handler Handler) (*Bus, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}

	pub := redis.NewClient(opts)
	if err := pub.Ping(ctx).Err(); err != nil {
		pub.Close()
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "bus ping: %v", err)
	}

	subClient := redis.NewClient(opts)
	return &Bus{
		pub:      pub,
		sub:      subClient.Subscribe(ctx),
		handler:  handler,
		channels: make(map[string]struct{}),
	}, nil
}

// Run consumes the subscriber stream until Close. Delivery order follows
// each publisher's stream; there is no global order across instances.
func (b *Bus) Run() {
	for msg := range b.sub.Channel() {
		b.handler(msg.Channel, []byte(msg.Payload))
	}
	log.Info().Msg("Bus subscriber stream closed")
}

func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.pub.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "publish %s: %v", channel, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.channels[channel]; ok {
		return nil
	}
	if err := b.sub.Subscribe(ctx, channel); err != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "subscribe %s: %v", channel, err)
	}
	b.channels[channel] = struct{}{}
	return nil
}

func (b *Bus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.channels[channel]; !ok {
		return nil
	}
	if err := b.sub.Unsubscribe(ctx, channel); err != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "unsubscribe %s: %v", channel, err)
	}
	delete(b.channels, channel)
	return nil
}

func (b *Bus) Close() error {
	if err := b.sub.Close(); err != nil {
		return err
	}
	return b.pub.Close()
}
