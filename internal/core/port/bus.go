package port

import "context"

// MessageBus fans chat traffic out to every instance a room's participants
// may be connected to. One subscriber connection per instance; subscribe
// and unsubscribe are idempotent at the channel-name level.
type MessageBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
}
