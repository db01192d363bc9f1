package pubsub

import "context"

// Message is one payload received on a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Publisher is the write side used by the sink forwarder.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Subscriber is the read side, used by downstream consumers and tests.
// The returned channel is closed once the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Unsubscribe(ctx context.Context, channels ...string) error
	Close() error
}

type PubSub interface {
	Publisher
	Subscriber
}
