package sink

import (
	"context"
	"fmt"

	"github.com/Alwanly/service-feed-ingest/pkg/codec"
	"github.com/Alwanly/service-feed-ingest/pkg/pubsub"
)

// DefaultForwardChannel is the pub/sub channel the distribution service listens on.
const DefaultForwardChannel = "feeds:realtime"

// PubSubForwarder publishes each Forward as a CBOR message.
type PubSubForwarder struct {
	pub     pubsub.Publisher
	channel string
}

func NewPubSubForwarder(pub pubsub.Publisher, channel string) *PubSubForwarder {
	if channel == "" {
		channel = DefaultForwardChannel
	}
	return &PubSubForwarder{pub: pub, channel: channel}
}

func (f *PubSubForwarder) Publish(ctx context.Context, fwd Forward) error {
	payload, err := codec.Marshal(fwd)
	if err != nil {
		return fmt.Errorf("encode forward for %s: %w", fwd.FeedID, err)
	}
	if err := f.pub.Publish(ctx, f.channel, payload); err != nil {
		return fmt.Errorf("publish forward for %s: %w", fwd.FeedID, err)
	}
	return nil
}

// DecodeForward decodes a message published by PubSubForwarder.
func DecodeForward(payload []byte) (Forward, error) {
	var fwd Forward
	if err := codec.Unmarshal(payload, &fwd); err != nil {
		return Forward{}, fmt.Errorf("decode forward: %w", err)
	}
	return fwd, nil
}
