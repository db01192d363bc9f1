package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type redisPubSub struct {
	client    *redis.Client
	ownClient bool
	pubsub    *redis.PubSub
	logger    *logger.CanonicalLogger
	messageCh chan Message
	cancel    context.CancelFunc
}

// NewRedisClient opens a client and pings it once.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewRedisPubSub creates a pub/sub bound to its own client
func NewRedisPubSub(cfg RedisConfig, log *logger.CanonicalLogger) (PubSub, error) {
	client, err := NewRedisClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	r := newRedisPubSub(client, log)
	r.ownClient = true

	log.Info("redis client initialized", logger.String("addr", cfg.Addr()))
	return r, nil
}

// NewRedisPubSubFromClient shares an existing client. Close leaves the
// client open.
func NewRedisPubSubFromClient(client *redis.Client, log *logger.CanonicalLogger) PubSub {
	return newRedisPubSub(client, log)
}

func newRedisPubSub(client *redis.Client, log *logger.CanonicalLogger) *redisPubSub {
	return &redisPubSub{
		client:    client,
		logger:    log,
		messageCh: make(chan Message, 16),
	}
}

// Publish publishes a message to a Redis channel
func (r *redisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		r.logger.WithError(err).Error("failed to publish message to redis")
		return err
	}
	return nil
}

// Ping checks if Redis connection is healthy
func (r *redisPubSub) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IsHealthy returns true if Redis connection is active
func (r *redisPubSub) IsHealthy(ctx context.Context) bool {
	return r.Ping(ctx) == nil
}

// Subscribe subscribes to Redis channels
func (r *redisPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, nil
	}

	r.pubsub = r.client.Subscribe(ctx, channels...)
	// wait for the subscription to be confirmed so no message is missed
	if _, err := r.pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe to %v: %w", channels, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.listen(listenCtx)

	r.logger.Info("subscribed to redis channels", logger.Any("channels", channels))
	return r.messageCh, nil
}

// Unsubscribe unsubscribes from Redis channels
func (r *redisPubSub) Unsubscribe(ctx context.Context, channels ...string) error {
	if r.pubsub == nil {
		return nil
	}
	return r.pubsub.Unsubscribe(ctx, channels...)
}

// Close closes the subscription and, if owned, the Redis connection
func (r *redisPubSub) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.pubsub != nil {
		_ = r.pubsub.Close()
	}
	if r.ownClient && r.client != nil {
		if err := r.client.Close(); err != nil {
			r.logger.WithError(err).Error("failed to close redis client")
			return err
		}
	}
	return nil
}

// listen forwards messages until ctx is cancelled, then closes messageCh
func (r *redisPubSub) listen(ctx context.Context) {
	defer close(r.messageCh)

	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping redis listener")
			return
		case m, ok := <-ch:
			if !ok {
				r.logger.Info("redis pubsub channel closed")
				return
			}
			select {
			case r.messageCh <- Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}
}
