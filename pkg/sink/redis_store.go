package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// PayloadKey is the Redis key holding the latest payload of a channel.
func PayloadKey(feedID string, kind models.FeedKind) string {
	return fmt.Sprintf("gtfsrt|%s|%s", feedID, kind)
}

// TimestampKey is the Redis key holding the unix millis of the last write.
func TimestampKey(feedID string, kind models.FeedKind) string {
	return fmt.Sprintf("gtfsrttime|%s|%s", feedID, kind)
}

// RedisStore writes payloads and their write time in one transaction.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Put(ctx context.Context, feedID string, kind models.FeedKind, payload []byte) error {
	millis := s.now().UnixMilli()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, PayloadKey(feedID, kind), payload, 0)
		pipe.Set(ctx, TimestampKey(feedID, kind), millis, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", PayloadKey(feedID, kind), err)
	}
	return nil
}
