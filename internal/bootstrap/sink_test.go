package bootstrap

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/pubsub"
	"github.com/Alwanly/service-feed-ingest/pkg/sink"
)

func redisConfig(t *testing.T, mr *miniredis.Miniredis) pubsub.RedisConfig {
	t.Helper()
	return pubsub.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)}
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func TestNewSink_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewSink(ctx, config.SinkConfig{Backend: config.BackendRedis, Forward: true, ForwardChannel: "feeds:test"}, redisConfig(t, mr), logger.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Store.Put(ctx, "f-a~rt", models.KindVehicles, []byte("x")))
	got, err := mr.Get(sink.PayloadKey("f-a~rt", models.KindVehicles))
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	assert.IsType(t, &sink.PubSubForwarder{}, s.Forwarder)
	require.NoError(t, s.Forwarder.Publish(ctx, sink.Forward{FeedID: "f-a~rt"}))
}

func TestNewSink_SQLiteWithoutForward(t *testing.T) {
	ctx := context.Background()
	cfg := config.SinkConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "feeds.db")}

	// no redis is needed when nothing uses it
	s, err := NewSink(ctx, cfg, pubsub.RedisConfig{Host: "127.0.0.1", Port: 1}, logger.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &sink.GormStore{}, s.Store)
	assert.Equal(t, sink.NopForwarder{}, s.Forwarder)
	require.NoError(t, s.Store.Put(ctx, "f-a~rt", models.KindTrips, []byte("t")))
}

func TestNewSink_UnknownBackend(t *testing.T) {
	_, err := NewSink(context.Background(), config.SinkConfig{Backend: "cassandra"}, pubsub.RedisConfig{}, logger.NewNop())
	require.Error(t, err)
}
