package sink

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStorePutWritesPayloadAndTimestamp(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)
	fixed := time.UnixMilli(1700000000123)
	store.now = func() time.Time { return fixed }

	payload := []byte{0x0a, 0x00, 0xff, 0x10}
	require.NoError(t, store.Put(context.Background(), "f-test~rt", models.KindVehicles, payload))

	got, err := mr.Get("gtfsrt|f-test~rt|vehicles")
	require.NoError(t, err)
	assert.Equal(t, string(payload), got)

	ts, err := mr.Get("gtfsrttime|f-test~rt|vehicles")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(fixed.UnixMilli(), 10), ts)
}

func TestRedisStorePutOverwrites(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "f-a~rt", models.KindAlerts, []byte("first")))
	require.NoError(t, store.Put(ctx, "f-a~rt", models.KindAlerts, []byte("second")))

	got, err := mr.Get(PayloadKey("f-a~rt", models.KindAlerts))
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestRedisStorePutFailsWhenServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)
	mr.Close()

	err := store.Put(context.Background(), "f-a~rt", models.KindTrips, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gtfsrt|f-a~rt|trips")
}
