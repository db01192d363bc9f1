package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS feed_snapshots (
	feed_id    TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	payload    BYTEA       NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (feed_id, kind)
)`

const upsertSnapshot = `
INSERT INTO feed_snapshots (feed_id, kind, payload, fetched_at, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (feed_id, kind)
DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at, updated_at = now()`

// PostgresStore keeps one feed_snapshots row per (feed, kind).
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects to dsn and creates the snapshots table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create feed_snapshots: %w", err)
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

func (s *PostgresStore) Put(ctx context.Context, feedID string, kind models.FeedKind, payload []byte) error {
	if _, err := s.pool.Exec(ctx, upsertSnapshot, feedID, string(kind), payload, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert snapshot %s/%s: %w", feedID, kind, err)
	}
	return nil
}

// Get returns the stored payload, or nil when none exists.
func (s *PostgresStore) Get(ctx context.Context, feedID string, kind models.FeedKind) ([]byte, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM feed_snapshots WHERE feed_id = $1 AND kind = $2`, feedID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s/%s: %w", feedID, kind, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var payload []byte
	if err := rows.Scan(&payload); err != nil {
		return nil, fmt.Errorf("scan snapshot %s/%s: %w", feedID, kind, err)
	}
	return payload, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
