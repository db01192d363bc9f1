package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/pkg/database"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/pubsub"
	"github.com/Alwanly/service-feed-ingest/pkg/sink"
)

// Sink is the configured store and forwarder plus whatever must be closed
// on shutdown.
type Sink struct {
	Store     sink.Store
	Forwarder sink.Forwarder
	PubSub    pubsub.PubSub

	closers []func()
}

func (s *Sink) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewSink builds the store selected by cfg.Backend and the pub/sub
// forwarder. The Redis client is shared between the Redis store and the
// forwarder; it is only dialled when one of them needs it.
func NewSink(ctx context.Context, cfg config.SinkConfig, redisCfg pubsub.RedisConfig, log *logger.CanonicalLogger) (*Sink, error) {
	s := &Sink{}

	var client *redis.Client
	redisClient := func() (*redis.Client, error) {
		if client != nil {
			return client, nil
		}
		c, err := pubsub.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		client = c
		s.closers = append(s.closers, func() { _ = c.Close() })
		return c, nil
	}

	switch cfg.Backend {
	case config.BackendRedis, "":
		c, err := redisClient()
		if err != nil {
			return nil, err
		}
		s.Store = sink.NewRedisStore(c)
	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			s.closers = append(s.closers, func() { _ = sqlDB.Close() })
		}
		s.Store = sink.NewGormStore(db)
	case config.BackendPostgres:
		pg, err := sink.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		s.Store = pg
	default:
		return nil, fmt.Errorf("unknown sink backend %q", cfg.Backend)
	}

	if !cfg.Forward {
		s.Forwarder = sink.NopForwarder{}
		log.Info("sink ready", logger.String("backend", cfg.Backend), logger.Bool("forward", false))
		return s, nil
	}

	c, err := redisClient()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.PubSub = pubsub.NewRedisPubSubFromClient(c, log.Component("pubsub"))
	s.Forwarder = sink.NewPubSubForwarder(s.PubSub, cfg.ForwardChannel)

	log.Info("sink ready",
		logger.String("backend", cfg.Backend),
		logger.String("forward_channel", cfg.ForwardChannel),
	)
	return s, nil
}
