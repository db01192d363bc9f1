package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/metrics"
)

const (
	DefaultConcurrency = 50
	DefaultCadence     = 500 * time.Millisecond
	DefaultTimeout     = 15 * time.Second
)

// AgencyPoller runs one cycle for one agency.
type AgencyPoller interface {
	Poll(ctx context.Context, agency feed.Agency, timeout time.Duration) (models.FetchResult, error)
}

type Config struct {
	// Concurrency bounds the number of agencies polled at once.
	Concurrency int
	// Timeout is the per-fetch budget handed to the poller.
	Timeout time.Duration
	// Cadence is the target interval between round starts.
	Cadence time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Cadence <= 0 {
		c.Cadence = DefaultCadence
	}
	return c
}

// Batch polls a fixed catalog in rounds. Every round polls every agency once
// with at most Concurrency in flight and waits for all of them before the
// next round is considered. A round that finishes early sleeps the rest of
// the cadence; a round that overruns is followed immediately by the next.
// Per-agency fetch intervals are ignored.
type Batch struct {
	agencies []feed.Agency
	poller   AgencyPoller
	cfg      Config
	clock    Clock
	logger   *logger.CanonicalLogger
	round    uint64
}

type Option func(*Batch)

func WithClock(c Clock) Option {
	return func(b *Batch) {
		b.clock = c
	}
}

// NewBatch copies agencies; later changes to the caller's slice are not seen.
func NewBatch(agencies []feed.Agency, poller AgencyPoller, cfg Config, log *logger.CanonicalLogger, opts ...Option) *Batch {
	b := &Batch{
		agencies: append([]feed.Agency(nil), agencies...),
		poller:   poller,
		cfg:      cfg.withDefaults(),
		clock:    RealClock(),
		logger:   log.Component("batch"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run loops rounds until ctx is cancelled.
func (b *Batch) Run(ctx context.Context) error {
	b.logger.Info("batch scheduler started",
		logger.Int(logger.FieldAgencies, len(b.agencies)),
		logger.Int("concurrency", b.cfg.Concurrency),
		logger.Duration("cadence", b.cfg.Cadence),
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		elapsed := b.RunRound(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if elapsed >= b.cfg.Cadence {
			b.logger.Info("round overran cadence, starting next immediately",
				logger.Uint64(logger.FieldRound, b.round),
				logger.Duration("elapsed", elapsed),
			)
			continue
		}

		wait := b.cfg.Cadence - elapsed
		b.logger.Debug("round finished",
			logger.Uint64(logger.FieldRound, b.round),
			logger.Duration("elapsed", elapsed),
			logger.Duration("sleep", wait),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-b.clock.After(wait):
		}
	}
}

// RunRound polls every agency once and returns the round duration measured
// from its start to the completion of the last poll.
func (b *Batch) RunRound(ctx context.Context) time.Duration {
	b.round++
	start := b.clock.Now()

	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	for _, agency := range b.agencies {
		g.Go(func() error {
			if _, err := b.poller.Poll(ctx, agency, b.cfg.Timeout); err != nil {
				b.logger.WithFeedID(agency.Info.ID).WithError(err).Warn("poll failed",
					logger.Uint64(logger.FieldRound, b.round),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := b.clock.Now().Sub(start)
	metrics.RecordRound(elapsed)
	return elapsed
}
