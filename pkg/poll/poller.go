package poll

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

// loop implements the Runner interface
type loop struct {
	name       string
	cfg        Config
	fn         PollFunc
	logger     *logger.CanonicalLogger
	iterations atomic.Uint64
}

// NewLoop creates a Runner that calls fn back to back with cfg.Delay between
// calls. Cancellation is checked once per iteration without blocking, so an
// in-flight call always completes before the loop exits.
func NewLoop(name string, cfg Config, fn PollFunc, log *logger.CanonicalLogger) Runner {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultConfig().Delay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &loop{
		name:   name,
		cfg:    cfg,
		fn:     fn,
		logger: log.WithFeedID(name),
	}
}

func (l *loop) Iterations() uint64 {
	return l.iterations.Load()
}

// Run performs the polling loop
func (l *loop) Run(ctx context.Context) {
	l.logger.Info("started polling", zap.Duration("delay", l.cfg.Delay), zap.Duration("timeout", l.cfg.Timeout))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping poller", zap.Uint64("iterations", l.iterations.Load()))
			return
		default:
		}

		l.iterations.Add(1)
		if err := l.fn(ctx, l.cfg.Timeout); err != nil {
			l.logger.Error("poll failed", zap.Error(err))
		}
		time.Sleep(l.cfg.Delay) // Prevent tight loop
	}
}
