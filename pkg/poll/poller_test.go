package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

func TestLoop_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	var seenTimeout atomic.Int64
	fn := func(ctx context.Context, timeout time.Duration) error {
		seenTimeout.Store(int64(timeout))
		if calls.Add(1) == 3 {
			cancel()
		}
		return errors.New("transient")
	}

	l := NewLoop("f-test~rt", Config{Delay: time.Millisecond, Timeout: 2 * time.Second}, fn, logger.NewNop())

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop after cancellation")
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if l.Iterations() != 3 {
		t.Fatalf("expected 3 iterations, got %d", l.Iterations())
	}
	if time.Duration(seenTimeout.Load()) != 2*time.Second {
		t.Fatalf("expected timeout 2s, got %s", time.Duration(seenTimeout.Load()))
	}
}

func TestLoop_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	l := NewLoop("f-test~rt", Config{}, func(context.Context, time.Duration) error {
		calls.Add(1)
		return nil
	}, logger.NewNop())
	l.Run(ctx)

	if calls.Load() != 0 {
		t.Fatalf("expected no calls, got %d", calls.Load())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Delay != 100*time.Millisecond || cfg.Timeout != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
