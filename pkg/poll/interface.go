package poll

import (
	"context"
	"time"
)

// Runner drives a poll function until its context ends
type Runner interface {
	// Run blocks until ctx is cancelled
	Run(ctx context.Context)
	// Iterations reports how many times the poll function has been called
	Iterations() uint64
}

// PollFunc performs one poll with the given per-fetch timeout. An error is
// logged by the loop and never stops it.
type PollFunc func(ctx context.Context, timeout time.Duration) error
