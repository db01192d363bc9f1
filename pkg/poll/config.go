package poll

import "time"

// Config holds configuration for a persistent poll loop
type Config struct {
	// Delay between the end of one iteration and the start of the next
	Delay time.Duration
	// Timeout is the per-fetch budget passed to the polled function
	Timeout time.Duration
}

// DefaultConfig returns the fixed delay and timeout used by pool workers
func DefaultConfig() Config {
	return Config{
		Delay:   100 * time.Millisecond,
		Timeout: 15 * time.Second,
	}
}
