// Package ratelimit limits requests per key with a Redis sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Config defines a limit of RequestsPerWindow within WindowSize.
type Config struct {
	RequestsPerWindow int
	WindowSize        time.Duration
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Config() Config
}
