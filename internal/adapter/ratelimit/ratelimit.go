// Package ratelimit implements fixed-window request admission control
// with two interchangeable backends: a Redis shared counter that is safe
// across processes, and an in-process fallback that is correct only
// within a single process.
package ratelimit

import (
	"fmt"
	"time"

	"ragserver/config"
	"ragserver/internal/port"
)

// Endpoint classes with independent counters per client.
const (
	ClassUpload = "upload"
	ClassAsk    = "ask"
)

// Limits holds the per-class admission limits for one window.
type Limits struct {
	Window   time.Duration
	PerClass map[string]int
}

// limitFor returns the limit for a class; unknown classes are unlimited.
func (l Limits) limitFor(class string) (int, bool) {
	n, ok := l.PerClass[class]
	return n, ok
}

// FromConfig builds the configured limiter. The redis backend is wrapped
// in a failover so a request is never rejected because Redis is down.
func FromConfig(cfg config.RateLimitConfig) (port.Limiter, error) {
	limits := Limits{
		Window: time.Duration(cfg.WindowSecs) * time.Second,
		PerClass: map[string]int{
			ClassUpload: cfg.UploadLimit,
			ClassAsk:    cfg.AskLimit,
		},
	}

	switch cfg.Backend {
	case "redis":
		primary, err := NewRedisLimiter(cfg.RedisURL, limits)
		if err != nil {
			return nil, fmt.Errorf("rate limit backend: %w", err)
		}
		return NewFailover(primary, NewMemoryLimiter(limits)), nil
	case "memory", "":
		return NewMemoryLimiter(limits), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %q", cfg.Backend)
	}
}
