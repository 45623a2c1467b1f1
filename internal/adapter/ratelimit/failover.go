package ratelimit

import "log/slog"

// sharedLimiter is a shared-counter backend that may fail at request time.
type sharedLimiter interface {
	allow(client, class string) (bool, error)
}

// Failover decides through the shared backend and degrades to the local
// fallback for any request the backend could not serve. A request is
// never rejected purely because the backend is unreachable.
type Failover struct {
	primary  sharedLimiter
	fallback *MemoryLimiter
}

// NewFailover wraps a shared-counter limiter with a local fallback.
func NewFailover(primary sharedLimiter, fallback *MemoryLimiter) *Failover {
	return &Failover{primary: primary, fallback: fallback}
}

// Allow implements port.Limiter.
func (f *Failover) Allow(client, class string) bool {
	ok, err := f.primary.allow(client, class)
	if err != nil {
		slog.Warn("shared rate limiter unavailable, using local fallback",
			"class", class, "error", err)
		return f.fallback.Allow(client, class)
	}
	return ok
}
