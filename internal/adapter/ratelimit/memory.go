package ratelimit

import (
	"sync"
	"time"
)

type logEntry struct {
	ts    time.Time
	class string
}

// MemoryLimiter is the in-process fixed-window fallback. One mutex guards
// the request log for all readers and writers; it is held only for the
// map walk, never across any I/O.
type MemoryLimiter struct {
	limits Limits

	mu  sync.Mutex
	log map[string][]logEntry

	now func() time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(limits Limits) *MemoryLimiter {
	return &MemoryLimiter{
		limits: limits,
		log:    make(map[string][]logEntry),
		now:    time.Now,
	}
}

// Allow prunes entries older than the window, counts the client's
// requests in the given class, and admits when the count is still below
// the limit. The current request is recorded only when admitted, so
// rejected requests do not consume budget.
//
// Note the counting style: this backend rejects when the pre-recording
// count is already at the limit, while the Redis backend rejects when the
// post-increment count exceeds it. Both admit at most N requests per
// window; the asymmetry matches the two counters' bookkeeping and is
// kept per backend.
func (m *MemoryLimiter) Allow(client, class string) bool {
	limit, ok := m.limits.limitFor(class)
	if !ok {
		return true
	}

	now := m.now()
	cutoff := now.Add(-m.limits.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.log[client]
	kept := entries[:0]
	count := 0
	for _, e := range entries {
		if e.ts.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
		if e.class == class {
			count++
		}
	}

	if count >= limit {
		m.log[client] = kept
		return false
	}

	m.log[client] = append(kept, logEntry{ts: now, class: class})
	return true
}
