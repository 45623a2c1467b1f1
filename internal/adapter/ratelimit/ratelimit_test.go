package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() Limits {
	return Limits{
		Window: 60 * time.Second,
		PerClass: map[string]int{
			ClassUpload: 3,
			ClassAsk:    5,
		},
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	lim := NewMemoryLimiter(testLimits())
	now := time.Unix(1_700_000_000, 0)
	lim.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, lim.Allow("10.0.0.1", ClassUpload), "request %d should be admitted", i+1)
	}
	assert.False(t, lim.Allow("10.0.0.1", ClassUpload), "4th request in window should be rejected")

	// After the window elapses the client is admitted again.
	now = now.Add(61 * time.Second)
	assert.True(t, lim.Allow("10.0.0.1", ClassUpload))
}

func TestMemoryLimiterClassIndependence(t *testing.T) {
	lim := NewMemoryLimiter(testLimits())

	for i := 0; i < 3; i++ {
		require.True(t, lim.Allow("10.0.0.1", ClassUpload))
	}
	require.False(t, lim.Allow("10.0.0.1", ClassUpload))

	// Exhausting the upload budget must not consume the ask budget.
	for i := 0; i < 5; i++ {
		assert.True(t, lim.Allow("10.0.0.1", ClassAsk))
	}
	assert.False(t, lim.Allow("10.0.0.1", ClassAsk))
}

func TestMemoryLimiterClientIsolation(t *testing.T) {
	lim := NewMemoryLimiter(testLimits())

	for i := 0; i < 3; i++ {
		require.True(t, lim.Allow("10.0.0.1", ClassUpload))
	}
	require.False(t, lim.Allow("10.0.0.1", ClassUpload))

	assert.True(t, lim.Allow("10.0.0.2", ClassUpload), "a different client has its own window")
}

func TestMemoryLimiterRejectionsDoNotConsume(t *testing.T) {
	lim := NewMemoryLimiter(testLimits())
	now := time.Unix(1_700_000_000, 0)
	lim.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		require.True(t, lim.Allow("c", ClassUpload))
	}
	for i := 0; i < 10; i++ {
		require.False(t, lim.Allow("c", ClassUpload))
	}

	// Only the 3 admitted entries age out; the rejections left no trace.
	now = now.Add(61 * time.Second)
	assert.True(t, lim.Allow("c", ClassUpload))
}

func TestMemoryLimiterUnknownClassUnlimited(t *testing.T) {
	lim := NewMemoryLimiter(testLimits())
	for i := 0; i < 100; i++ {
		assert.True(t, lim.Allow("c", "health"))
	}
}

type stubShared struct {
	ok    bool
	err   error
	calls int
}

func (s *stubShared) allow(client, class string) (bool, error) {
	s.calls++
	return s.ok, s.err
}

func TestFailoverUsesPrimaryDecision(t *testing.T) {
	primary := &stubShared{ok: false}
	f := NewFailover(primary, NewMemoryLimiter(testLimits()))

	assert.False(t, f.Allow("c", ClassUpload))
	assert.Equal(t, 1, primary.calls)
}

func TestFailoverDegradesToLocal(t *testing.T) {
	primary := &stubShared{err: errors.New("connection refused")}
	f := NewFailover(primary, NewMemoryLimiter(testLimits()))

	// The backend failure must not fail requests: the local window takes
	// over with its own counting.
	for i := 0; i < 3; i++ {
		assert.True(t, f.Allow("c", ClassUpload))
	}
	assert.False(t, f.Allow("c", ClassUpload))
}
