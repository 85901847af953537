package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a limiter whose clock only moves when advance is called.
func fakeClock(rate float64, burst int) (*Limiter, func(time.Duration)) {
	now := time.Unix(1_700_000_000, 0)
	l := NewLimiter(rate, burst)
	l.nowFunc = func() time.Time { return now }
	return l, func(d time.Duration) { now = now.Add(d) }
}

func TestAllow_Burst(t *testing.T) {
	l, _ := fakeClock(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("sim"), "request %d within burst", i+1)
	}
	assert.False(t, l.Allow("sim"), "request after burst exhaustion")
}

func TestAllow_Refill(t *testing.T) {
	l, advance := fakeClock(10, 2)

	l.Allow("sim")
	l.Allow("sim")
	require.False(t, l.Allow("sim"))

	// 10 tokens/sec for 150ms refills 1.5 tokens
	advance(150 * time.Millisecond)
	assert.True(t, l.Allow("sim"))
	assert.False(t, l.Allow("sim"))
}

func TestAllow_RefillCappedAtBurst(t *testing.T) {
	l, advance := fakeClock(100, 3)
	for i := 0; i < 3; i++ {
		l.Allow("sim")
	}

	advance(time.Minute)
	assert.InDelta(t, 3.0, l.Tokens("sim"), 1e-9)
}

func TestAllow_IndependentKeys(t *testing.T) {
	l, _ := fakeClock(0, 1)

	require.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "b has its own bucket")
}

func TestAllow_ZeroRateNeverRefills(t *testing.T) {
	l, advance := fakeClock(0, 2)
	l.Allow("sim")
	l.Allow("sim")

	advance(time.Hour)
	assert.False(t, l.Allow("sim"))
}

func TestAllowN(t *testing.T) {
	l, advance := fakeClock(1, 4)

	assert.False(t, l.AllowN("sim", 5), "request larger than burst")
	assert.True(t, l.AllowN("sim", 2.5))
	assert.InDelta(t, 1.5, l.Tokens("sim"), 1e-9)
	assert.False(t, l.AllowN("sim", 2))

	advance(500 * time.Millisecond)
	assert.True(t, l.AllowN("sim", 2))
}

func TestAllow_Concurrent(t *testing.T) {
	l, _ := fakeClock(0, 50)

	var wg sync.WaitGroup
	var allowed atomic.Int64
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("sim") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed.Load())
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters(0, 1, "nrrw_simulate")
	require.Contains(t, limiters, "nrrw_simulate")

	require.NoError(t, CheckLimit(limiters, "nrrw_simulate"))
	err := CheckLimit(limiters, "nrrw_simulate")
	require.ErrorIs(t, err, ErrLimited)
	assert.Contains(t, err.Error(), "nrrw_simulate")

	assert.NoError(t, CheckLimit(limiters, "unknown_tool"), "unconfigured tools are not limited")
}
