// Package ratelimit provides per-key token bucket rate limiting for the
// nrrw MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is wrapped by CheckLimit when a tool's bucket is empty.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter is a per-key token bucket. Every key starts with a full bucket of
// burst tokens that refills at rate tokens per second. It is safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether one token could be taken from key's bucket.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN takes n tokens from key's bucket if that many are available.
// Requests larger than the burst size are never allowed.
func (l *Limiter) AllowN(key string, n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Tokens returns the tokens currently available to key.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.refill(key).tokens
}

// refill must be called with l.mu held.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}
	return b
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates one limiter per named tool, all sharing rate and burst.
func NewToolLimiters(rate float64, burst int, tools ...string) ToolLimiters {
	limiters := make(ToolLimiters, len(tools))
	for _, tool := range tools {
		limiters[tool] = NewLimiter(rate, burst)
	}
	return limiters
}

// CheckLimit takes one token for toolName. Tools without a configured
// limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, toolName)
	}

	return nil
}
