// Package ratelimit throttles MCP tool calls with per-tool token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrLimited is returned by CheckLimit when a tool has no tokens left.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter is a token bucket per key. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   float64 // bucket capacity and initial fill
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   float64(burst),
		nowFunc: time.Now,
	}
}

// refill returns the bucket for key with tokens accrued up to now.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
		return b
	}
	if dt := now.Sub(b.last).Seconds(); dt > 0 {
		b.tokens = math.Min(l.burst, b.tokens+l.rate*dt)
		b.last = now
	}
	return b
}

// Allow takes one token for key.
func (l *Limiter) Allow(key string) bool {
	_, ok := l.Take(key, 1)
	return ok
}

// Take removes cost tokens from key's bucket. When too few are left it
// takes nothing and returns how long until cost tokens will be available.
// A cost above the burst can never be satisfied and waits forever.
func (l *Limiter) Take(key string, cost float64) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= cost {
		b.tokens -= cost
		return 0, true
	}
	if cost > l.burst || l.rate <= 0 {
		return time.Duration(math.MaxInt64), false
	}
	wait := (cost - b.tokens) / l.rate
	return time.Duration(wait * float64(time.Second)), false
}

// Tokens reports the tokens currently available to key.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refill(key).tokens
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default limits for the wcimg tools. Tools
// that decode and histogram whole files get smaller budgets than the
// inspect summary.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"wcimg_inspect":    NewLimiter(1.0, 10),      // 60/minute, burst 10
		"wcimg_signatures": NewLimiter(20.0/60.0, 5), // 20/minute, burst 5
		"wcimg_activity":   NewLimiter(20.0/60.0, 5), // 20/minute, burst 5
		"wcimg_graph":      NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
	}
}

// CheckLimit takes one token for toolName. Tools without a limiter are
// always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if wait, ok := limiter.Take(toolName, 1); !ok {
		return fmt.Errorf("%w for %s, retry in %s", ErrLimited, toolName, wait.Round(time.Second))
	}
	return nil
}
