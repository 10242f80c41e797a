package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Has reports whether a limiter is registered under name
func (m *MultiLimiter) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.limiters[name]
	return ok
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names
const (
	LimiterAnthropic = "anthropic"
	LimiterGemini    = "gemini"
	LimiterFeeds     = "feeds"
)

// Limits holds per-minute budgets for the default limiter
type Limits struct {
	AnthropicPerMinute int
	GeminiPerMinute    int
	FeedsPerMinute     int
}

// NewDefaultLimiter creates a limiter with the given per-minute budgets.
// A zero budget falls back to the built-in default for that service.
func NewDefaultLimiter(l Limits) *MultiLimiter {
	m := NewMultiLimiter()

	// Anthropic: 5 requests per minute, burst 2. Web search briefings are slow and costly.
	m.AddLimiter(LimiterAnthropic, perSecond(l.AnthropicPerMinute, 5), 2)

	// Gemini: 10 requests per minute, burst 2
	m.AddLimiter(LimiterGemini, perSecond(l.GeminiPerMinute, 10), 2)

	// Feeds: be polite, 30 per minute, burst 10
	m.AddLimiter(LimiterFeeds, perSecond(l.FeedsPerMinute, 30), 10)

	return m
}

func perSecond(perMinute, fallback int) float64 {
	if perMinute <= 0 {
		perMinute = fallback
	}
	return float64(perMinute) / 60
}
