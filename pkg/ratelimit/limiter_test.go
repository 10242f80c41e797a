package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLimiter(t *testing.T) {
	m := NewDefaultLimiter(Limits{AnthropicPerMinute: 60})

	assert.True(t, m.Has(LimiterAnthropic))
	assert.True(t, m.Has(LimiterGemini))
	assert.True(t, m.Has(LimiterFeeds))
	assert.False(t, m.Has("openai"))

	// burst of 2
	assert.True(t, m.Allow(LimiterAnthropic))
	assert.True(t, m.Allow(LimiterAnthropic))
	assert.False(t, m.Allow(LimiterAnthropic))
}

func TestWait_UnknownLimiter(t *testing.T) {
	m := NewMultiLimiter()
	assert.Error(t, m.Wait(context.Background(), "missing"))
	assert.False(t, m.Allow("missing"))
}

func TestPerSecond(t *testing.T) {
	assert.InDelta(t, 0.5, perSecond(30, 5), 1e-9)
	assert.InDelta(t, 5.0/60, perSecond(0, 5), 1e-9)
}
