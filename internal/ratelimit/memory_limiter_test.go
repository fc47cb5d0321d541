package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sessionforge/session-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ruleConfig(limit int, window string, whitelist ...int64) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: limit, Window: window},
		Whitelist: whitelist,
	}
}

func TestMemoryLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "user:1", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:2", 2, time.Minute)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:2", 2, time.Minute)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:3", 2, 100*time.Millisecond)
		assert.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(150 * time.Millisecond)

	result, err := limiter.Check(ctx, "user:3", 2, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:4", 1, time.Minute)
	assert.NoError(t, err)

	result, err := limiter.Check(ctx, "user:5", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_CleanupDropsStaleBuckets(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger()).(*MemoryLimiter)
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:6", 5, time.Minute)
	assert.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	limiter.Cleanup(10 * time.Millisecond)

	limiter.mu.Lock()
	_, exists := limiter.buckets["user:6"]
	limiter.mu.Unlock()
	assert.False(t, exists)
}

func TestRules_Whitelist(t *testing.T) {
	rules := NewRules(ruleConfig(20, "1m", 42))

	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(43))
}

func TestRules_ParsePerUserLimit(t *testing.T) {
	rules := NewRules(ruleConfig(20, "1m"))

	limit, window, err := rules.GetPerUserLimit()
	assert.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, time.Minute, window)
}

func TestRules_MissingWindowFails(t *testing.T) {
	rules := NewRules(ruleConfig(20, ""))

	_, _, err := rules.GetPerUserLimit()
	assert.Error(t, err)
}
