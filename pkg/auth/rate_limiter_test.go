package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every limiter handed to the middleware must satisfy the interface
var (
	_ RateLimiter = (*SlidingWindowLimiter)(nil)
	_ RateLimiter = (*IPRateLimiter)(nil)
	_ RateLimiter = (*UserRateLimiter)(nil)
	_ RateLimiter = (*DistributedRateLimiter)(nil)
)

func TestSlidingWindowLimiterEnforcesLimit(t *testing.T) {
	limiter := NewSlidingWindowLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSlidingWindowLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSlidingWindowLimiterReset(t *testing.T) {
	limiter := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "user-1"))

	allowed, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestIPAndUserLimitersScopeTheirKeys(t *testing.T) {
	ctx := context.Background()

	ipLimiter := NewIPRateLimiter(1)
	allowed, err := ipLimiter.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, err = ipLimiter.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, allowed)

	userLimiter := NewUserRateLimiter(1)
	allowed, err = userLimiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
