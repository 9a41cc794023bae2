package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/ratelimit"
)

func newLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return ratelimit.New(rdb)
}

func TestAllowUpToLimit(t *testing.T) {
	limiter := newLimiter(t)
	ctx := context.Background()
	rule := ratelimit.Rule{Max: 5, Window: 15 * time.Minute}

	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	assert.False(t, res.Allowed, "6th request within the window must be rejected")
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := newLimiter(t)
	ctx := context.Background()
	rule := ratelimit.Rule{Max: 1, Window: time.Minute}

	res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Different client, same group: unaffected.
	res, err = limiter.Allow(ctx, "login", "10.0.0.2", rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// Same client, different group: unaffected.
	res, err = limiter.Allow(ctx, "general", "10.0.0.1", rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestWindowSlides(t *testing.T) {
	limiter := newLimiter(t)
	ctx := context.Background()
	rule := ratelimit.Rule{Max: 2, Window: 100 * time.Millisecond}

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// Once the window elapses the reaper clears old entries and the next
	// attempt passes again.
	time.Sleep(150 * time.Millisecond)
	res, err = limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestReset(t *testing.T) {
	limiter := newLimiter(t)
	ctx := context.Background()
	rule := ratelimit.Rule{Max: 1, Window: time.Minute}

	_, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	res, err := limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "login", "10.0.0.1"))
	res, err = limiter.Allow(ctx, "login", "10.0.0.1", rule)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestZeroRuleAlwaysAllows(t *testing.T) {
	limiter := newLimiter(t)
	res, err := limiter.Allow(context.Background(), "any", "k", ratelimit.Rule{})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
