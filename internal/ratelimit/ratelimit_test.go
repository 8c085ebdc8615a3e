package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewClient("redis://:secret@localhost:6379/2")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	_, err = NewClient("http://not-redis")
	assert.Error(t, err)
}

func TestRedisLimiter_WithoutRedis(t *testing.T) {
	l := New(nil, "verify:", 1, time.Minute)
	for i := 0; i < 5; i++ {
		ok, err := l.Allow(context.Background(), "qr.acme.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	var nilLimiter *RedisLimiter
	ok, err := nilLimiter.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := New(client, "verify:", 1, time.Minute)
	ok, err := l.Allow(context.Background(), "qr.acme.com")
	assert.Error(t, err)
	assert.True(t, ok)
}

func newMiniredisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "verify:", limit, window), mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	l, mr := newMiniredisLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "d1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := l.Allow(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("verify:d1"))

	mr.FastForward(40 * time.Second)
	ok, err = l.Allow(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, mr.TTL("verify:d1"), "denied attempts must not extend the window")

	ok, err = l.Allow(ctx, "d2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are limited independently")

	mr.FastForward(21 * time.Second)
	ok, err = l.Allow(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("verify:d1"))
}

func TestRedisLimiter_SteadyRetriesAreNotLockedOut(t *testing.T) {
	ctx := context.Background()
	l, mr := newMiniredisLimiter(t, 1, time.Minute)

	allowed := 0
	for i := 0; i < 9; i++ {
		ok, err := l.Allow(ctx, "d1")
		require.NoError(t, err)
		if ok {
			allowed++
		}
		mr.FastForward(30 * time.Second)
	}
	assert.GreaterOrEqual(t, allowed, 4)
}
