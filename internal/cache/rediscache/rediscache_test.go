package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "sheet:http://x", []byte("a,b,c"), time.Minute))

	b, ok, err := c.Get(ctx, "sheet:http://x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("a,b,c"), b)

	_, ok, err = c.Get(ctx, "sheet:http://missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "sheet:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "sheet:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "other:c", []byte("3"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "sheet:"))

	_, ok, _ := c.Get(ctx, "sheet:a")
	require.False(t, ok)
	_, ok, _ = c.Get(ctx, "sheet:b")
	require.False(t, ok)
	_, ok, _ = c.Get(ctx, "other:c")
	require.True(t, ok)
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:chat:YAQ-1", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:chat:YAQ-1", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:chat:YAQ-1", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)
}
