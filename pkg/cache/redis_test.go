package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "k", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "k", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "k", "b"))
	got, _ := mr.Get("k")
	assert.Equal(t, "a", got)

	require.NoError(t, c.ReleaseLock(ctx, "k", "a"))
	assert.False(t, mr.Exists("k"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(&Config{Addr: addr})
	assert.Error(t, err)
}
