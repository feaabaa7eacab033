package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestCleanupDropsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := New(0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "old", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "new", []byte("2"), time.Hour))
	now = now.Add(time.Minute)
	c.cleanup()
	require.Equal(t, 1, c.Len())
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("title", "content")
	require.Len(t, a, 64)
	require.Equal(t, a, GenerateKey("title", "content"))
	require.NotEqual(t, a, GenerateKey("titlec", "ontent"))
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
