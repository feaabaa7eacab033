package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerSpacesCalls(t *testing.T) {
	p := NewPacer(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.Less(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestPacerDisabledAndCancelled(t *testing.T) {
	p := NewPacer(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	slow := NewPacer(time.Hour)
	require.NoError(t, slow.Wait(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, slow.Wait(ctx))

	var nilPacer *Pacer
	require.NoError(t, nilPacer.Wait(context.Background()))
}

func TestBudgetLimitsAndResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBudget(2, time.Hour)
	b.now = func() time.Time { return now }
	b.resetTime = now.Add(time.Hour)

	require.True(t, b.Take())
	require.True(t, b.Take())
	require.False(t, b.Take())
	require.Equal(t, 1, b.GetStats()["ai_denied"])

	now = now.Add(61 * time.Minute)
	require.True(t, b.Take())
	require.Equal(t, 1, b.GetStats()["ai_used"])
}

func TestBudgetUnlimitedConcurrent(t *testing.T) {
	b := NewBudget(0, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, b.Take())
			b.RecordCacheHit()
		}()
	}
	wg.Wait()
	stats := b.GetStats()
	require.Equal(t, 50, stats["ai_used"])
	require.Equal(t, 50, stats["ai_cache_hits"])
}
