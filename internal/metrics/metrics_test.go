package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementEnrichSucceeded()
			m.IncrementEnrichFallbacks()
			m.AddItemsFetched(2)
		}()
	}
	wg.Wait()

	stats := m.GetStats()
	require.Equal(t, int64(20), stats["enrich_succeeded"])
	require.Equal(t, int64(20), stats["enrich_fallbacks"])
	require.Equal(t, int64(40), stats["items_fetched"])
}

func TestProcessingTimeAverage(t *testing.T) {
	m := New()
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)

	stats := m.GetStats()
	require.Equal(t, int64(300), stats["last_processing_time_ms"])
	require.Equal(t, int64(200), stats["average_processing_time_ms"])
}

func TestHealthTransitions(t *testing.T) {
	m := New()
	require.Equal(t, "", m.GetStats()["last_run_time"])

	m.SetError("no news found")
	stats := m.GetStats()
	require.Equal(t, false, stats["is_healthy"])
	require.Equal(t, "no news found", stats["last_error"])

	m.SetLastRun()
	require.Equal(t, true, m.GetStats()["is_healthy"])
}

func TestRecordArticle(t *testing.T) {
	m := New()
	m.RecordArticle(false, nil)
	m.RecordArticle(true, nil)
	m.RecordArticle(false, errors.New("boom"))

	stats := m.GetStats()
	require.Equal(t, int64(3), stats["article_fetches"])
	require.Equal(t, int64(1), stats["article_fallbacks"])
	require.Equal(t, int64(1), stats["article_errors"])
}
