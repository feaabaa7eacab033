package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	PipelineRuns       int64
	ItemsFetched       int64
	DuplicatesFiltered int64
	SourceErrors       int64
	EnrichSucceeded    int64
	EnrichFallbacks    int64
	ArticleFetches     int64
	ArticleFallbacks   int64
	ArticleErrors      int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) IncrementPipelineRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PipelineRuns++
}

func (m *Metrics) AddItemsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementSourceErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceErrors++
}

func (m *Metrics) IncrementEnrichSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichSucceeded++
}

func (m *Metrics) IncrementEnrichFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichFallbacks++
}

// RecordArticle counts one article-content request and its outcome.
func (m *Metrics) RecordArticle(fallback bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticleFetches++
	switch {
	case err != nil:
		m.ArticleErrors++
	case fallback:
		m.ArticleFallbacks++
	}
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"pipeline_runs":              m.PipelineRuns,
		"items_fetched":              m.ItemsFetched,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"source_errors":              m.SourceErrors,
		"enrich_succeeded":           m.EnrichSucceeded,
		"enrich_fallbacks":           m.EnrichFallbacks,
		"article_fetches":            m.ArticleFetches,
		"article_fallbacks":          m.ArticleFallbacks,
		"article_errors":             m.ArticleErrors,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              formatTime(m.LastRunTime),
		"last_error_time":            formatTime(m.LastErrorTime),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
