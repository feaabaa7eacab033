package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out sequential calls to one provider. The first Wait returns
// immediately, later ones block until interval has passed since the previous.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer returns a pacer; interval <= 0 disables waiting.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.lim == nil {
		return ctx.Err()
	}
	return p.lim.Wait(ctx)
}

// Budget caps LLM calls per window (a day by default). Max 0 means unlimited.
type Budget struct {
	mu        sync.Mutex
	max       int
	used      int
	denied    int
	cacheHits int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
}

func NewBudget(max int, window time.Duration) *Budget {
	if window <= 0 {
		window = 24 * time.Hour
	}
	b := &Budget{max: max, window: window, now: time.Now}
	b.resetTime = b.now().Add(window)
	return b
}

// Take reserves one call. It returns false once the window's budget is spent.
func (b *Budget) Take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max > 0 && b.used >= b.max {
		b.denied++
		return false
	}
	b.used++
	return true
}

// RecordCacheHit counts a call avoided by the enrichment cache.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return map[string]interface{}{
		"ai_used":       b.used,
		"ai_limit":      b.max,
		"ai_denied":     b.denied,
		"ai_cache_hits": b.cacheHits,
		"reset_time":    b.resetTime.Format(time.RFC3339),
	}
}

func (b *Budget) checkReset() {
	if now := b.now(); now.After(b.resetTime) {
		b.used = 0
		b.denied = 0
		b.cacheHits = 0
		b.resetTime = now.Add(b.window)
	}
}
