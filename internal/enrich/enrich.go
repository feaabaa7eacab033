package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/basenews/internal/cache"
	"github.com/deusflow/basenews/internal/metrics"
	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/ratelimit"
)

// Completer sends one prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache stores normalized analyses between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var ErrBudgetExhausted = errors.New("AI call budget exhausted")

type Options struct {
	Concurrency int
	Timeout     time.Duration // per call
	// StageTimeout bounds a whole EnrichAll run; items not started or
	// finished by then get the fallback.
	StageTimeout time.Duration
	Budget       *ratelimit.Budget
	Cache        Cache
	CacheTTL     time.Duration
	Metrics      *metrics.Metrics
	Log          *slog.Logger
}

// Enricher runs the model over items with bounded concurrency. It never
// returns errors: every failure turns into the deterministic fallback.
type Enricher struct {
	provider string
	llm      Completer
	opts     Options
}

func New(provider string, llm Completer, opts Options) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Enricher{provider: provider, llm: llm, opts: opts}
}

func (e *Enricher) Provider() string { return e.provider }

// EnrichAll keeps input order; at most Concurrency calls are in flight.
func (e *Enricher) EnrichAll(ctx context.Context, items []news.Item) []news.Item {
	if e.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.StageTimeout)
		defer cancel()
	}

	out := make([]news.Item, len(items))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i := range items {
		g.Go(func() error {
			if ctx.Err() != nil {
				e.opts.Metrics.IncrementEnrichFallbacks()
				out[i] = Fallback(items[i])
				return nil
			}
			out[i], _ = e.Enrich(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Enrich returns the enriched item and whether the model (or cache) answered.
func (e *Enricher) Enrich(ctx context.Context, it news.Item) (news.Item, bool) {
	key := cache.GenerateKey(e.provider, it.Title, it.RawContent)
	if a, ok := e.cached(ctx, key); ok {
		e.opts.Metrics.IncrementEnrichSucceeded()
		return a.Apply(it), true
	}

	a, err := e.analyze(ctx, it)
	if err != nil {
		e.opts.Log.Warn("AI enrichment failed, using fallback",
			slog.String("title", it.Title), slog.Any("err", err))
		e.opts.Metrics.IncrementEnrichFallbacks()
		return Fallback(it), false
	}

	e.store(ctx, key, a)
	e.opts.Metrics.IncrementEnrichSucceeded()
	if a.SuggestedCategory != "" && a.SuggestedCategory != it.Category {
		e.opts.Log.Debug("category corrected by AI",
			slog.String("title", it.Title),
			slog.String("from", string(it.Category)),
			slog.String("to", string(a.SuggestedCategory)))
	}
	return a.Apply(it), true
}

func (e *Enricher) analyze(ctx context.Context, it news.Item) (*Analysis, error) {
	if e.opts.Budget != nil && !e.opts.Budget.Take() {
		return nil, ErrBudgetExhausted
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	text, err := e.llm.Complete(ctx, BuildPrompt(it))
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

func (e *Enricher) cached(ctx context.Context, key string) (*Analysis, bool) {
	if e.opts.Cache == nil {
		return nil, false
	}
	data, ok, err := e.opts.Cache.Get(ctx, key)
	if err != nil {
		e.opts.Log.Warn("enrichment cache read failed", slog.Any("err", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false
	}
	if e.opts.Budget != nil {
		e.opts.Budget.RecordCacheHit()
	}
	return &a, true
}

func (e *Enricher) store(ctx context.Context, key string, a *Analysis) {
	if e.opts.Cache == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := e.opts.Cache.Set(ctx, key, data, e.opts.CacheTTL); err != nil {
		e.opts.Log.Warn("enrichment cache write failed", slog.Any("err", err))
	}
}
