// Package app runs the aggregation pipeline: fetch every source, classify,
// dedupe, filter, enrich, sort and limit.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/deusflow/basenews/internal/enrich"
	"github.com/deusflow/basenews/internal/metrics"
	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/sources"
)

// ErrNoNews means no source returned a single item.
var ErrNoNews = errors.New("no news found")

const (
	CategoryAll = "all"

	SortRelevance = "relevance"
	SortSource    = "source"
)

// Enricher is the AI stage. A nil Enricher means every item gets the fallback.
type Enricher interface {
	EnrichAll(ctx context.Context, items []news.Item) []news.Item
	Provider() string
}

type Query struct {
	Category string // "all" or a news.Category
	Limit    int
	SkipAI   bool
	Sort     string
}

// Debug describes what happened during one run.
type Debug struct {
	Counts       map[string]int `json:"counts"`
	Errors       []string       `json:"errors"`
	Skipped      []string       `json:"skipped,omitempty"`
	Collected    int            `json:"collected"`
	Unique       int            `json:"unique"`
	BaseArticles int            `json:"baseArticles"`
}

type Result struct {
	Items []news.Item
	AI    bool
	Debug Debug
}

type Aggregator struct {
	sources    []sources.Source
	classifier *news.Classifier
	enricher   Enricher
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func New(srcs []sources.Source, classifier *news.Classifier, enricher Enricher, m *metrics.Metrics, log *slog.Logger) *Aggregator {
	if classifier == nil {
		classifier = news.DefaultClassifier()
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{sources: srcs, classifier: classifier, enricher: enricher, metrics: m, log: log}
}

// AIEnabled reports whether a language model is configured.
func (a *Aggregator) AIEnabled() bool {
	return a.enricher != nil
}

// Run executes the pipeline once. On ErrNoNews the returned Result still
// carries the debug information.
func (a *Aggregator) Run(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	a.metrics.IncrementPipelineRuns()

	res := &Result{Debug: Debug{Counts: make(map[string]int, len(a.sources)), Errors: []string{}}}

	var items []news.Item
	for _, src := range a.sources {
		got, err := src.Fetch(ctx)
		res.Debug.Counts[src.Name()] = len(got)
		items = append(items, got...)
		switch {
		case err == nil:
		case errors.Is(err, sources.ErrNoCredential):
			a.log.Info("source skipped", slog.String("source", src.Name()), slog.Any("err", err))
			res.Debug.Skipped = append(res.Debug.Skipped, src.Name())
		default:
			a.log.Warn("source failed", slog.String("source", src.Name()), slog.Any("err", err))
			a.metrics.IncrementSourceErrors()
			res.Debug.Errors = append(res.Debug.Errors, fmt.Sprintf("%s: %v", src.Name(), err))
		}
	}
	res.Debug.Collected = len(items)
	a.metrics.AddItemsFetched(len(items))

	if len(items) == 0 {
		a.metrics.SetError(ErrNoNews.Error())
		a.metrics.RecordProcessingTime(time.Since(start))
		return res, ErrNoNews
	}

	a.classifier.Apply(items)
	items, dropped := news.Dedupe(items)
	a.metrics.AddDuplicatesFiltered(dropped)
	res.Debug.Unique = len(items)
	for _, it := range items {
		if it.Category == news.CategoryBase {
			res.Debug.BaseArticles++
		}
	}

	items = filterCategory(items, q.Category)

	if a.enricher != nil && !q.SkipAI {
		items = a.enricher.EnrichAll(ctx, items)
		res.AI = true
		// the model may have moved items to another category
		items = filterCategory(items, q.Category)
	} else {
		items = enrich.FallbackAll(items)
	}

	if q.Sort != SortSource {
		sortByRelevance(items)
	}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	res.Items = items

	a.metrics.RecordProcessingTime(time.Since(start))
	a.metrics.SetLastRun()
	a.log.Info("pipeline finished",
		slog.Int("collected", res.Debug.Collected),
		slog.Int("unique", res.Debug.Unique),
		slog.Int("returned", len(items)),
		slog.Bool("ai", res.AI),
		slog.Duration("took", time.Since(start)))
	return res, nil
}

func filterCategory(items []news.Item, category string) []news.Item {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == CategoryAll {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if string(it.Category) == category {
			out = append(out, it)
		}
	}
	return out
}

// sortByRelevance orders by score, newest first among equal scores.
func sortByRelevance(items []news.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RelevanceScore != items[j].RelevanceScore {
			return items[i].RelevanceScore > items[j].RelevanceScore
		}
		return items[i].Published.After(items[j].Published)
	})
}
