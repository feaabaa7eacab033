package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/deusflow/basenews/internal/config"
	"github.com/deusflow/basenews/internal/enrich"
	"github.com/deusflow/basenews/internal/gemini"
	"github.com/deusflow/basenews/internal/groq"
	"github.com/deusflow/basenews/internal/metrics"
	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/ratelimit"
	"github.com/deusflow/basenews/internal/sources"
)

// BuildSources returns the configured feeds followed by CryptoPanic and NewsData.
func BuildSources(cfg *config.Config, client *http.Client, log *slog.Logger) []sources.Source {
	srcs := make([]sources.Source, 0, len(cfg.Feeds)+2)
	for _, f := range cfg.Feeds {
		srcs = append(srcs, sources.NewFeed(f.ID, f.Name, f.URL, f.Limit, cfg.RSSTimeout, client, log))
	}
	srcs = append(srcs,
		sources.NewCryptoPanic(sources.CryptoPanicConfig{
			BaseURL:   cfg.CryptoPanicURL,
			Token:     cfg.CryptoPanicKey,
			Filters:   cfg.CryptoPanicFilters,
			PerFilter: cfg.CryptoPanicPerFilter,
			Delay:     cfg.CryptoPanicDelay,
			Timeout:   cfg.SourceTimeout,
		}, client, log),
		sources.NewNewsData(sources.NewsDataConfig{
			BaseURL: cfg.NewsDataURL,
			APIKey:  cfg.NewsDataKey,
			Queries: cfg.NewsDataQueries,
			Size:    cfg.NewsDataSize,
			Delay:   cfg.NewsDataDelay,
			Timeout: cfg.SourceTimeout,
		}, client, log),
	)
	return srcs
}

// BuildClassifier loads RulesPath when set, otherwise the embedded rules.
func BuildClassifier(cfg *config.Config) (*news.Classifier, error) {
	if cfg.RulesPath == "" {
		return news.DefaultClassifier(), nil
	}
	return news.LoadClassifier(cfg.RulesPath)
}

// BuildEnricher wires the selected LLM provider with its cache and budget.
// It returns a nil Enricher when no provider has a key. The returned cleanup
// func is never nil.
func BuildEnricher(ctx context.Context, cfg *config.Config, budget *ratelimit.Budget, m *metrics.Metrics, log *slog.Logger) (Enricher, func(), error) {
	cleanup := func() {}

	var llm enrich.Completer
	provider := cfg.Provider()
	switch provider {
	case "groq":
		llm = groq.New(groq.Config{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		})
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTemperature, cfg.LLMMaxTokens)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gemini: %w", err)
		}
		llm = client
		cleanup = client.Close
	default:
		log.Warn("no LLM key configured, AI enrichment disabled")
		return nil, cleanup, nil
	}

	opts := enrich.Options{
		Concurrency:  cfg.EnrichConcurrency,
		Timeout:      cfg.EnrichTimeout,
		StageTimeout: cfg.EnrichStageTimeout,
		Budget:       budget,
		CacheTTL:     cfg.CacheTTL,
		Metrics:      m,
		Log:          log,
	}
	c, err := newCache(ctx, cfg, log)
	if err != nil {
		log.Warn("enrichment cache unavailable, continuing without it", slog.Any("err", err))
	} else if c != nil {
		opts.Cache = c
		closeLLM := cleanup
		cleanup = func() {
			_ = c.Close()
			closeLLM()
		}
	}

	log.Info("AI enrichment enabled", slog.String("provider", provider), slog.Int("concurrency", cfg.EnrichConcurrency))
	return enrich.New(provider, llm, opts), cleanup, nil
}
