package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/deusflow/basenews/internal/app"
	"github.com/deusflow/basenews/internal/config"
	"github.com/deusflow/basenews/internal/logger"
	"github.com/deusflow/basenews/internal/metrics"
	"github.com/deusflow/basenews/internal/ratelimit"
	"github.com/deusflow/basenews/internal/scraper"
)

var (
	cfgFile string
	appCfg  *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "basenews",
	Short:        "Base ecosystem news aggregator",
	Long:         "Collects crypto news from RSS and provider APIs, classifies it and enriches it with an LLM.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appCfg = cfg
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd, fetchCmd, articleCmd)
}

// runtime holds everything the commands share.
type runtime struct {
	log        *slog.Logger
	metrics    *metrics.Metrics
	budget     *ratelimit.Budget
	aggregator *app.Aggregator
	scraper    *scraper.Scraper
	cleanup    func()
}

func newRuntime(ctx context.Context, cfg *config.Config, service string) (*runtime, error) {
	log := logger.New(service, cfg.LogLevel, cfg.Debug)
	m := metrics.New()
	budget := ratelimit.NewBudget(cfg.AIDailyBudget, 0)

	classifier, err := app.BuildClassifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("load classifier rules: %w", err)
	}
	enricher, cleanup, err := app.BuildEnricher(ctx, cfg, budget, m, log)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	return &runtime{
		log:        log,
		metrics:    m,
		budget:     budget,
		aggregator: app.New(app.BuildSources(cfg, client, log), classifier, enricher, m, log),
		scraper:    scraper.New(cfg.ArticleTimeout, cfg.ArticleMaxChars, cfg.ArticleMinChars, log),
		cleanup:    cleanup,
	}, nil
}
