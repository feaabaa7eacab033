package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deusflow/basenews/internal/cache"
	"github.com/deusflow/basenews/internal/config"
	"github.com/deusflow/basenews/internal/enrich"
	"github.com/deusflow/basenews/internal/storage"
)

// CacheAdapter is an enrichment cache that owns resources.
type CacheAdapter interface {
	enrich.Cache
	io.Closer
}

// newCache picks the enrichment cache backend. It returns nil for "none".
func newCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (CacheAdapter, error) {
	switch cfg.CacheBackend {
	case "memory":
		log.Info("using in-memory enrichment cache", slog.Duration("ttl", cfg.CacheTTL))
		return cache.New(time.Minute), nil
	case "file":
		fc := storage.NewFileCache(cfg.CacheFile)
		if err := fc.Load(); err != nil {
			return nil, fmt.Errorf("file cache: %w", err)
		}
		log.Info("using file enrichment cache", slog.String("path", cfg.CacheFile), slog.Duration("ttl", cfg.CacheTTL))
		return fc, nil
	case "redis":
		client := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		rc, err := storage.NewRedisCache(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		log.Info("using redis enrichment cache", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.CacheTTL))
		return rc, nil
	default:
		return nil, nil
	}
}
