package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/basenews/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		rt, err := newRuntime(ctx, appCfg, "basenews-api")
		if err != nil {
			return err
		}
		defer rt.cleanup()

		srv := api.NewServer(appCfg, rt.aggregator, rt.scraper, rt.metrics, rt.budget, rt.log)
		httpServer := &http.Server{
			Addr:              appCfg.BindAddr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      writeTimeout(appCfg.RequestTimeout),
		}

		errCh := make(chan error, 1)
		go func() {
			rt.log.Info("api server starting", slog.String("addr", appCfg.BindAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				rt.log.Error("server stopped", slog.Any("err", err))
				return err
			}
			return nil
		case <-ctx.Done():
		}

		rt.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			rt.log.Error("server shutdown", slog.Any("err", err))
			return err
		}
		return nil
	},
}

// writeTimeout leaves room after the /news deadline to write the response.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return 90 * time.Second
	}
	return requestTimeout + 15*time.Second
}
