// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deusflow/basenews/internal/app"
	"github.com/deusflow/basenews/internal/config"
	"github.com/deusflow/basenews/internal/metrics"
	"github.com/deusflow/basenews/internal/ratelimit"
	"github.com/deusflow/basenews/internal/scraper"
)

type Pipeline interface {
	Run(ctx context.Context, q app.Query) (*app.Result, error)
}

type ArticleExtractor interface {
	ExtractFullArticle(ctx context.Context, url string) (*scraper.ArticleContent, error)
}

type Server struct {
	pipeline Pipeline
	articles ArticleExtractor
	metrics  *metrics.Metrics
	budget   *ratelimit.Budget
	cfg      *config.Config
	log      *slog.Logger
	now      func() time.Time
}

func NewServer(cfg *config.Config, p Pipeline, a ArticleExtractor, m *metrics.Metrics, budget *ratelimit.Budget, log *slog.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		pipeline: p,
		articles: a,
		metrics:  m,
		budget:   budget,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Router serves every endpoint both under /api and at the root.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	s.routes(r)
	r.Route("/api", s.routes)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	r.Get("/news", s.handleNews)
	r.Get("/article-content", s.handleArticle)
	r.Get("/health", s.handleHealth)
	r.Get("/og-image", s.handleOGImage)
	r.Get("/metrics", s.handleMetrics)
}

// cors allows any origin and answers preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
