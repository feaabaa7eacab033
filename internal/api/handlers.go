package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/basenews/internal/app"
	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/scraper"
)

// NewsResponse is the /news envelope.
type NewsResponse struct {
	Success   bool        `json:"success"`
	Data      []news.Item `json:"data"`
	Count     int         `json:"count"`
	Timestamp string      `json:"timestamp"`
	Category  string      `json:"category"`
	Limit     int         `json:"limit"`
	AI        bool        `json:"ai"`
	Debug     *app.Debug  `json:"debug,omitempty"`
}

type newsErrorResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Debug   *app.Debug `json:"debug,omitempty"`
}

// BuildNewsResponse wraps a pipeline result in the public envelope.
func BuildNewsResponse(res *app.Result, q app.Query, now time.Time) NewsResponse {
	items := res.Items
	if items == nil {
		items = []news.Item{}
	}
	debug := res.Debug
	return NewsResponse{
		Success:   true,
		Data:      items,
		Count:     len(items),
		Timestamp: isoTime(now),
		Category:  q.Category,
		Limit:     q.Limit,
		AI:        res.AI,
		Debug:     &debug,
	}
}

// ParseQuery reads category, limit, skip_ai and sort. Unknown categories
// fall back to "all".
func ParseQuery(values map[string][]string, defaultLimit, maxLimit int) app.Query {
	get := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	q := app.Query{
		Category: app.CategoryAll,
		Limit:    clampLimit(get("limit"), defaultLimit, maxLimit),
		SkipAI:   parseBool(get("skip_ai")),
		Sort:     app.SortRelevance,
	}
	if c, ok := news.ParseCategory(get("category")); ok {
		q.Category = string(c)
	}
	if strings.EqualFold(get("sort"), app.SortSource) {
		q.Sort = app.SortSource
	}
	return q
}

// clampLimit: missing, zero or non-numeric gives fallback, then [1, max].
func clampLimit(raw string, fallback, max int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value == 0 {
		value = fallback
	}
	if value < 1 {
		return 1
	}
	if value > max {
		return max
	}
	return value
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := ParseQuery(r.URL.Query(), s.cfg.DefaultLimit, s.cfg.MaxLimit)

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.pipeline.Run(ctx, q)
	if err != nil {
		s.log.Error("news pipeline failed", slog.Any("err", err))
		body := newsErrorResponse{Error: err.Error()}
		if errors.Is(err, app.ErrNoNews) {
			body.Error = "No news found"
		}
		if res != nil {
			body.Debug = &res.Debug
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	writeJSON(w, http.StatusOK, BuildNewsResponse(res, q, s.now()))
}

type articleResponse struct {
	Success    bool   `json:"success"`
	Content    string `json:"content"`
	IsFallback bool   `json:"isFallback"`
}

type articleErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Content string `json:"content,omitempty"`
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		writeJSON(w, http.StatusBadRequest, articleErrorResponse{Error: "URL parameter is required"})
		return
	}

	article, err := s.articles.ExtractFullArticle(r.Context(), target)
	s.metrics.RecordArticle(article != nil && article.IsFallback, err)
	if errors.Is(err, scraper.ErrInvalidURL) {
		writeJSON(w, http.StatusBadRequest, articleErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.log.Warn("article extraction failed", slog.String("url", target), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, articleErrorResponse{
			Error:   err.Error(),
			Content: scraper.ErrorMessage,
		})
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{
		Success:    true,
		Content:    article.Content,
		IsFallback: article.IsFallback,
	})
}

type healthResponse struct {
	OK        bool            `json:"ok"`
	Timestamp string          `json:"timestamp"`
	Env       map[string]bool `json:"env"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:        true,
		Timestamp: isoTime(s.now()),
		Env: map[string]bool{
			"CRYPTO_PANIC_KEY": s.cfg.CryptoPanicKey != "",
			"NEWSDATA_KEY":     s.cfg.NewsDataKey != "",
			"GROQ_API_KEY":     s.cfg.GroqAPIKey != "",
			"GEMINI_API_KEY":   s.cfg.GeminiAPIKey != "",
		},
	})
}

func (s *Server) handleOGImage(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.cfg.OGImagePath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	stats := s.metrics.GetStats()
	if s.budget != nil {
		for k, v := range s.budget.GetStats() {
			stats[k] = v
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
