package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/ratelimit"
	"github.com/deusflow/basenews/internal/textutil"
)

type NewsDataConfig struct {
	BaseURL string
	APIKey  string
	Queries []string
	Size    int
	Delay   time.Duration
	Timeout time.Duration
}

// NewsData runs a fixed list of keyword queries against newsdata.io.
type NewsData struct {
	cfg    NewsDataConfig
	client *http.Client
	log    *slog.Logger
	now    func() time.Time
}

func NewNewsData(cfg NewsDataConfig, client *http.Client, log *slog.Logger) *NewsData {
	if client == nil {
		client = http.DefaultClient
	}
	return &NewsData{cfg: cfg, client: client, log: log, now: time.Now}
}

func (n *NewsData) Name() string { return "NewsData" }

type newsDataResponse struct {
	Status  string          `json:"status"`
	Results json.RawMessage `json:"results"`
}

type newsDataArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	SourceName  string `json:"source_name"`
	SourceID    string `json:"source_id"`
}

func (n *NewsData) Fetch(ctx context.Context) ([]news.Item, error) {
	if n.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", n.Name(), ErrNoCredential)
	}

	pacer := ratelimit.NewPacer(n.cfg.Delay)
	var items []news.Item
	var errs []error
	seq := 0
	for _, query := range n.cfg.Queries {
		if err := pacer.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			break
		}

		articles, err := n.fetchQuery(ctx, query)
		if err != nil {
			n.log.Warn("newsdata query failed", slog.String("query", query), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s %q: %w", n.Name(), query, err))
			continue
		}

		now := n.now()
		for _, a := range articles {
			if a.Title == "" {
				continue
			}
			desc := textutil.StripHTML(a.Description)
			ts, published := news.FormatRaw(a.PubDate, now)
			items = append(items, news.Item{
				ID:          fmt.Sprintf("news_%d_%d", now.UnixMilli(), seq),
				Title:       a.Title,
				URL:         a.Link,
				Source:      firstNonEmpty(a.SourceName, a.SourceID, "NewsData"),
				Timestamp:   ts,
				RawContent:  firstNonEmpty(desc, a.Title),
				Description: desc,
				Published:   published,
			})
			seq++
		}
		n.log.Info("newsdata query loaded", slog.String("query", query), slog.Int("articles", len(articles)))
	}
	return items, errors.Join(errs...)
}

func (n *NewsData) fetchQuery(ctx context.Context, query string) ([]newsDataArticle, error) {
	u, err := url.Parse(n.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", n.cfg.APIKey)
	q.Set("q", query)
	q.Set("language", "en")
	if n.cfg.Size > 0 {
		q.Set("size", strconv.Itoa(n.cfg.Size))
	}
	u.RawQuery = q.Encode()

	ctx, cancel := withTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	var resp newsDataResponse
	if err := getJSON(ctx, n.client, u.String(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "success" {
		return nil, fmt.Errorf("status %q", resp.Status)
	}
	var articles []newsDataArticle
	if len(resp.Results) > 0 && string(resp.Results) != "null" {
		if err := json.Unmarshal(resp.Results, &articles); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	return articles, nil
}
