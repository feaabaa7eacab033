package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/ratelimit"
)

type CryptoPanicConfig struct {
	BaseURL   string
	Token     string
	Filters   []string // e.g. rising, hot
	PerFilter int
	Delay     time.Duration
	Timeout   time.Duration
}

// CryptoPanic queries the CryptoPanic posts API once per filter.
type CryptoPanic struct {
	cfg    CryptoPanicConfig
	client *http.Client
	log    *slog.Logger
	now    func() time.Time
}

func NewCryptoPanic(cfg CryptoPanicConfig, client *http.Client, log *slog.Logger) *CryptoPanic {
	if client == nil {
		client = http.DefaultClient
	}
	return &CryptoPanic{cfg: cfg, client: client, log: log, now: time.Now}
}

func (c *CryptoPanic) Name() string { return "CryptoPanic" }

type cryptoPanicResponse struct {
	Results []cryptoPanicPost `json:"results"`
}

type cryptoPanicPost struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	CreatedAt   string `json:"created_at"`
	PublishedAt string `json:"published_at"`
	Source      struct {
		Title  string `json:"title"`
		Domain string `json:"domain"`
	} `json:"source"`
	Currencies []struct {
		Code string `json:"code"`
	} `json:"currencies"`
}

// Fetch walks every filter, pausing between calls, and accumulates results.
func (c *CryptoPanic) Fetch(ctx context.Context) ([]news.Item, error) {
	if c.cfg.Token == "" {
		return nil, fmt.Errorf("%s: %w", c.Name(), ErrNoCredential)
	}

	pacer := ratelimit.NewPacer(c.cfg.Delay)
	var items []news.Item
	var errs []error
	for _, filter := range c.cfg.Filters {
		if err := pacer.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			break
		}

		posts, err := c.fetchFilter(ctx, filter)
		if err != nil {
			c.log.Warn("cryptopanic filter failed", slog.String("filter", filter), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s %s: %w", c.Name(), filter, err))
			continue
		}

		now := c.now()
		for i, p := range posts {
			if c.cfg.PerFilter > 0 && i >= c.cfg.PerFilter {
				break
			}
			if p.Title == "" {
				continue
			}
			id := strconv.FormatInt(p.ID, 10)
			if p.ID == 0 {
				id = strconv.Itoa(i)
			}
			ts, published := news.FormatRaw(firstNonEmpty(p.PublishedAt, p.CreatedAt), now)
			codes := make([]string, 0, len(p.Currencies))
			for _, cur := range p.Currencies {
				if cur.Code != "" {
					codes = append(codes, cur.Code)
				}
			}
			items = append(items, news.Item{
				ID:         fmt.Sprintf("crypto_%s_%s", filter, id),
				Title:      p.Title,
				URL:        p.URL,
				Source:     firstNonEmpty(p.Source.Title, "CryptoPanic"),
				Timestamp:  ts,
				RawContent: p.Title,
				Currencies: codes,
				Published:  published,
			})
		}
		c.log.Info("cryptopanic filter loaded", slog.String("filter", filter), slog.Int("posts", len(posts)))
	}
	return items, errors.Join(errs...)
}

func (c *CryptoPanic) fetchFilter(ctx context.Context, filter string) ([]cryptoPanicPost, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("auth_token", c.cfg.Token)
	q.Set("public", "true")
	q.Set("kind", "news")
	q.Set("filter", filter)
	q.Set("page", "1")
	u.RawQuery = q.Encode()

	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var resp cryptoPanicResponse
	if err := getJSON(ctx, c.client, u.String(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
