package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/rss"
	"github.com/deusflow/basenews/internal/textutil"
)

// Feed reads one RSS/Atom feed, e.g. the Coinbase Blog.
type Feed struct {
	id      string
	name    string
	url     string
	limit   int
	timeout time.Duration
	client  *http.Client
	log     *slog.Logger
	now     func() time.Time
}

func NewFeed(id, name, url string, limit int, timeout time.Duration, client *http.Client, log *slog.Logger) *Feed {
	if client == nil {
		client = http.DefaultClient
	}
	return &Feed{
		id:      id,
		name:    name,
		url:     url,
		limit:   limit,
		timeout: timeout,
		client:  client,
		log:     log,
		now:     time.Now,
	}
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Fetch(ctx context.Context) ([]news.Item, error) {
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := rss.Fetch(ctx, f.client, f.url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}

	now := f.now()
	items := make([]news.Item, 0, len(feed.Items))
	for idx, it := range feed.Items {
		if f.limit > 0 && idx >= f.limit {
			break
		}
		if it.Title == "" {
			continue
		}

		var ts string
		var published time.Time
		if it.Published != nil {
			published = *it.Published
			ts = news.FormatTime(published, now)
		} else {
			ts, published = news.FormatRaw(it.PubDate, now)
		}

		items = append(items, news.Item{
			ID:          fmt.Sprintf("%s_%d", f.id, idx),
			Title:       it.Title,
			URL:         it.Link,
			Source:      f.name,
			Timestamp:   ts,
			RawContent:  firstNonEmpty(textutil.CollapseSpace(it.Description), it.Title),
			Description: it.Description,
			Published:   published,
		})
	}

	f.log.Info("feed loaded", slog.String("source", f.name), slog.Int("items", len(items)))
	return items, nil
}
