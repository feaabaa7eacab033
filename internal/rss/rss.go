package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/basenews/internal/textutil"
)

// Item is the flattened view of one feed entry. Missing fields are empty.
type Item struct {
	Title       string
	Link        string
	Description string
	PubDate     string
	Published   *time.Time
}

// Feed is a parsed feed with its title.
type Feed struct {
	Title string
	Items []Item
}

// Parse reads RSS, Atom or JSON feed text. CDATA and entities are handled by gofeed.
func Parse(r io.Reader) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	feed := &Feed{Title: parsed.Title, Items: make([]Item, 0, len(parsed.Items))}
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		desc := it.Description
		if desc == "" {
			desc = it.Content
		}
		feed.Items = append(feed.Items, Item{
			Title:       textutil.CollapseSpace(it.Title),
			Link:        it.Link,
			Description: textutil.StripHTML(desc),
			PubDate:     it.Published,
			Published:   it.PublishedParsed,
		})
	}
	return feed, nil
}

const maxFeedBytes = 5 << 20

// Fetch downloads and parses the feed at url.
func Fetch(ctx context.Context, client *http.Client, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", "basenews/1.0 (+https://github.com/deusflow/basenews)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch feed: HTTP %d", resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxFeedBytes))
}
