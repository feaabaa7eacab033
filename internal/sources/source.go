// Package sources fetches raw news from the RSS feeds and provider APIs and
// normalizes it into news.Item values. Categories are left for the classifier.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/basenews/internal/news"
)

// Source is one news provider. Fetch may return items together with an error
// when only part of the provider's calls failed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]news.Item, error)
}

// ErrNoCredential marks a provider skipped because its key is not configured.
var ErrNoCredential = errors.New("no credential configured")

const (
	maxBodyBytes = 5 << 20
	userAgent    = "basenews/1.0 (+https://github.com/deusflow/basenews)"
)

// getJSON issues a GET and decodes the JSON body into dst. Errors never carry
// the request URL because provider keys travel in the query string.
func getJSON(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.New("build request: invalid url")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
