package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/basenews/internal/textutil"
)

const (
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	FallbackMessage = `Full article content is not available. Please use the "Read Full Story" button to view the original article.`
	ErrorMessage    = `Unable to load full article content. Please use the "Read Full Story" button to view the original article.`

	maxPageBytes = 5 << 20
)

var ErrInvalidURL = errors.New("url must be an absolute http(s) url")

// Containers tried in order; the first one with text replaces the page text.
var containerSelectors = []string{
	"article",
	`div[class*="article"]`,
	`div[class*="content"]`,
	"main",
}

// ArticleContent is the readable text of a page. IsFallback means the page
// had too little text and Content holds FallbackMessage instead.
type ArticleContent struct {
	Content    string `json:"content"`
	IsFallback bool   `json:"isFallback"`
}

type Scraper struct {
	client   *http.Client
	maxChars int
	minChars int
	log      *slog.Logger
}

func New(timeout time.Duration, maxChars, minChars int, log *slog.Logger) *Scraper {
	return &Scraper{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
		minChars: minChars,
		log:      log,
	}
}

// WithClient swaps the HTTP client (tests, custom transports).
func (s *Scraper) WithClient(c *http.Client) *Scraper {
	s.client = c
	return s
}

// ExtractFullArticle downloads rawURL with a browser User-Agent and extracts its text.
func (s *Scraper) ExtractFullArticle(ctx context.Context, rawURL string) (*ArticleContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	article, err := s.Extract(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	s.log.Debug("article extracted",
		slog.String("host", u.Host),
		slog.Int("chars", utf8.RuneCountInString(article.Content)),
		slog.Bool("fallback", article.IsFallback))
	return article, nil
}

// Extract parses an HTML document and returns its readable text.
func (s *Scraper) Extract(r io.Reader) (*ArticleContent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	text := textutil.NodesText(doc.Nodes...)
	for _, sel := range containerSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		if inner := textutil.NodesText(container.Nodes...); inner != "" {
			text = inner
			break
		}
	}

	text = textutil.Truncate(text, s.maxChars, "...")
	if utf8.RuneCountInString(text) < s.minChars {
		return &ArticleContent{Content: FallbackMessage, IsFallback: true}, nil
	}
	return &ArticleContent{Content: text}, nil
}
