package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

const coinbaseFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>The Coinbase Blog</title>
<item><title>Base mainnet is live</title><link>https://blog.coinbase.com/1</link>
<description><![CDATA[<p>Open to <i>everyone</i></p>]]></description>
<pubDate>Mon, 20 May 2024 11:00:00 +0000</pubDate></item>
<item><title></title><link>https://blog.coinbase.com/empty</link></item>
<item><title>No description here</title><link>https://blog.coinbase.com/3</link></item>
<item><title>Over the limit</title><link>https://blog.coinbase.com/4</link></item>
</channel></rss>`

func TestFeedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(coinbaseFeed))
	}))
	defer srv.Close()

	f := NewFeed("coinbase", "Coinbase Blog", srv.URL, 3, time.Second, srv.Client(), quietLogger())
	f.now = func() time.Time { return fixedNow }

	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "coinbase_0", items[0].ID)
	require.Equal(t, "Coinbase Blog", items[0].Source)
	require.Equal(t, "1h ago", items[0].Timestamp)
	require.Equal(t, "Open to everyone", items[0].RawContent)
	require.Empty(t, items[0].Category)

	require.Equal(t, "coinbase_2", items[1].ID)
	require.Equal(t, "No description here", items[1].RawContent)
	require.Equal(t, "Recently", items[1].Timestamp)
}

func TestFeedFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFeed("coinbase", "Coinbase Blog", srv.URL, 15, time.Second, srv.Client(), quietLogger())
	items, err := f.Fetch(context.Background())
	require.Empty(t, items)
	require.ErrorContains(t, err, "Coinbase Blog")
	require.ErrorContains(t, err, "HTTP 502")
}

func TestCryptoPanicAccumulatesFilters(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("auth_token"))
		assert.Equal(t, "true", q.Get("public"))
		assert.Equal(t, "news", q.Get("kind"))
		assert.Equal(t, "1", q.Get("page"))

		switch q.Get("filter") {
		case "rising":
			_, _ = w.Write([]byte(`{"results":[
				{"id":11,"title":"ETH gas hits record low","url":"https://cp/11","created_at":"2024-05-20T11:55:00Z","source":{"title":"The Block"},"currencies":[{"code":"ETH"}]},
				{"id":12,"title":"Second","url":"https://cp/12","created_at":"2024-05-20T10:00:00Z","source":{}},
				{"id":13,"title":"Third is over limit","url":"https://cp/13"}
			]}`))
		case "hot":
			w.WriteHeader(http.StatusTooManyRequests)
		case "bullish":
			_, _ = w.Write([]byte(`{"results":[{"id":21,"title":"Bull run","url":"https://cp/21"}]}`))
		}
	}))
	defer srv.Close()

	cp := NewCryptoPanic(CryptoPanicConfig{
		BaseURL:   srv.URL + "/api/v1/posts/",
		Token:     "secret",
		Filters:   []string{"rising", "hot", "bullish"},
		PerFilter: 2,
		Delay:     time.Millisecond,
		Timeout:   time.Second,
	}, srv.Client(), quietLogger())
	cp.now = func() time.Time { return fixedNow }

	items, err := cp.Fetch(context.Background())
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Error(t, err)
	require.ErrorContains(t, err, "hot")
	require.ErrorContains(t, err, "HTTP 429")
	require.NotContains(t, err.Error(), "secret")

	require.Len(t, items, 3)
	require.Equal(t, "crypto_rising_11", items[0].ID)
	require.Equal(t, "The Block", items[0].Source)
	require.Equal(t, "5m ago", items[0].Timestamp)
	require.Equal(t, []string{"ETH"}, items[0].Currencies)
	require.Equal(t, "ETH gas hits record low", items[0].RawContent)

	require.Equal(t, "CryptoPanic", items[1].Source)
	require.Equal(t, "crypto_bullish_21", items[2].ID)
	require.Equal(t, "Recently", items[2].Timestamp)
}

func TestCryptoPanicWithoutToken(t *testing.T) {
	cp := NewCryptoPanic(CryptoPanicConfig{Filters: []string{"rising"}}, http.DefaultClient, quietLogger())
	items, err := cp.Fetch(context.Background())
	require.Nil(t, items)
	require.True(t, errors.Is(err, ErrNoCredential))
}

func TestNewsDataQueries(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("apikey"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "3", q.Get("size"))
		mu.Lock()
		queries = append(queries, q.Get("q"))
		mu.Unlock()

		switch {
		case strings.HasPrefix(q.Get("q"), "Base"):
			_, _ = w.Write([]byte(`{"status":"success","results":[
				{"title":"Base TVL doubles","link":"https://nd/1","description":"<b>Growth</b> on Base","pubDate":"2024-05-20 09:00:00","source_name":"Decrypt"},
				{"title":"","link":"https://nd/skip"},
				{"title":"No source","link":"https://nd/2","pubDate":"bad"}
			]}`))
		case q.Get("q") == "broken":
			_, _ = w.Write([]byte(`{"status":"error","results":{"message":"quota"}}`))
		default:
			_, _ = w.Write([]byte(`{"status":"success","results":[]}`))
		}
	}))
	defer srv.Close()

	nd := NewNewsData(NewsDataConfig{
		BaseURL: srv.URL + "/api/1/latest",
		APIKey:  "key",
		Queries: []string{"Base blockchain OR Base chain", "broken", "cryptocurrency"},
		Size:    3,
		Timeout: time.Second,
	}, srv.Client(), quietLogger())
	nd.now = func() time.Time { return fixedNow }

	items, err := nd.Fetch(context.Background())
	mu.Lock()
	require.Equal(t, []string{"Base blockchain OR Base chain", "broken", "cryptocurrency"}, queries)
	mu.Unlock()
	require.ErrorContains(t, err, `status "error"`)
	require.NotContains(t, err.Error(), "apikey")

	require.Len(t, items, 2)
	require.Equal(t, "Decrypt", items[0].Source)
	require.Equal(t, "Growth on Base", items[0].RawContent)
	require.Equal(t, "3h ago", items[0].Timestamp)
	require.True(t, strings.HasPrefix(items[0].ID, "news_"))
	require.NotEqual(t, items[0].ID, items[1].ID)

	require.Equal(t, "NewsData", items[1].Source)
	require.Equal(t, "No source", items[1].RawContent)
	require.Equal(t, "Recently", items[1].Timestamp)
}

func TestNewsDataWithoutKey(t *testing.T) {
	nd := NewNewsData(NewsDataConfig{Queries: []string{"x"}}, http.DefaultClient, quietLogger())
	_, err := nd.Fetch(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestGetJSONHidesURL(t *testing.T) {
	err := getJSON(context.Background(), &http.Client{Timeout: time.Second}, "http://127.0.0.1:1/x?apikey=topsecret", &struct{}{})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "topsecret")
}
