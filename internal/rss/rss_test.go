package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>The Coinbase Blog</title>
  <item>
    <title><![CDATA[Base mainnet is live]]></title>
    <link>https://blog.coinbase.com/base-mainnet</link>
    <description><![CDATA[<p>Base is <b>open</b> to everyone.</p>]]></description>
    <pubDate>Mon, 20 May 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Fees &amp; speed update</title>
    <link>https://blog.coinbase.com/fees</link>
  </item>
</channel>
</rss>`

func TestParse(t *testing.T) {
	feed, err := Parse(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Equal(t, "The Coinbase Blog", feed.Title)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	require.Equal(t, "Base mainnet is live", first.Title)
	require.Equal(t, "https://blog.coinbase.com/base-mainnet", first.Link)
	require.Equal(t, "Base is open to everyone.", first.Description)
	require.NotNil(t, first.Published)
	require.Equal(t, 2024, first.Published.Year())

	second := feed.Items[1]
	require.Equal(t, "Fees & speed update", second.Title)
	require.Empty(t, second.Description)
	require.Empty(t, second.PubDate)
	require.Nil(t, second.Published)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("definitely not a feed"))
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	feed, err := Fetch(context.Background(), srv.Client(), srv.URL+"/feed")
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing")
	require.ErrorContains(t, err, "HTTP 404")
}
