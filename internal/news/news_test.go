package news

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey(t *testing.T) {
	require.Equal(t, "basemainnetlaunches", DedupKey("Base Mainnet Launches!!!"))
	require.Equal(t, DedupKey("Base Mainnet Launches!!!"), DedupKey("base mainnet launches"))

	long := "Coinbase expands Base with a brand new developer program for builders worldwide"
	key := DedupKey(long)
	require.Equal(t, DedupKey(long[:50]), key)
	require.Equal(t, DedupKey(long[:50]+" something else entirely"), key)

	require.Equal(t, DedupKey("Caf opens"), DedupKey("Café opens"))
	require.Equal(t, "2024", DedupKey("Биткоин растет 2024!"))
	require.Empty(t, DedupKey("Биткоин растет!"))
	require.Empty(t, DedupKey("!!! ???"))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	items := []Item{
		{ID: "a", Title: "Base Mainnet Launches!!!"},
		{ID: "b", Title: "Bitcoin ETF approved"},
		{ID: "c", Title: "base mainnet launches"},
		{ID: "d", Title: "???"},
		{ID: "e", Title: "!!!"},
	}
	out, dropped := Dedupe(items)
	require.Equal(t, 1, dropped)

	ids := make([]string, 0, len(out))
	for _, it := range out {
		ids = append(ids, it.ID)
	}
	require.Equal(t, []string{"a", "b", "d", "e"}, ids)
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "Recently"},
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(time.Minute), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-59 * time.Minute), "59m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
		{now.Add(-8 * 24 * time.Hour), "May 12, 2024"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatTime(tc.at, now), tc.at.String())
	}
}

func TestFormatRaw(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	got, parsed := FormatRaw("Mon, 20 May 2024 10:00:00 +0000", now)
	require.Equal(t, "2h ago", got)
	require.False(t, parsed.IsZero())

	got, _ = FormatRaw("2024-05-20 11:50:00", now)
	require.Equal(t, "10m ago", got)

	got, _ = FormatRaw("2024-05-19T12:00:00Z", now)
	require.Equal(t, "1d ago", got)

	got, parsed = FormatRaw("yesterday-ish", now)
	require.Equal(t, "Recently", got)
	require.True(t, parsed.IsZero())
}

func TestParseCategoryAndVibe(t *testing.T) {
	c, ok := ParseCategory(" BASE ")
	require.True(t, ok)
	require.Equal(t, CategoryBase, c)

	_, ok = ParseCategory("sports")
	require.False(t, ok)

	v, ok := ParseVibe("Bullish")
	require.True(t, ok)
	require.Equal(t, VibeBullish, v)

	_, ok = ParseVibe("ecstatic")
	require.False(t, ok)
}

func TestItemJSONShape(t *testing.T) {
	it := Item{
		ID: "coinbase_0", Category: CategoryBase, Title: "t", URL: "u", Source: "Coinbase Blog",
		Timestamp: "Just now", RawContent: "raw", Description: "hidden", Currencies: []string{"ETH"},
		Enrichment: Enrichment{Summary: "s", RelevanceScore: 80, Vibe: VibeBullish, WhyItMatters: "w"},
	}
	data, err := json.Marshal(it)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, "s", m["summary"])
	require.EqualValues(t, 80, m["relevanceScore"])
	require.Equal(t, "bullish", m["vibe"])
	require.NotContains(t, m, "Description")
	require.NotContains(t, m, "Currencies")
	require.NotContains(t, m, "Enrichment")
	require.True(t, it.Enriched())
}
