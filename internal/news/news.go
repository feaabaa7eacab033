package news

import (
	"fmt"
	"strings"
	"time"
)

// Category is the topic bucket an item is filed under.
type Category string

const (
	CategoryBase   Category = "base"
	CategoryCrypto Category = "crypto"
	CategoryAI     Category = "ai"
	CategoryWorld  Category = "world"
)

var Categories = []Category{CategoryBase, CategoryCrypto, CategoryAI, CategoryWorld}

func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Vibe is the market sentiment assigned during enrichment.
type Vibe string

const (
	VibeBullish Vibe = "bullish"
	VibeBearish Vibe = "bearish"
	VibeNeutral Vibe = "neutral"
)

func ParseVibe(raw string) (Vibe, bool) {
	switch v := Vibe(strings.ToLower(strings.TrimSpace(raw))); v {
	case VibeBullish, VibeBearish, VibeNeutral:
		return v, true
	}
	return "", false
}

// Enrichment holds the fields produced by the language model (or its fallback).
type Enrichment struct {
	Summary        string `json:"summary"`
	RelevanceScore int    `json:"relevanceScore"`
	Vibe           Vibe   `json:"vibe"`
	WhyItMatters   string `json:"whyItMatters"`
}

// Item is a single news entry. It is created by a source, gets its category
// from the classifier and its Enrichment from the enrich stage.
type Item struct {
	ID         string   `json:"id"`
	Category   Category `json:"category"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Source     string   `json:"source"`
	Timestamp  string   `json:"timestamp"`
	RawContent string   `json:"rawContent"`
	Enrichment

	Description string    `json:"-"`
	Currencies  []string  `json:"-"`
	Published   time.Time `json:"-"`
}

// Enriched reports whether all enrichment fields are populated.
func (it Item) Enriched() bool {
	return it.Summary != "" && it.Vibe != "" && it.WhyItMatters != ""
}

const dedupKeyRunes = 50

// DedupKey lowercases the title, keeps the first 50 runes and drops
// everything outside [a-z0-9].
func DedupKey(title string) string {
	runes := []rune(strings.ToLower(title))
	if len(runes) > dedupKeyRunes {
		runes = runes[:dedupKeyRunes]
	}
	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dedupe keeps the first item for every dedup key and returns how many were
// dropped. Items whose key is empty are never treated as duplicates.
func Dedupe(items []Item) ([]Item, int) {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		key := DedupKey(it.Title)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, it)
	}
	return out, len(items) - len(out)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the date formats seen in RSS feeds and provider APIs.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t relative to now: "Just now", "5m ago", "3h ago",
// "2d ago", then an absolute date after a week. Zero time gives "Recently".
func FormatTime(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FormatRaw parses raw and formats it; unparseable input gives "Recently".
func FormatRaw(raw string, now time.Time) (string, time.Time) {
	t, ok := ParseTime(raw)
	if !ok {
		return "Recently", time.Time{}
	}
	return FormatTime(t, now), t
}
