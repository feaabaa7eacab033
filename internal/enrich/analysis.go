package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/deusflow/basenews/internal/news"
	"github.com/deusflow/basenews/internal/textutil"
)

const (
	DefaultScore        = 50
	FallbackWhy         = "Stay informed about crypto developments."
	MissingWhy          = "Relevant to ecosystem."
	UnavailableSummary  = "Summary unavailable"
	fallbackSummaryRune = 150
	promptContentRunes  = 1500
)

var ErrNoJSON = errors.New("no JSON object in model response")

// Analysis is a normalized model answer. Score is already clamped.
type Analysis struct {
	Summary           string        `json:"summary"`
	RelevanceScore    int           `json:"relevanceScore"`
	Vibe              news.Vibe     `json:"vibe"`
	WhyItMatters      string        `json:"whyItMatters"`
	SuggestedCategory news.Category `json:"suggestedCategory,omitempty"`
}

type rawAnalysis struct {
	Summary           string          `json:"summary"`
	RelevanceScore    json.RawMessage `json:"relevanceScore"`
	Vibe              string          `json:"vibe"`
	WhyItMatters      string          `json:"whyItMatters"`
	SuggestedCategory string          `json:"suggestedCategory"`
}

const promptTemplate = `Analyze this news for Base blockchain users.

Title: %q
Content: %q
Current category: %s

Provide JSON only (no markdown):
{
  "summary": "2-3 sentence summary (max 100 words)",
  "relevanceScore": <integer 0-100>,
  "vibe": "bullish" OR "bearish" OR "neutral",
  "whyItMatters": "Why Base users care (max 30 words)",
  "suggestedCategory": "base" OR "crypto" OR "ai" OR "world"
}`

func BuildPrompt(it news.Item) string {
	content := textutil.Truncate(it.RawContent, promptContentRunes, "...")
	return fmt.Sprintf(promptTemplate, it.Title, content, it.Category)
}

// ParseResponse strips markdown fences, locates the JSON object and
// normalizes score, vibe and category. Text fields may come back empty.
func ParseResponse(text string) (*Analysis, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if !strings.HasPrefix(clean, "{") {
		start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}")
		if start < 0 || end <= start {
			return nil, ErrNoJSON
		}
		clean = clean[start : end+1]
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}

	a := &Analysis{
		Summary:        strings.TrimSpace(raw.Summary),
		RelevanceScore: parseScore(raw.RelevanceScore),
		Vibe:           news.VibeNeutral,
		WhyItMatters:   strings.TrimSpace(raw.WhyItMatters),
	}
	if v, ok := news.ParseVibe(raw.Vibe); ok {
		a.Vibe = v
	}
	if c, ok := news.ParseCategory(raw.SuggestedCategory); ok {
		a.SuggestedCategory = c
	}
	return a, nil
}

// parseScore accepts numbers and numeric strings; anything else is 50.
func parseScore(raw json.RawMessage) int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return DefaultScore
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return DefaultScore
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(str), 64); err != nil {
			return DefaultScore
		}
	}
	if math.IsNaN(f) {
		return DefaultScore
	}
	return clampScore(f)
}

// clampScore bounds f to [0,100] before converting; huge and infinite
// values never reach the int conversion.
func clampScore(f float64) int {
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(math.Round(f))
}

// Apply copies the analysis onto it, filling gaps with per-field defaults.
func (a *Analysis) Apply(it news.Item) news.Item {
	it.Summary = a.Summary
	if it.Summary == "" {
		it.Summary = truncatedContent(it)
	}
	it.RelevanceScore = clampScore(float64(a.RelevanceScore))
	it.Vibe = a.Vibe
	if _, ok := news.ParseVibe(string(it.Vibe)); !ok {
		it.Vibe = news.VibeNeutral
	}
	it.WhyItMatters = a.WhyItMatters
	if it.WhyItMatters == "" {
		it.WhyItMatters = MissingWhy
	}
	if a.SuggestedCategory != "" {
		it.Category = a.SuggestedCategory
	}
	return it
}

// Fallback fills the enrichment fields without a model.
func Fallback(it news.Item) news.Item {
	it.Summary = truncatedContent(it)
	it.RelevanceScore = DefaultScore
	it.Vibe = news.VibeNeutral
	it.WhyItMatters = FallbackWhy
	return it
}

func FallbackAll(items []news.Item) []news.Item {
	out := make([]news.Item, len(items))
	for i, it := range items {
		out[i] = Fallback(it)
	}
	return out
}

func truncatedContent(it news.Item) string {
	if it.RawContent == "" {
		return UnavailableSummary
	}
	return textutil.Truncate(it.RawContent, fallbackSummaryRune, "")
}
