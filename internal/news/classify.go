package news

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule is one row of the classifier table. A rule matches when every
// populated criterion matches: Any (one keyword), All (one keyword from each
// group) and Currencies (one of the item's currency codes).
type Rule struct {
	Name       string     `yaml:"name"`
	Category   Category   `yaml:"category"`
	Any        []string   `yaml:"any"`
	All        [][]string `yaml:"all"`
	Currencies []string   `yaml:"currencies"`
}

// RuleSet is the YAML document shape.
type RuleSet struct {
	Default Category `yaml:"default"`
	Rules   []Rule   `yaml:"rules"`
}

type keyword struct {
	text string
	re   *regexp.Regexp
}

func (k keyword) match(text string) bool {
	if k.re != nil {
		return k.re.MatchString(text)
	}
	return strings.Contains(text, k.text)
}

// compileKeywords: phrases and longer words match as substrings, short single
// words need word boundaries so "ai" does not hit "said".
func compileKeywords(words []string) []keyword {
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		k := keyword{text: w}
		if !strings.Contains(w, " ") && len(w) <= 4 {
			k.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
		out = append(out, k)
	}
	return out
}

func containsAny(text string, keywords []keyword) bool {
	for _, k := range keywords {
		if k.match(text) {
			return true
		}
	}
	return false
}

type compiledRule struct {
	name       string
	category   Category
	any        []keyword
	all        [][]keyword
	currencies map[string]struct{}
}

func (r compiledRule) matches(text string, currencies []string) bool {
	if len(r.any) > 0 && !containsAny(text, r.any) {
		return false
	}
	for _, group := range r.all {
		if !containsAny(text, group) {
			return false
		}
	}
	if len(r.currencies) > 0 {
		hit := false
		for _, c := range currencies {
			if _, ok := r.currencies[strings.ToUpper(strings.TrimSpace(c))]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Classifier assigns a category by walking an ordered rule table.
type Classifier struct {
	fallback Category
	rules    []compiledRule
}

// DefaultClassifier uses the embedded rule table.
func DefaultClassifier() *Classifier {
	c, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded classifier rules: %v", err))
	}
	return c
}

// LoadClassifier reads a rule table from path, or the embedded one when path is empty.
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return DefaultClassifier(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Classifier, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	c := &Classifier{fallback: CategoryWorld}
	if set.Default != "" {
		def, ok := ParseCategory(string(set.Default))
		if !ok {
			return nil, fmt.Errorf("unknown default category %q", set.Default)
		}
		c.fallback = def
	}

	for i, r := range set.Rules {
		cat, ok := ParseCategory(string(r.Category))
		if !ok {
			return nil, fmt.Errorf("rule %d (%s): unknown category %q", i, r.Name, r.Category)
		}
		cr := compiledRule{name: r.Name, category: cat, any: compileKeywords(r.Any)}
		for _, group := range r.All {
			if kws := compileKeywords(group); len(kws) > 0 {
				cr.all = append(cr.all, kws)
			}
		}
		if len(r.Currencies) > 0 {
			cr.currencies = make(map[string]struct{}, len(r.Currencies))
			for _, code := range r.Currencies {
				cr.currencies[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
			}
		}
		if len(cr.any) == 0 && len(cr.all) == 0 && len(cr.currencies) == 0 {
			return nil, fmt.Errorf("rule %d (%s) has no criteria", i, r.Name)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Classify returns the category of the first matching rule, or the default.
func (c *Classifier) Classify(title, description string, currencies []string) Category {
	cat, _ := c.Explain(title, description, currencies)
	return cat
}

// Explain is Classify plus the name of the rule that decided ("default" if none).
func (c *Classifier) Explain(title, description string, currencies []string) (Category, string) {
	text := strings.ToLower(title + " " + description)
	for _, r := range c.rules {
		if r.matches(text, currencies) {
			return r.category, r.name
		}
	}
	return c.fallback, "default"
}

// Apply classifies every item in place.
func (c *Classifier) Apply(items []Item) {
	for i := range items {
		items[i].Category = c.Classify(items[i].Title, items[i].Description, items[i].Currencies)
	}
}
