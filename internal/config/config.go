package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Feed is one RSS source. ID prefixes item ids ("coinbase" -> coinbase_0).
type Feed struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	URL   string `mapstructure:"url"`
	Limit int    `mapstructure:"limit"`
}

type Config struct {
	// HTTP
	BindAddr    string `mapstructure:"bind_addr"`
	OGImagePath string `mapstructure:"og_image_path"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`

	// Provider credentials
	CryptoPanicKey string `mapstructure:"crypto_panic_key"`
	NewsDataKey    string `mapstructure:"newsdata_key"`
	GroqAPIKey     string `mapstructure:"groq_api_key"`
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`

	// LLM settings
	LLMProvider    string  `mapstructure:"llm_provider"` // auto | groq | gemini | none
	GroqBaseURL    string  `mapstructure:"groq_base_url"`
	GroqModel      string  `mapstructure:"groq_model"`
	GeminiModel    string  `mapstructure:"gemini_model"`
	LLMTemperature float32 `mapstructure:"llm_temperature"`
	LLMMaxTokens   int     `mapstructure:"llm_max_tokens"`

	// Sources
	Feeds                []Feed        `mapstructure:"feeds"`
	RSSItemLimit         int           `mapstructure:"rss_item_limit"`
	RSSTimeout           time.Duration `mapstructure:"rss_timeout"`
	SourceTimeout        time.Duration `mapstructure:"source_timeout"`
	CryptoPanicURL       string        `mapstructure:"crypto_panic_url"`
	CryptoPanicFilters   []string      `mapstructure:"crypto_panic_filters"`
	CryptoPanicPerFilter int           `mapstructure:"crypto_panic_per_filter"`
	CryptoPanicDelay     time.Duration `mapstructure:"crypto_panic_delay"`
	NewsDataURL          string        `mapstructure:"newsdata_url"`
	NewsDataQueries      []string      `mapstructure:"newsdata_queries"`
	NewsDataSize         int           `mapstructure:"newsdata_size"`
	NewsDataDelay        time.Duration `mapstructure:"newsdata_delay"`

	// Pipeline
	RulesPath          string        `mapstructure:"rules_path"`
	DefaultLimit       int           `mapstructure:"default_limit"`
	MaxLimit           int           `mapstructure:"max_limit"`
	EnrichConcurrency  int           `mapstructure:"enrich_concurrency"`
	EnrichTimeout      time.Duration `mapstructure:"enrich_timeout"`
	EnrichStageTimeout time.Duration `mapstructure:"enrich_stage_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	AIDailyBudget      int           `mapstructure:"ai_daily_budget"` // 0 = unlimited

	// Article extraction
	ArticleTimeout  time.Duration `mapstructure:"article_timeout"`
	ArticleMaxChars int           `mapstructure:"article_max_chars"`
	ArticleMinChars int           `mapstructure:"article_min_chars"`

	// Enrichment cache
	CacheBackend  string        `mapstructure:"cache_backend"` // none | memory | file | redis
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheFile     string        `mapstructure:"cache_file"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

var defaults = map[string]any{
	"bind_addr":     ":8080",
	"og_image_path": "public/og-image.png",
	"log_level":     "info",
	"debug":         false,

	"crypto_panic_key": "",
	"newsdata_key":     "",
	"groq_api_key":     "",
	"gemini_api_key":   "",

	"llm_provider":    "auto",
	"groq_base_url":   "https://api.groq.com/openai/v1",
	"groq_model":      "llama-3.3-70b-versatile",
	"gemini_model":    "gemini-1.5-flash",
	"llm_temperature": 0.3,
	"llm_max_tokens":  500,

	"rss_item_limit":          15,
	"rss_timeout":             10 * time.Second,
	"source_timeout":          15 * time.Second,
	"crypto_panic_url":        "https://cryptopanic.com/api/v1/posts/",
	"crypto_panic_filters":    []string{"rising", "hot"},
	"crypto_panic_per_filter": 10,
	"crypto_panic_delay":      500 * time.Millisecond,
	"newsdata_url":            "https://newsdata.io/api/1/latest",
	"newsdata_queries": []string{
		"Base blockchain OR Base chain",
		"Coinbase layer 2 OR Coinbase L2",
		"Ethereum layer 2",
		"cryptocurrency",
		"artificial intelligence",
	},
	"newsdata_size":  3,
	"newsdata_delay": 600 * time.Millisecond,

	"rules_path":           "",
	"default_limit":        30,
	"max_limit":            50,
	"enrich_concurrency":   8,
	"enrich_timeout":       20 * time.Second,
	"enrich_stage_timeout": 45 * time.Second,
	"request_timeout":      75 * time.Second,
	"ai_daily_budget":      0,

	"article_timeout":   15 * time.Second,
	"article_max_chars": 10000,
	"article_min_chars": 100,

	"cache_backend":  "none",
	"cache_ttl":      6 * time.Hour,
	"cache_file":     "data/enrich-cache.json",
	"redis_addr":     "localhost:6379",
	"redis_password": "",
	"redis_db":       0,
}

// DefaultFeeds is used when the config file declares no feeds.
var DefaultFeeds = []Feed{
	{ID: "coinbase", Name: "Coinbase Blog", URL: "https://blog.coinbase.com/feed", Limit: 15},
}

// Load reads defaults, then the optional YAML file at path (or ./config.yaml,
// ./configs/config.yaml when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// PaaS platforms only hand out PORT.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BIND_ADDR") == "" && !v.InConfig("bind_addr") {
		cfg.BindAddr = ":" + port
	}

	cfg.FillDefaults()
	return cfg, cfg.Validate()
}

// FillDefaults completes feed entries and trims list values coming from env.
func (c *Config) FillDefaults() {
	if len(c.Feeds) == 0 {
		c.Feeds = append([]Feed(nil), DefaultFeeds...)
	}
	for i := range c.Feeds {
		f := &c.Feeds[i]
		if f.Limit <= 0 {
			f.Limit = c.RSSItemLimit
		}
		if f.Name == "" {
			f.Name = f.URL
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("feed%d", i)
		}
	}
	c.CryptoPanicFilters = trimList(c.CryptoPanicFilters)
	c.NewsDataQueries = trimList(c.NewsDataQueries)
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "", "auto", "groq", "gemini", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of auto, groq, gemini, none (got %q)", c.LLMProvider)
	}
	switch c.CacheBackend {
	case "", "none", "memory", "file", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of none, memory, file, redis (got %q)", c.CacheBackend)
	}
	if c.MaxLimit < 1 {
		return fmt.Errorf("MAX_LIMIT must be positive")
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("DEFAULT_LIMIT must be within [1, %d]", c.MaxLimit)
	}
	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive")
	}
	if c.RequestTimeout > 0 && c.EnrichStageTimeout > c.RequestTimeout {
		return fmt.Errorf("ENRICH_STAGE_TIMEOUT must not exceed REQUEST_TIMEOUT")
	}
	if c.ArticleMaxChars < c.ArticleMinChars {
		return fmt.Errorf("ARTICLE_MAX_CHARS must be >= ARTICLE_MIN_CHARS")
	}
	for _, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feed %q has no url", f.ID)
		}
	}
	return nil
}

// Provider resolves "auto" to the first LLM with a credential, or "none".
func (c *Config) Provider() string {
	switch c.LLMProvider {
	case "groq":
		if c.GroqAPIKey != "" {
			return "groq"
		}
	case "gemini":
		if c.GeminiAPIKey != "" {
			return "gemini"
		}
	case "", "auto":
		if c.GroqAPIKey != "" {
			return "groq"
		}
		if c.GeminiAPIKey != "" {
			return "gemini"
		}
	}
	return "none"
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
