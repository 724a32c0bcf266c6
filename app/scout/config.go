package scout

import (
	"time"
)

// Adapter kinds understood by the source package.
const (
	AdapterRSS        = "rss"
	AdapterHackerNews = "hackernews"
	AdapterDevTo      = "devto"
	AdapterHTMLJSON   = "htmljson"
	AdapterSearch     = "search"
)

// Config is the static configuration for one scout, loaded from a YAML
// file in the scouts directory. Immutable during a run.
type Config struct {
	Name      string   `yaml:"-"` // derived from filename
	Platform  string   `yaml:"platform"`
	KeyPrefix string   `yaml:"key_prefix"`
	Adapter   string   `yaml:"adapter"`
	Endpoint  string   `yaml:"endpoint"` // optional upstream override
	Feeds     []string `yaml:"feeds"`
	Queries   []string `yaml:"queries"`
	Settings  Settings `yaml:"settings"`
	Scoring   Scoring  `yaml:"scoring"`
}

type Settings struct {
	Enabled          bool `yaml:"enabled"`
	RefreshInterval  int  `yaml:"refresh_interval"` // seconds
	Timeout          int  `yaml:"timeout"`          // seconds, per upstream HTTP call
	MaxItems         int  `yaml:"max_items"`        // upstream page-size bound
	QueryDelayMs     int  `yaml:"query_delay_ms"`   // fixed inter-query delay
	DailyCap         int  `yaml:"daily_cap"`
	PersistThreshold int  `yaml:"persist_threshold"`
	AlertThreshold   int  `yaml:"alert_threshold"`
	AlertLimit       int  `yaml:"alert_limit"`
	ExtractContent   bool `yaml:"extract_content"`
}

// Scoring is the declarative rule table driving the scorer. Categories
// are evaluated in listed order; the first category with any pattern
// match wins.
type Scoring struct {
	DefaultScore      int               `yaml:"default_score"`
	Categories        []CategoryRule    `yaml:"categories"`
	Keywords          []string          `yaml:"keywords"`
	KeywordPoints     int               `yaml:"keyword_points"`
	Engagement        []EngagementBonus `yaml:"engagement"`
	HighValueContexts []string          `yaml:"high_value_contexts"`
	HighValuePoints   int               `yaml:"high_value_points"`
}

type CategoryRule struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Patterns []string `yaml:"patterns"`
}

type EngagementBonus struct {
	Metric string `yaml:"metric"` // likes, comments, shares
	Min    int    `yaml:"min"`
	Points int    `yaml:"points"`
}

// RunQueries returns the upstream queries a run iterates over: feed/page
// URLs for document-shaped adapters, keywords/tags for API adapters.
func (c *Config) RunQueries() []string {
	switch c.Adapter {
	case AdapterRSS, AdapterHTMLJSON:
		return c.Feeds
	default:
		return c.Queries
	}
}

func (s *Settings) GetRefreshInterval() time.Duration {
	return time.Duration(s.RefreshInterval) * time.Second
}

func (s *Settings) GetTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s *Settings) GetQueryDelay() time.Duration {
	return time.Duration(s.QueryDelayMs) * time.Millisecond
}
