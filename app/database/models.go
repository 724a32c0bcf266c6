package database

import (
	"time"
)

// SeenRecord is one row of the dedup set. For a given (platform,
// post_id) pair at most one row ever exists; the unique constraint is
// the dedup contract.
type SeenRecord struct {
	ID        int64
	Platform  string
	PostID    string
	URL       string
	CreatedAt time.Time
}

// Topic is a persisted, scored, deduplicated candidate content item.
// The ingestion pipeline only ever inserts topics; processed and the
// extraction columns are touched by downstream consumers and the
// content-extraction task respectively.
type Topic struct {
	ID                      int64
	Platform                string
	PostKey                 string
	Title                   string
	Source                  string
	SourceURL               string
	RelevanceScore          float64 // normalized 0-1
	Category                string
	MatchedKeywords         []string
	IsHighValue             bool
	Content                 string
	ExtractedContent        string
	Processed               bool
	ContentExtractionStatus string // pending, success, failed, skipped
	ContentExtractionError  string
	ContentExtractedAt      *time.Time
	ExtractionAttempts      int
	CreatedAt               time.Time
}

// Scout is the run-bookkeeping row for one configured scout.
type Scout struct {
	Name      string
	Platform  string
	Enabled   bool
	LastRunAt *time.Time
	NextRunAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlatformStat aggregates per-platform counters for the stats endpoint.
type PlatformStat struct {
	Platform    string
	TopicCount  int
	SeenToday   int
	Unprocessed int
}
