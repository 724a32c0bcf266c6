package scout

import (
	"time"
)

// CategoryGeneral is assigned to items matching no scoring rule.
const CategoryGeneral = "general"

// Engagement holds upstream interaction counters for an item. Sources
// without engagement data leave it zeroed.
type Engagement struct {
	Likes    int
	Comments int
	Shares   int
}

// RawItem is one candidate piece of content as fetched, before scoring.
// ExternalID is the upstream identifier before any hashing; it is empty
// for sources without a stable id.
type RawItem struct {
	ExternalID  string
	Title       string
	Body        string
	URL         string
	Author      string
	PublishedAt *time.Time
	Engagement  Engagement
}

// ScoredItem is a RawItem plus derived relevance fields. Score and
// Category are never mutated after Scorer.Run returns.
type ScoredItem struct {
	RawItem

	Score           int
	Category        string
	MatchedKeywords []string
	IsHighValue     bool
}

// Stats summarizes one scout run. It is always produced, even when every
// feed in the run failed.
type Stats struct {
	Platform      string `json:"platform"`
	FeedsChecked  int    `json:"feedsChecked"`
	FeedErrors    int    `json:"feedErrors"`
	ItemsFetched  int    `json:"itemsFetched"`
	RelevantItems int    `json:"relevantItems"`
	Duplicates    int    `json:"duplicates"`
	NewItems      int    `json:"newItems"`
	CapRemaining  int    `json:"capRemaining"`
	AlertsSent    int    `json:"alertsSent"`
}
