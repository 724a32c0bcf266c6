package database

import (
	"time"
)

// NewTopic carries the fields of a topic about to be persisted.
type NewTopic struct {
	Platform         string
	Title            string
	Source           string
	SourceURL        string
	RelevanceScore   float64 // normalized 0-1
	Category         string
	MatchedKeywords  []string
	IsHighValue      bool
	Content          string
	ExtractionStatus string
}

// TopicFilter narrows topic list queries.
type TopicFilter struct {
	Platform    string
	Category    string
	MinScore    float64
	Unprocessed bool
	Limit       int
}

// TopicForExtraction identifies a stored topic awaiting content
// extraction.
type TopicForExtraction struct {
	ID        int64
	SourceURL string
}

type SeenRepository interface {
	IsSeen(platform, postID string) (bool, error)
	// MarkSeen inserts the seen record if absent. It reports false,
	// without error, when the record already existed: the constrained
	// insert is the atomic insert-if-absent the dedup contract requires.
	MarkSeen(platform, postID, url string) (bool, error)
	CountSince(platform string, since time.Time) (int, error)
}

type TopicRepository interface {
	// SaveTopic writes the seen record and the topic row in a single
	// transaction. It reports false, without error, when the seen
	// record already existed; no topic row is written in that case.
	SaveTopic(postKey, url string, topic NewTopic) (bool, error)

	GetTopics(filter TopicFilter) ([]Topic, error)
	GetTopicCount(platform string) (int, error)
	GetPlatformStats(todayStart time.Time) ([]PlatformStat, error)
	MarkProcessed(topicID int64) error

	GetTopicsForExtraction(platform string, limit int) ([]TopicForExtraction, error)
	UpdateExtractedContentAndStatus(topicID int64, content string, status string, extractedAt *time.Time, errorMsg string) error
	UpdateExtractionStatus(topicID int64, status string, errorMsg string) error
}

type ScoutRepository interface {
	GetScout(name string) (*Scout, error)
	GetScouts() ([]Scout, error)
	GetScoutCount() (int, error)

	UpsertScout(name, platform string, enabled bool) error
	UpdateRunBookkeeping(name string, lastRun, nextRun time.Time) error
}
