package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var _ TopicRepository = (*TopicRepositoryImpl)(nil)

// TopicRepositoryImpl handles database operations for persisted topics.
type TopicRepositoryImpl struct {
	db *DB
}

func NewTopicRepository(db *DB) *TopicRepositoryImpl {
	return &TopicRepositoryImpl{db: db}
}

// SaveTopic writes the seen record and the topic row as one logical
// unit. The constrained insert on seen_posts doubles as the atomic
// insert-if-absent: when it affects zero rows the item was already
// seen, the transaction is rolled back, and no topic row is written.
// Two concurrent runs racing on the same item therefore produce exactly
// one topic.
func (r *TopicRepositoryImpl) SaveTopic(postKey, url string, topic NewTopic) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.Exec(`
		INSERT INTO seen_posts (platform, post_id, url, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (platform, post_id) DO NOTHING
	`, topic.Platform, postKey, url, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert seen record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	keywords, err := json.Marshal(topic.MatchedKeywords)
	if err != nil {
		return false, fmt.Errorf("failed to encode matched keywords: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO topics (
			platform, post_key, title, source, source_url,
			relevance_score, category, matched_keywords, is_high_value,
			content, content_extraction_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, topic.Platform, postKey, topic.Title, topic.Source, topic.SourceURL,
		topic.RelevanceScore, topic.Category, string(keywords), topic.IsHighValue,
		topic.Content, topic.ExtractionStatus, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert topic: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

func (r *TopicRepositoryImpl) GetTopics(filter TopicFilter) ([]Topic, error) {
	builder := sq.Select(
		"id", "platform", "post_key", "title", "source", "source_url",
		"relevance_score", "category", "matched_keywords", "is_high_value",
		"content", "extracted_content", "processed", "content_extraction_status",
		"content_extraction_error", "content_extracted_at",
		"extraction_attempts", "created_at").
		From("topics").
		OrderBy("created_at DESC")

	if filter.Platform != "" {
		builder = builder.Where(sq.Eq{"platform": filter.Platform})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.MinScore > 0 {
		builder = builder.Where(sq.GtOrEq{"relevance_score": filter.MinScore})
	}
	if filter.Unprocessed {
		builder = builder.Where(sq.Eq{"processed": false})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build topics query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic rows: %w", err)
	}

	return topics, nil
}

func scanTopic(rows *sql.Rows) (Topic, error) {
	var topic Topic
	var keywords string

	err := rows.Scan(
		&topic.ID, &topic.Platform, &topic.PostKey, &topic.Title,
		&topic.Source, &topic.SourceURL, &topic.RelevanceScore,
		&topic.Category, &keywords, &topic.IsHighValue, &topic.Content,
		&topic.ExtractedContent, &topic.Processed, &topic.ContentExtractionStatus,
		&topic.ContentExtractionError, &topic.ContentExtractedAt,
		&topic.ExtractionAttempts, &topic.CreatedAt,
	)
	if err != nil {
		return Topic{}, fmt.Errorf("failed to scan topic row: %w", err)
	}

	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &topic.MatchedKeywords); err != nil {
			return Topic{}, fmt.Errorf("failed to decode matched keywords: %w", err)
		}
	}

	return topic, nil
}

func (r *TopicRepositoryImpl) GetTopicCount(platform string) (int, error) {
	builder := sq.Select("COUNT(*)").From("topics")
	if platform != "" {
		builder = builder.Where(sq.Eq{"platform": platform})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get topic count: %w", err)
	}

	return count, nil
}

func (r *TopicRepositoryImpl) GetPlatformStats(todayStart time.Time) ([]PlatformStat, error) {
	rows, err := r.db.Query(`
		SELECT t.platform,
		       COUNT(*) AS topic_count,
		       SUM(CASE WHEN t.processed = 0 THEN 1 ELSE 0 END) AS unprocessed,
		       (SELECT COUNT(*) FROM seen_posts s
		        WHERE s.platform = t.platform AND s.created_at >= ?) AS seen_today
		FROM topics t
		GROUP BY t.platform
		ORDER BY t.platform
	`, todayStart.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	defer rows.Close()

	var stats []PlatformStat
	for rows.Next() {
		var stat PlatformStat
		if err := rows.Scan(&stat.Platform, &stat.TopicCount, &stat.Unprocessed, &stat.SeenToday); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats rows: %w", err)
	}

	return stats, nil
}

func (r *TopicRepositoryImpl) MarkProcessed(topicID int64) error {
	_, err := r.db.Exec(`UPDATE topics SET processed = 1 WHERE id = ?`, topicID)
	if err != nil {
		return fmt.Errorf("failed to mark topic processed: %w", err)
	}

	return nil
}

func (r *TopicRepositoryImpl) GetTopicsForExtraction(platform string, limit int) ([]TopicForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, source_url
		FROM topics
		WHERE platform = ?
		  AND content_extraction_status = 'pending'
		  AND extraction_attempts < 3
		  AND source_url != ''
		ORDER BY created_at DESC
		LIMIT ?
	`, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics for extraction: %w", err)
	}
	defer rows.Close()

	var topics []TopicForExtraction
	for rows.Next() {
		var topic TopicForExtraction
		if err := rows.Scan(&topic.ID, &topic.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return topics, nil
}

func (r *TopicRepositoryImpl) UpdateExtractedContentAndStatus(topicID int64, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE topics
		SET extracted_content = ?,
		    content_extraction_status = ?,
		    content_extracted_at = ?,
		    content_extraction_error = ?,
		    extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, content, status, extractedAt, errorMsg, topicID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *TopicRepositoryImpl) UpdateExtractionStatus(topicID int64, status string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE topics
		SET content_extraction_status = ?,
		    content_extraction_error = ?,
		    extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, status, errorMsg, topicID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}
