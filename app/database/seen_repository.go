package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SeenRepository = (*SeenRepositoryImpl)(nil)

// SeenRepositoryImpl handles database operations for the dedup set.
type SeenRepositoryImpl struct {
	db *DB
}

func NewSeenRepository(db *DB) *SeenRepositoryImpl {
	return &SeenRepositoryImpl{db: db}
}

func (r *SeenRepositoryImpl) IsSeen(platform, postID string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM seen_posts WHERE platform = ? AND post_id = ? LIMIT 1
	`, platform, postID).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check seen record: %w", err)
	}

	return true, nil
}

func (r *SeenRepositoryImpl) MarkSeen(platform, postID, url string) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO seen_posts (platform, post_id, url, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (platform, post_id) DO NOTHING
	`, platform, postID, url, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark seen: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *SeenRepositoryImpl) CountSince(platform string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM seen_posts WHERE platform = ? AND created_at >= ?
	`, platform, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count seen records: %w", err)
	}

	return count, nil
}
