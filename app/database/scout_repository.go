package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ScoutRepository = (*ScoutRepositoryImpl)(nil)

// ScoutRepositoryImpl handles run bookkeeping for configured scouts.
type ScoutRepositoryImpl struct {
	db *DB
}

func NewScoutRepository(db *DB) *ScoutRepositoryImpl {
	return &ScoutRepositoryImpl{db: db}
}

func (r *ScoutRepositoryImpl) GetScout(name string) (*Scout, error) {
	var scout Scout
	err := r.db.QueryRow(`
		SELECT name, platform, enabled, last_run_at, next_run_at, created_at, updated_at
		FROM scouts
		WHERE name = ?
	`, name).Scan(&scout.Name, &scout.Platform, &scout.Enabled,
		&scout.LastRunAt, &scout.NextRunAt, &scout.CreatedAt, &scout.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scout: %w", err)
	}

	return &scout, nil
}

func (r *ScoutRepositoryImpl) GetScouts() ([]Scout, error) {
	rows, err := r.db.Query(`
		SELECT name, platform, enabled, last_run_at, next_run_at, created_at, updated_at
		FROM scouts
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get scouts: %w", err)
	}
	defer rows.Close()

	var scouts []Scout
	for rows.Next() {
		var scout Scout
		err := rows.Scan(&scout.Name, &scout.Platform, &scout.Enabled,
			&scout.LastRunAt, &scout.NextRunAt, &scout.CreatedAt, &scout.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scout row: %w", err)
		}
		scouts = append(scouts, scout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scout rows: %w", err)
	}

	return scouts, nil
}

func (r *ScoutRepositoryImpl) GetScoutCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM scouts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get scout count: %w", err)
	}

	return count, nil
}

func (r *ScoutRepositoryImpl) UpsertScout(name, platform string, enabled bool) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO scouts (name, platform, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			platform = excluded.platform,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, name, platform, enabled, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert scout: %w", err)
	}

	return nil
}

func (r *ScoutRepositoryImpl) UpdateRunBookkeeping(name string, lastRun, nextRun time.Time) error {
	_, err := r.db.Exec(`
		UPDATE scouts
		SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE name = ?
	`, lastRun.UTC(), nextRun.UTC(), time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("failed to update run bookkeeping: %w", err)
	}

	return nil
}
