package store

import (
	"encoding/json"
	"fmt"

	"github.com/ferrhat-ae/solstice/domain"
)

var _ domain.ActivityRepository = (*Repository)(nil)

// InsertActivity implements the domain.ActivityRepository interface.
// The context map is stored as a JSON string alongside the entry.
func (repo *Repository) InsertActivity(activity domain.Activity) error {
	context := activity.Context
	if context == nil {
		context = map[string]any{}
	}
	marshalledContext, err := json.Marshal(context)
	if err != nil {
		return fmt.Errorf("failed to marshal activity context: %w", err)
	}

	query := `INSERT INTO activity (id, kind, message, context, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = repo.dbConn.Exec(query, activity.ID, activity.Kind, activity.Message, string(marshalledContext), activity.CreatedAt)

	if err != nil {
		return fmt.Errorf("inserting activity %s: %w", activity.ID, err)
	}

	return nil
}

// GetActivities implements the domain.ActivityRepository interface.
// Entries come back newest first; a limit of zero or less returns everything.
func (repo *Repository) GetActivities(limit int) ([]domain.Activity, error) {
	query := `SELECT id, kind, message, context, created_at FROM activity ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := repo.dbConn.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			activity   domain.Activity
			rawContext string
		)
		if err := rows.Scan(&activity.ID, &activity.Kind, &activity.Message, &rawContext, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		if err := json.Unmarshal([]byte(rawContext), &activity.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity context: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return activities, nil
}

// CountActivities implements the domain.ActivityRepository interface.
func (repo *Repository) CountActivities() (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM activity`
	err := repo.dbConn.Get(&count, query)

	if err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}

	return count, nil
}
