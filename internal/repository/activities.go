package repository

import (
	"database/sql"
	"fmt"

	"github.com/hwg121/taskmanagement/internal/models"
)

// CreateActivity appends an activity record. The log is append-only;
// nothing ever updates or deletes rows.
func (r *Repository) CreateActivity(activity *models.Activity) error {
	query := `
		INSERT INTO activities (username, action, type, timestamp)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, timestamp`
	err := r.db.QueryRow(query, activity.Username, activity.Action, activity.Type).
		Scan(&activity.ID, &activity.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListActivities returns activities, newest first.
func (r *Repository) ListActivities() ([]*models.Activity, error) {
	query := `
		SELECT id, username, action, type, timestamp
		FROM activities
		ORDER BY timestamp DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.Username, &a.Action, &a.Type, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// GetSystemStats loads the persisted stats snapshot.
func (r *Repository) GetSystemStats() (*models.SystemStats, error) {
	stats := &models.SystemStats{}
	query := `
		SELECT cpu_usage, ram_usage, disk_usage, network_usage, last_updated
		FROM system_stats
		WHERE id = 1`
	err := r.db.QueryRow(query).
		Scan(&stats.CPUUsage, &stats.RAMUsage, &stats.DiskUsage, &stats.NetworkUsage, &stats.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get system stats: %w", err)
	}
	return stats, nil
}

// SaveSystemStats upserts the single stats snapshot row.
func (r *Repository) SaveSystemStats(stats *models.SystemStats) error {
	query := `
		INSERT INTO system_stats (id, cpu_usage, ram_usage, disk_usage, network_usage, last_updated)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET cpu_usage = $1, ram_usage = $2, disk_usage = $3, network_usage = $4, last_updated = $5`
	_, err := r.db.Exec(query, stats.CPUUsage, stats.RAMUsage, stats.DiskUsage,
		stats.NetworkUsage, stats.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save system stats: %w", err)
	}
	return nil
}
