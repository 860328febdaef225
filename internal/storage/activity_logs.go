package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/coachplan/internal/models"
)

// InsertActivityLog stores a planned-vs-actual log and returns its ID.
func (db *DB) InsertActivityLog(ctx context.Context, row models.ActivityLogRow) (int64, error) {
	if row.LoggedAt.IsZero() {
		row.LoggedAt = time.Now().UTC()
	}
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO activity_logs (client_id, plan_id, position, logged_at, entry_name,
		 planned_sets, planned_reps, planned_weight, planned_duration, planned_distance,
		 actual_sets, actual_reps, actual_weight, actual_duration, actual_distance, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		 RETURNING id`,
		row.ClientID, row.PlanID, row.Position, row.LoggedAt, row.EntryName,
		row.PlannedSets, row.PlannedReps, row.PlannedWeight, row.PlannedDuration, row.PlannedDistance,
		row.ActualSets, row.ActualReps, row.ActualWeight, row.ActualDuration, row.ActualDistance, row.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting activity log: %w", err)
	}
	return id, nil
}

// QueryActivityLogs retrieves a client's logs in a time range, newest first.
func (db *DB) QueryActivityLogs(ctx context.Context, clientID int, start, end time.Time) ([]models.ActivityLogRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, client_id, plan_id, position, logged_at, entry_name,
		 planned_sets, planned_reps, planned_weight, planned_duration, planned_distance,
		 actual_sets, actual_reps, actual_weight, actual_duration, actual_distance, notes
		 FROM activity_logs
		 WHERE client_id = $1 AND logged_at >= $2 AND logged_at < $3
		 ORDER BY logged_at DESC`,
		clientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying activity logs: %w", err)
	}
	defer rows.Close()

	var result []models.ActivityLogRow
	for rows.Next() {
		var l models.ActivityLogRow
		if err := rows.Scan(&l.ID, &l.ClientID, &l.PlanID, &l.Position, &l.LoggedAt, &l.EntryName,
			&l.PlannedSets, &l.PlannedReps, &l.PlannedWeight, &l.PlannedDuration, &l.PlannedDistance,
			&l.ActualSets, &l.ActualReps, &l.ActualWeight, &l.ActualDuration, &l.ActualDistance, &l.Notes); err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
