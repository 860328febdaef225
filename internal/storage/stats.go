package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a client's stored plans.
type DataStats struct {
	TotalPlans       int64         `json:"total_plans"`
	TotalEntries     int64         `json:"total_entries"`
	CompletedEntries int64         `json:"completed_entries"`
	TotalLogs        int64         `json:"total_logs"`
	EarliestPlan     *time.Time    `json:"earliest_plan"`
	LatestPlan       *time.Time    `json:"latest_plan"`
	EntriesBySection []SectionStat `json:"entries_by_section"`
}

// SectionStat counts entries for one section label prefix and kind.
type SectionStat struct {
	Kind      string `json:"kind"`
	Section   string `json:"section"`
	Count     int64  `json:"count"`
	Completed int64  `json:"completed"`
}

// GetDataStats returns aggregate statistics for a client's stored plans.
func (db *DB) GetDataStats(ctx context.Context, clientID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(plan_date)::timestamptz, MAX(plan_date)::timestamptz FROM plans WHERE client_id = $1`, clientID,
	).Scan(&stats.TotalPlans, &stats.EarliestPlan, &stats.LatestPlan)
	if err != nil {
		return nil, fmt.Errorf("counting plans: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE c.completed)
		 FROM plan_entries e
		 JOIN plans p ON p.id = e.plan_id
		 LEFT JOIN entry_completions c ON c.plan_id = e.plan_id AND c.position = e.position
		 WHERE p.client_id = $1`, clientID,
	).Scan(&stats.TotalEntries, &stats.CompletedEntries)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE client_id = $1`, clientID,
	).Scan(&stats.TotalLogs)
	if err != nil {
		return nil, fmt.Errorf("counting activity logs: %w", err)
	}

	// Section labels carry durations ("Main (30 min)"), so group on the part
	// before the parenthesis.
	rows, err := db.Pool.Query(ctx,
		`SELECT p.kind, trim(split_part(e.section, '(', 1)) AS section,
		        COUNT(*), COUNT(*) FILTER (WHERE c.completed)
		 FROM plan_entries e
		 JOIN plans p ON p.id = e.plan_id
		 LEFT JOIN entry_completions c ON c.plan_id = e.plan_id AND c.position = e.position
		 WHERE p.client_id = $1
		 GROUP BY p.kind, section
		 ORDER BY p.kind, COUNT(*) DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying entries by section: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SectionStat
		if err := rows.Scan(&s.Kind, &s.Section, &s.Count, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning section stat: %w", err)
		}
		stats.EntriesBySection = append(stats.EntriesBySection, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
