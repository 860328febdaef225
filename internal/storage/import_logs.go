package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ImportLog represents a single plan upload's outcome.
type ImportLog struct {
	ID              int64            `json:"id"`
	ClientID        int              `json:"client_id"`
	CreatedAt       time.Time        `json:"created_at"`
	Source          string           `json:"source"`
	Kind            string           `json:"kind"`
	Status          string           `json:"status"`
	DaysReceived    int              `json:"days_received"`
	PlansInserted   int              `json:"plans_inserted"`
	EntriesInserted int64            `json:"entries_inserted"`
	DurationMs      *int             `json:"duration_ms"`
	ErrorMessage    *string          `json:"error_message"`
	Metadata        *json.RawMessage `json:"metadata"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (client_id, source, kind, status, days_received, plans_inserted,
		 entries_inserted, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.ClientID, log.Source, log.Kind, log.Status, log.DaysReceived, log.PlansInserted,
		log.EntriesInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, days_received = $3, plans_inserted = $4, entries_inserted = $5,
		 duration_ms = $6, error_message = $7, metadata = $8
		 WHERE id = $1`,
		id, log.Status, log.DaysReceived, log.PlansInserted, log.EntriesInserted,
		log.DurationMs, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs, for one client or for
// everyone when clientID is 0.
func (db *DB) QueryImportLogs(ctx context.Context, clientID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, client_id, created_at, source, kind, status, days_received, plans_inserted,
		 entries_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE $1 = 0 OR client_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.ClientID, &l.CreatedAt, &l.Source, &l.Kind, &l.Status,
			&l.DaysReceived, &l.PlansInserted, &l.EntriesInserted, &l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
