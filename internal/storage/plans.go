package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// entryColumns is the number of bind parameters per plan_entries row.
const entryColumns = 18

// maxBindParams is the PostgreSQL wire protocol limit on parameters per statement.
const maxBindParams = 65535

// entriesPerInsert is the most rows one INSERT into plan_entries can carry.
const entriesPerInsert = maxBindParams / entryColumns

// ReplacePlan stores one plan day with its entries, replacing any earlier
// upload for the same client, kind and day. Completions on the replaced plan
// are dropped with it. Returns the number of entries inserted.
func (db *DB) ReplacePlan(ctx context.Context, row models.PlanRow, entries []models.PlanEntryRow) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM plans WHERE client_id = $1 AND kind = $2 AND day_id = $3`,
		row.ClientID, string(row.Kind), row.DayID); err != nil {
		return 0, fmt.Errorf("deleting previous plan %s: %w", row.DayID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO plans (id, client_id, kind, day_id, title, plan_date, day_number, html)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		row.ID, row.ClientID, string(row.Kind), row.DayID, row.Title, row.PlanDate, row.DayNumber, row.HTML); err != nil {
		return 0, fmt.Errorf("inserting plan %s: %w", row.DayID, err)
	}

	var n int64
	for _, chunk := range chunkEntries(entries, entriesPerInsert) {
		inserted, err := insertPlanEntries(ctx, tx, chunk)
		if err != nil {
			return 0, err
		}
		n += inserted
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing plan %s: %w", row.DayID, err)
	}
	return n, nil
}

// chunkEntries splits rows into consecutive slices of at most size rows.
func chunkEntries(rows []models.PlanEntryRow, size int) [][]models.PlanEntryRow {
	var out [][]models.PlanEntryRow
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

// insertPlanEntries batch-inserts entry rows in one statement. Callers keep
// len(rows) within entriesPerInsert. Returns count inserted.
func insertPlanEntries(ctx context.Context, tx pgx.Tx, rows []models.PlanEntryRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO plan_entries (plan_id, position, section, name, entry_type, sets, reps, weight,
	 duration, distance, pace, zone, description, quantity, calories, protein, carbs, fat) VALUES `
	args := make([]any, 0, len(rows)*entryColumns)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * entryColumns
		placeholders := make([]string, entryColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, r.PlanID, r.Position, r.Section, r.Name, string(r.Type), r.Sets, r.Reps, r.Weight,
			r.Duration, r.Distance, r.Pace, r.Zone, r.Description, r.Quantity, r.Calories, r.Protein, r.Carbs, r.Fat)
	}

	query += strings.Join(valueStrings, ",")

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting plan entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListPlans returns a client's plan days, optionally filtered by kind and a
// plan date range. Undated days are included only when no range is given.
func (db *DB) ListPlans(ctx context.Context, clientID int, kind models.PlanKind, start, end *time.Time) ([]models.PlanRow, error) {
	query := `SELECT id, client_id, kind, day_id, title, plan_date, day_number, html, created_at
		 FROM plans WHERE client_id = $1`
	args := []any{clientID}
	if kind != "" {
		args = append(args, string(kind))
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND plan_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND plan_date < $%d", len(args))
	}
	query += " ORDER BY plan_date NULLS LAST, day_number NULLS LAST, day_id"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var result []models.PlanRow
	for rows.Next() {
		var p models.PlanRow
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Kind, &p.DayID, &p.Title, &p.PlanDate,
			&p.DayNumber, &p.HTML, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetPlan retrieves a plan day with its entries and completion state.
func (db *DB) GetPlan(ctx context.Context, id uuid.UUID) (*models.PlanDetail, error) {
	var p models.PlanRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, client_id, kind, day_id, title, plan_date, day_number, html, created_at
		 FROM plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.ClientID, &p.Kind, &p.DayID, &p.Title, &p.PlanDate, &p.DayNumber, &p.HTML, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "plan "+id.String())
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT e.plan_id, e.position, e.section, e.name, e.entry_type, e.sets, e.reps, e.weight,
		 e.duration, e.distance, e.pace, e.zone, e.description, e.quantity, e.calories, e.protein, e.carbs, e.fat,
		 COALESCE(c.completed, FALSE), c.completed_at
		 FROM plan_entries e
		 LEFT JOIN entry_completions c ON c.plan_id = e.plan_id AND c.position = e.position
		 WHERE e.plan_id = $1
		 ORDER BY e.position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying plan entries: %w", err)
	}
	defer rows.Close()

	detail := &models.PlanDetail{PlanRow: p, Entries: []models.PlanEntryRow{}}
	for rows.Next() {
		var e models.PlanEntryRow
		var entryType string
		if err := rows.Scan(&e.PlanID, &e.Position, &e.Section, &e.Name, &entryType, &e.Sets, &e.Reps, &e.Weight,
			&e.Duration, &e.Distance, &e.Pace, &e.Zone, &e.Description, &e.Quantity, &e.Calories,
			&e.Protein, &e.Carbs, &e.Fat, &e.Completed, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning plan entry: %w", err)
		}
		e.Type = plan.EntryType(entryType)
		detail.Entries = append(detail.Entries, e)
	}
	return detail, rows.Err()
}

// SetCompletion records whether the client ticked off an entry.
func (db *DB) SetCompletion(ctx context.Context, planID uuid.UUID, position int, completed bool) error {
	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO entry_completions (plan_id, position, completed, completed_at)
		 SELECT plan_id, position, $3, $4 FROM plan_entries WHERE plan_id = $1 AND position = $2
		 ON CONFLICT (plan_id, position) DO UPDATE
			SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at`,
		planID, position, completed, completedAt)
	if err != nil {
		return fmt.Errorf("setting completion for plan %s entry %d: %w", planID, position, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("plan %s entry %d: %w", planID, position, ErrNotFound)
	}
	return nil
}
