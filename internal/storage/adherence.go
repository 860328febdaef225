package storage

import (
	"context"
	"fmt"
	"math"
	"time"
)

// AdherencePeriod holds planned-vs-completed counts for one time period.
type AdherencePeriod struct {
	Period    string  `json:"period"`
	Kind      string  `json:"kind"`
	Planned   int     `json:"planned"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
	Logs      int     `json:"logs"`
}

// GetAdherence returns how many dated plan entries were completed per period.
func (db *DB) GetAdherence(ctx context.Context, clientID int, start, end time.Time, bucket string) ([]AdherencePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`WITH entries AS (
			SELECT date_trunc($1, p.plan_date)::date AS period, p.kind,
			       COUNT(*)::int AS planned,
			       (COUNT(*) FILTER (WHERE c.completed))::int AS completed
			FROM plan_entries e
			JOIN plans p ON p.id = e.plan_id
			LEFT JOIN entry_completions c ON c.plan_id = e.plan_id AND c.position = e.position
			WHERE p.client_id = $2 AND p.plan_date >= $3 AND p.plan_date < $4
			GROUP BY 1, 2
		), logs AS (
			SELECT date_trunc($1, logged_at)::date AS period, COUNT(*)::int AS n
			FROM activity_logs
			WHERE client_id = $2 AND logged_at >= $3 AND logged_at < $4
			GROUP BY 1
		)
		SELECT en.period, en.kind, en.planned, en.completed, COALESCE(l.n, 0)
		FROM entries en
		LEFT JOIN logs l ON l.period = en.period
		ORDER BY en.period DESC, en.kind`,
		truncInterval(bucket), clientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying adherence: %w", err)
	}
	defer rows.Close()

	var result []AdherencePeriod
	for rows.Next() {
		var periodTime time.Time
		var a AdherencePeriod
		if err := rows.Scan(&periodTime, &a.Kind, &a.Planned, &a.Completed, &a.Logs); err != nil {
			return nil, fmt.Errorf("scanning adherence: %w", err)
		}
		a.Period = periodTime.Format(time.DateOnly)
		a.Rate = completionRate(a.Completed, a.Planned)
		result = append(result, a)
	}
	return result, rows.Err()
}

// completionRate returns completed/planned rounded to two decimals.
func completionRate(completed, planned int) float64 {
	if planned <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(planned)*100) / 100
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case "1 day", "day":
		return "day"
	case "1 week", "week":
		return "week"
	case "1 month", "month":
		return "month"
	default:
		return "week"
	}
}
