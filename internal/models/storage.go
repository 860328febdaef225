package models

import (
	"time"

	"github.com/claude/coachplan/internal/plan"
	"github.com/google/uuid"
)

// ClientRow is a row in the clients table.
type ClientRow struct {
	ID          int       `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// PlanRow is a row in the plans table: one day of one client's plan.
type PlanRow struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  int        `json:"client_id"`
	Kind      PlanKind   `json:"kind"`
	DayID     string     `json:"day_id"`
	Title     string     `json:"title"`
	PlanDate  *time.Time `json:"plan_date,omitempty"`
	DayNumber *int       `json:"day_number,omitempty"`
	HTML      string     `json:"html"`
	CreatedAt time.Time  `json:"created_at"`
}

// PlanEntryRow is a row in the plan_entries table.
type PlanEntryRow struct {
	PlanID   uuid.UUID `json:"plan_id"`
	Position int       `json:"position"`
	plan.Entry
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PlanDetail is a stored plan day with its entries in order.
type PlanDetail struct {
	PlanRow
	Entries []PlanEntryRow `json:"entries"`
}

// Entry returns the entry at position, or nil.
func (d *PlanDetail) Entry(position int) *PlanEntryRow {
	for i := range d.Entries {
		if d.Entries[i].Position == position {
			return &d.Entries[i]
		}
	}
	return nil
}

// ActivityLogRow is a row in the activity_logs table: what the client
// actually did against a planned entry.
type ActivityLogRow struct {
	ID        int64      `json:"id"`
	ClientID  int        `json:"client_id"`
	PlanID    *uuid.UUID `json:"plan_id,omitempty"`
	Position  *int       `json:"position,omitempty"`
	LoggedAt  time.Time  `json:"logged_at"`
	EntryName string     `json:"entry_name"`

	PlannedSets     int    `json:"planned_sets,omitempty"`
	PlannedReps     string `json:"planned_reps,omitempty"`
	PlannedWeight   string `json:"planned_weight,omitempty"`
	PlannedDuration string `json:"planned_duration,omitempty"`
	PlannedDistance string `json:"planned_distance,omitempty"`

	ActualSets     *int   `json:"actual_sets,omitempty"`
	ActualReps     string `json:"actual_reps,omitempty"`
	ActualWeight   string `json:"actual_weight,omitempty"`
	ActualDuration string `json:"actual_duration,omitempty"`
	ActualDistance string `json:"actual_distance,omitempty"`

	Notes string `json:"notes,omitempty"`
}
