package models

import (
	"fmt"
	"strings"

	"github.com/claude/coachplan/internal/plan"
	"github.com/google/uuid"
)

// PlanKind distinguishes workout plans from nutrition plans.
type PlanKind string

const (
	KindWorkout   PlanKind = "workout"
	KindNutrition PlanKind = "nutrition"
)

// planKindAliases maps URL and CLI spellings to a kind.
var planKindAliases = map[string]PlanKind{
	"workout":   KindWorkout,
	"workouts":  KindWorkout,
	"training":  KindWorkout,
	"nutrition": KindNutrition,
	"meal":      KindNutrition,
	"meals":     KindNutrition,
	"diet":      KindNutrition,
}

// ParsePlanKind normalizes a plan kind name.
func ParsePlanKind(raw string) (PlanKind, error) {
	if k, ok := planKindAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown plan kind %q", raw)
}

// Parse runs the matching extractor over every day in src.
func (k PlanKind) Parse(p *plan.Parser, src string) []plan.DayPlan {
	if k == KindNutrition {
		return p.ParseNutritionPlan(src)
	}
	return p.ParseWorkoutPlan(src)
}

// NewPlanRow builds the row for one parsed day.
func NewPlanRow(clientID int, kind PlanKind, day plan.DayPlan, fallbackID string) PlanRow {
	row := PlanRow{
		ID:       uuid.New(),
		ClientID: clientID,
		Kind:     kind,
		DayID:    day.ID,
		Title:    day.Title,
		PlanDate: day.Date,
		HTML:     day.HTML,
	}
	if row.DayID == "" {
		row.DayID = fallbackID
	}
	if day.Number > 0 {
		n := day.Number
		row.DayNumber = &n
	}
	return row
}

// EntryRows numbers a day's entries for the plan_entries table.
func EntryRows(planID uuid.UUID, entries []plan.Entry) []PlanEntryRow {
	rows := make([]PlanEntryRow, len(entries))
	for i, e := range entries {
		rows[i] = PlanEntryRow{PlanID: planID, Position: i, Entry: e}
	}
	return rows
}

// PlannedLog starts an activity log pre-filled with what the entry planned.
func PlannedLog(clientID int, row PlanEntryRow) ActivityLogRow {
	planID := row.PlanID
	pos := row.Position
	return ActivityLogRow{
		ClientID:        clientID,
		PlanID:          &planID,
		Position:        &pos,
		EntryName:       row.Name,
		PlannedSets:     row.Sets,
		PlannedReps:     row.Reps,
		PlannedWeight:   row.Weight,
		PlannedDuration: row.Duration,
		PlannedDistance: row.Distance,
	}
}
