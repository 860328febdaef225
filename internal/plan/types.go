package plan

import "time"

// EntryType classifies an extracted plan entry.
type EntryType string

const (
	EntryStrength EntryType = "strength"
	EntryCardio   EntryType = "cardio"
	EntryOther    EntryType = "other"
	EntryMeal     EntryType = "meal"
)

// Entry is a single exercise or meal item recovered from plan HTML.
// Everything except Sets stays a string: source text is inconsistent and
// ranges like "8-10" or units like "210 lbs" must survive untouched.
type Entry struct {
	Name        string    `json:"name"`
	Type        EntryType `json:"type"`
	Sets        int       `json:"sets,omitempty"`
	Reps        string    `json:"reps,omitempty"`
	Weight      string    `json:"weight,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Distance    string    `json:"distance,omitempty"`
	Pace        string    `json:"pace,omitempty"`
	Zone        string    `json:"zone,omitempty"`
	Description string    `json:"description,omitempty"`

	// Nutrition fields, only set on EntryMeal.
	Quantity string `json:"quantity,omitempty"`
	Calories string `json:"calories,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Fat      string `json:"fat,omitempty"`

	Section string `json:"section"`
}

// DaySegment is the slice of a plan document belonging to one day
// (or, for nutrition plans without day headings, one meal group).
type DaySegment struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Date   *time.Time `json:"date,omitempty"`
	Number int        `json:"number,omitempty"`
	HTML   string     `json:"html"`
}

// DayPlan is a segment together with the entries extracted from it.
type DayPlan struct {
	DaySegment
	Entries []Entry `json:"entries"`
}

// WorkoutResult is the output of ExtractEntries.
type WorkoutResult struct {
	Exercises []Entry `json:"exercises"`
}

// NutritionResult is the output of ExtractMeals.
type NutritionResult struct {
	Meals []Entry `json:"meals"`
}
