package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const dayOfMeals = `
<h3>Breakfast (450 kcal)</h3>
<ul>
  <li>2 eggs, scrambled</li>
  <li>1 cup of oatmeal with berries</li>
</ul>
<h3>Lunch</h3>
<ul>
  <li>Grilled chicken salad: mixed greens, 150g chicken, 35g protein</li>
</ul>
<p><strong>Dinner</strong></p>
<p>200g salmon - baked with lemon; 1 cup brown rice</p>
`

// TestExtractMeals is the nutrition happy path: meal headings set the
// section and quantities and macros are pulled out of each line.
func TestExtractMeals(t *testing.T) {
	got := ExtractMeals(dayOfMeals).Meals
	want := []Entry{
		{Name: "eggs, scrambled", Type: EntryMeal, Quantity: "2", Section: "Breakfast"},
		{Name: "oatmeal with berries", Type: EntryMeal, Quantity: "1 cup", Section: "Breakfast"},
		{
			Name:        "Grilled chicken salad",
			Type:        EntryMeal,
			Description: "mixed greens, 150g chicken, 35g protein",
			Protein:     "35g",
			Section:     "Lunch",
		},
		{Name: "salmon", Type: EntryMeal, Quantity: "200g", Description: "baked with lemon", Section: "Dinner"},
		{Name: "brown rice", Type: EntryMeal, Quantity: "1 cup", Section: "Dinner"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractMeals mismatch (-want +got):\n%s", diff)
	}
}

// TestMatchMealMacros verifies calories and macros in either order.
func TestMatchMealMacros(t *testing.T) {
	e, ok := matchMeal("Protein shake: 1 scoop whey, 300 kcal, protein: 25g, 10g carbs, 3g fat")
	if !ok {
		t.Fatal("no match")
	}
	if e.Name != "Protein shake" {
		t.Errorf("Name = %q, want %q", e.Name, "Protein shake")
	}
	if e.Calories != "300 kcal" {
		t.Errorf("Calories = %q, want %q", e.Calories, "300 kcal")
	}
	if e.Protein != "25g" {
		t.Errorf("Protein = %q, want %q", e.Protein, "25g")
	}
	if e.Carbs != "10g" {
		t.Errorf("Carbs = %q, want %q", e.Carbs, "10g")
	}
	if e.Fat != "3g" {
		t.Errorf("Fat = %q, want %q", e.Fat, "3g")
	}
}

// TestMealHeaderLine verifies which plain lines switch the current meal.
func TestMealHeaderLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Breakfast", "Breakfast", true},
		{"Lunch (550 kcal)", "Lunch", true},
		{"Dinner options", "Dinner", true},
		{"Snacks", "Snack", true},
		{"Snack 2", "Snack", true},
		{"Lunch: turkey sandwich", "", false},
		{"Leftover dinner", "", false},
	}
	for _, tt := range tests {
		got, ok := mealHeaderLine(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("mealHeaderLine(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestSegmentMealsFallback verifies a plan without days is grouped into one
// pseudo-day per meal type, merging repeated headings.
func TestSegmentMealsFallback(t *testing.T) {
	src := `<p><strong>Breakfast</strong></p><ul><li>2 eggs, scrambled</li></ul>` +
		`<p><strong>Snacks</strong></p><ul><li>1 apple</li></ul>` +
		`<p><strong>Breakfast</strong></p><ul><li>1 banana</li></ul>`
	got := SegmentMeals(src)
	want := []DaySegment{
		{ID: "breakfast", Title: "Breakfast", HTML: "<ul><li>2 eggs, scrambled</li></ul>\n<ul><li>1 banana</li></ul>"},
		{ID: "snack", Title: "Snacks", HTML: "<ul><li>1 apple</li></ul>"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentMeals mismatch (-want +got):\n%s", diff)
	}
}

// TestSegmentMealsPrefersDays verifies day headings win over meal headings.
func TestSegmentMealsPrefersDays(t *testing.T) {
	src := `<h2>Day 1</h2><h3>Breakfast</h3><p>2 eggs</p><h2>Day 2</h2><h3>Lunch</h3><p>1 wrap</p>`
	got := SegmentMeals(src)
	if len(got) != 2 || got[0].ID != "day-1" || got[1].ID != "day-2" {
		t.Errorf("SegmentMeals = %+v, want day-1 and day-2", got)
	}
}

// TestParseNutritionPlan verifies pseudo-day entries default to their meal.
func TestParseNutritionPlan(t *testing.T) {
	src := `<p><strong>Lunch</strong></p><ul><li>Turkey wrap: whole wheat tortilla</li></ul>` +
		`<p><strong>Dinner</strong></p><ul><li>200g salmon</li></ul>`
	days := ParseNutritionPlan(src)
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	for _, tc := range []struct {
		day     DayPlan
		name    string
		section string
	}{
		{days[0], "Turkey wrap", "Lunch"},
		{days[1], "salmon", "Dinner"},
	} {
		if len(tc.day.Entries) != 1 {
			t.Errorf("%s entries = %+v, want 1", tc.day.ID, tc.day.Entries)
			continue
		}
		e := tc.day.Entries[0]
		if e.Name != tc.name || e.Section != tc.section {
			t.Errorf("%s entry = %q/%q, want %q/%q", tc.day.ID, e.Name, e.Section, tc.name, tc.section)
		}
	}
}

// TestExtractMealsEmpty verifies empty and noise-only input yield no meals.
func TestExtractMealsEmpty(t *testing.T) {
	for _, in := range []string{"", "<p>Breakfast</p>", "<ul><li>--</li></ul>"} {
		got := ExtractMeals(in).Meals
		if got == nil || len(got) != 0 {
			t.Errorf("ExtractMeals(%q) = %+v, want empty non-nil slice", in, got)
		}
	}
}
