package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestWorkoutJSON verifies the workout command prints parsed exercises per file.
func TestWorkoutJSON(t *testing.T) {
	path := writePlan(t, `<h3>Main</h3><ul><li>Squats 4x8 @ 100 kg</li></ul>`)

	var got []parsedFile
	if err := json.Unmarshal([]byte(runCmd(t, "workout", path)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].File != path {
		t.Fatalf("output = %+v", got)
	}
	found := false
	for _, e := range got[0].Entries {
		if e.Name == "Squats" && e.Sets == 4 && e.Section == "Main" {
			found = true
		}
	}
	if !found {
		t.Errorf("Squats missing from %+v", got[0].Entries)
	}
}

// TestWorkoutDaysSummary verifies --days --summary prints one row per day and section.
func TestWorkoutDaysSummary(t *testing.T) {
	path := writePlan(t, `<h2>Day 1</h2><h3>Main</h3><ul><li>Squats 3x5</li></ul>
<h2>Day 2</h2><h3>Main</h3><ul><li>Deadlift 1x5</li></ul>`)

	out := runCmd(t, "workout", "--days", "--summary", path)
	if !strings.HasPrefix(out, "FILE") {
		t.Errorf("missing header:\n%s", out)
	}
	for _, want := range []string{"day-1", "day-2", "Squats", "Deadlift", "Warm-up"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// TestNutritionCommand verifies meals are extracted with the meal type.
func TestNutritionCommand(t *testing.T) {
	path := writePlan(t, `<h3>Breakfast</h3><ul><li>2 eggs, scrambled</li></ul>`)

	var got []parsedFile
	if err := json.Unmarshal([]byte(runCmd(t, "nutrition", path)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got[0].Entries) == 0 {
		t.Fatal("no meals")
	}
	if got[0].Entries[0].Type != "meal" {
		t.Errorf("type = %q, want meal", got[0].Entries[0].Type)
	}
}

// TestMissingFile verifies unreadable inputs fail the command.
func TestMissingFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"workout", filepath.Join(t.TempDir(), "nope.html")})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error")
	}
}

// TestRequiresFile verifies at least one file argument is required.
func TestRequiresFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"nutrition"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error")
	}
}
