package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
)

type fakeStore struct {
	plans      []models.PlanRow
	entries    map[string][]models.PlanEntryRow
	logs       []storage.ImportLog
	updates    []storage.ImportLog
	replaceErr error
}

func (f *fakeStore) ReplacePlan(_ context.Context, row models.PlanRow, entries []models.PlanEntryRow) (int64, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	if f.entries == nil {
		f.entries = map[string][]models.PlanEntryRow{}
	}
	f.plans = append(f.plans, row)
	f.entries[row.DayID] = entries
	return int64(len(entries)), nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.logs = append(f.logs, log)
	return int64(len(f.logs)), nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, _ int64, log storage.ImportLog) error {
	f.updates = append(f.updates, log)
	return nil
}

func testProvider(store Store, opts plan.Options) *Provider {
	return NewProvider(store, plan.New(opts), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const twoDayWorkout = `
<h2>Day 1</h2>
<h3>Warm-up</h3><ul><li>Jog for 10 minutes</li></ul>
<h3>Main</h3><ul><li>Squats 4x8 @ 100 kg</li></ul>
<h2>Day 2</h2>
<ul><li>Bench press 3x10</li></ul>`

// TestIngestWorkoutDays verifies each day is stored with its entries and the
// import log moves from running to success.
func TestIngestWorkoutDays(t *testing.T) {
	store := &fakeStore{}
	p := testProvider(store, plan.DefaultOptions())

	res, err := p.Ingest(context.Background(), models.KindWorkout, 4, "api", twoDayWorkout)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.DaysReceived != 2 || res.PlansInserted != 2 {
		t.Errorf("days = %d, plans = %d, want 2/2", res.DaysReceived, res.PlansInserted)
	}
	if strings.Join(res.DayIDs, ",") != "day-1,day-2" {
		t.Errorf("DayIDs = %v", res.DayIDs)
	}
	for _, row := range store.plans {
		if row.ClientID != 4 || row.Kind != models.KindWorkout {
			t.Errorf("plan row = %+v", row)
		}
	}
	var total int64
	for _, e := range store.entries {
		total += int64(len(e))
	}
	if res.EntriesInserted != total {
		t.Errorf("EntriesInserted = %d, stored %d", res.EntriesInserted, total)
	}

	if len(store.logs) != 1 || store.logs[0].Status != "running" || store.logs[0].Source != "api" {
		t.Fatalf("import logs = %+v", store.logs)
	}
	if len(store.updates) != 1 || store.updates[0].Status != "success" {
		t.Fatalf("updates = %+v", store.updates)
	}
	if store.updates[0].DurationMs == nil {
		t.Error("duration not recorded")
	}
}

// TestIngestNutrition verifies meal plans go through the nutrition extractor.
func TestIngestNutrition(t *testing.T) {
	store := &fakeStore{}
	p := testProvider(store, plan.DefaultOptions())

	res, err := p.Ingest(context.Background(), models.KindNutrition, 1, "upload",
		`<h3>Breakfast</h3><ul><li>2 eggs</li><li>1 cup oatmeal</li></ul>`)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.PlansInserted != 1 {
		t.Fatalf("PlansInserted = %d, want 1", res.PlansInserted)
	}
	for _, entries := range store.entries {
		for _, e := range entries {
			if e.Type != plan.EntryMeal {
				t.Errorf("entry %q type = %q, want meal", e.Name, e.Type)
			}
		}
	}
}

// TestIngestEmpty verifies blank documents store nothing but still succeed.
func TestIngestEmpty(t *testing.T) {
	store := &fakeStore{}
	p := testProvider(store, plan.DefaultOptions())

	res, err := p.Ingest(context.Background(), models.KindWorkout, 1, "api", "   ")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.PlansInserted != 0 || res.Message == "" {
		t.Errorf("result = %+v", res)
	}
	if len(store.plans) != 0 {
		t.Errorf("stored %d plans, want 0", len(store.plans))
	}
}

// TestIngestStoreError verifies failures are returned and logged as errors.
func TestIngestStoreError(t *testing.T) {
	store := &fakeStore{replaceErr: errors.New("connection reset")}
	p := testProvider(store, plan.DefaultOptions())

	if _, err := p.Ingest(context.Background(), models.KindWorkout, 1, "api", twoDayWorkout); err == nil {
		t.Fatal("expected error")
	}
	if len(store.updates) != 1 || store.updates[0].Status != "error" || store.updates[0].ErrorMessage == nil {
		t.Fatalf("updates = %+v", store.updates)
	}
}

// TestIngestTooLarge verifies oversized uploads are rejected before parsing.
func TestIngestTooLarge(t *testing.T) {
	store := &fakeStore{}
	opts := plan.DefaultOptions()
	opts.MaxInputBytes = 16
	p := testProvider(store, opts)

	_, err := p.Ingest(context.Background(), models.KindWorkout, 1, "api", twoDayWorkout)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	if len(store.logs) != 0 {
		t.Errorf("import log written for rejected upload")
	}
}
