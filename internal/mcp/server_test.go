package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	clientID int
	kind     models.PlanKind
	bucket   string
	plan     *models.PlanDetail
}

func (f *fakeSource) ListPlans(_ context.Context, clientID int, kind models.PlanKind, _, _ *time.Time) ([]models.PlanRow, error) {
	f.clientID, f.kind = clientID, kind
	return []models.PlanRow{}, nil
}

func (f *fakeSource) GetPlan(_ context.Context, id uuid.UUID) (*models.PlanDetail, error) {
	if f.plan == nil || f.plan.ID != id {
		return nil, storage.ErrNotFound
	}
	return f.plan, nil
}

func (f *fakeSource) QueryActivityLogs(_ context.Context, clientID int, _, _ time.Time) ([]models.ActivityLogRow, error) {
	f.clientID = clientID
	return []models.ActivityLogRow{}, nil
}

func (f *fakeSource) GetDataStats(_ context.Context, clientID int) (*storage.DataStats, error) {
	f.clientID = clientID
	return &storage.DataStats{TotalPlans: 3}, nil
}

func (f *fakeSource) GetAdherence(_ context.Context, clientID int, _, _ time.Time, bucket string) ([]storage.AdherencePeriod, error) {
	f.clientID, f.bucket = clientID, bucket
	return []storage.AdherencePeriod{}, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, parser: plan.New(plan.DefaultOptions()), log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestUserIDFromContextDefault verifies the default client ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the client ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// TestDefaultTimeRange verifies time range defaults and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 {
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 31 {
		t.Errorf("range = %v..%v, want 2024-01-01..2024-01-31", start, end)
	}

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = defaultTimeRange("not-a-date", "", 7); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestParseWorkoutPlanTool verifies the tool returns the parser's exercises.
func TestParseWorkoutPlanTool(t *testing.T) {
	h := newHandlers(&fakeSource{})
	src := `<h3>Main</h3><ul><li>Squats 4x8 @ 100 kg</li></ul>`

	res, err := h.parseWorkoutPlan(context.Background(), callRequest(map[string]any{"html": src}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var got plan.WorkoutResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Exercises) == 0 {
		t.Fatal("no exercises")
	}
	found := false
	for _, e := range got.Exercises {
		if e.Name == "Squats" && e.Sets == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("Squats 4x8 missing from %+v", got.Exercises)
	}
}

// TestParseNutritionPlanToolDays verifies days=true returns day plans.
func TestParseNutritionPlanToolDays(t *testing.T) {
	h := newHandlers(&fakeSource{})
	src := `<h2>Monday</h2><p><b>Breakfast</b></p><ul><li>2 eggs, scrambled</li></ul>`

	res, err := h.parseNutritionPlan(context.Background(), callRequest(map[string]any{"html": src, "days": true}))
	if err != nil {
		t.Fatal(err)
	}
	var got []plan.DayPlan
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no day plans")
	}
}

// TestParseToolRequiresHTML verifies a missing html argument is a tool error.
func TestParseToolRequiresHTML(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.parseWorkoutPlan(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestGetPlansScoping verifies client_id overrides the caller and kind is normalized.
func TestGetPlansScoping(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	ctx := WithUserID(context.Background(), 7)

	if _, err := h.getPlans(ctx, callRequest(map[string]any{"kind": "nutrition"})); err != nil {
		t.Fatal(err)
	}
	if ds.clientID != 7 || ds.kind != models.KindNutrition {
		t.Errorf("called with client %d kind %q, want 7 nutrition", ds.clientID, ds.kind)
	}

	if _, err := h.getPlans(ctx, callRequest(map[string]any{"client_id": float64(3)})); err != nil {
		t.Fatal(err)
	}
	if ds.clientID != 3 {
		t.Errorf("client = %d, want 3", ds.clientID)
	}

	res, err := h.getPlans(ctx, callRequest(map[string]any{"kind": "sleep"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for unknown kind")
	}
}

// TestGetPlanTool verifies invalid and unknown IDs are tool errors.
func TestGetPlanTool(t *testing.T) {
	id := uuid.New()
	ds := &fakeSource{plan: &models.PlanDetail{PlanRow: models.PlanRow{ID: id, DayID: "day-1"}}}
	h := newHandlers(ds)

	res, err := h.getPlan(context.Background(), callRequest(map[string]any{"id": id.String()}))
	if err != nil || res.IsError {
		t.Fatalf("getPlan: %v %+v", err, res)
	}
	res, _ = h.getPlan(context.Background(), callRequest(map[string]any{"id": "nope"}))
	if !res.IsError {
		t.Error("expected error for invalid id")
	}
	res, _ = h.getPlan(context.Background(), callRequest(map[string]any{"id": uuid.NewString()}))
	if !res.IsError {
		t.Error("expected error for unknown id")
	}
}

// TestGetAdherenceDefaults verifies the week bucket default.
func TestGetAdherenceDefaults(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	if _, err := h.getAdherence(context.Background(), callRequest(map[string]any{})); err != nil {
		t.Fatal(err)
	}
	if ds.bucket != "week" || ds.clientID != 1 {
		t.Errorf("bucket %q client %d, want week/1", ds.bucket, ds.clientID)
	}
}

// TestSectionDefaultsResource verifies all canonical sections are listed.
func TestSectionDefaultsResource(t *testing.T) {
	h := newHandlers(&fakeSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = "coachplan://section_defaults"

	contents, err := h.sectionDefaults(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var got map[string][]plan.Entry
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(plan.CanonicalSections()) {
		t.Errorf("sections = %d, want %d", len(got), len(plan.CanonicalSections()))
	}
}
