package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/coachplan/internal/ingest"
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

const testAPIKey = "secret"

// memStore keeps plans in memory and satisfies both Store and ingest.Store.
type memStore struct {
	clients     map[string]int
	plans       map[uuid.UUID]*models.PlanDetail
	logs        []models.ActivityLogRow
	importLogs  []storage.ImportLog
	adherenceOf string
}

func newMemStore() *memStore {
	return &memStore{clients: map[string]int{}, plans: map[uuid.UUID]*models.PlanDetail{}}
}

func (m *memStore) GetOrCreateClient(_ context.Context, login, _ string) (int, error) {
	if id, ok := m.clients[login]; ok {
		return id, nil
	}
	m.clients[login] = len(m.clients) + 1
	return m.clients[login], nil
}

func (m *memStore) ListClients(context.Context) ([]models.ClientRow, error) {
	var out []models.ClientRow
	for login, id := range m.clients {
		out = append(out, models.ClientRow{ID: id, Login: login})
	}
	return out, nil
}

func (m *memStore) ReplacePlan(_ context.Context, row models.PlanRow, entries []models.PlanEntryRow) (int64, error) {
	for id, p := range m.plans {
		if p.ClientID == row.ClientID && p.Kind == row.Kind && p.DayID == row.DayID {
			delete(m.plans, id)
		}
	}
	m.plans[row.ID] = &models.PlanDetail{PlanRow: row, Entries: entries}
	return int64(len(entries)), nil
}

func (m *memStore) ListPlans(_ context.Context, clientID int, kind models.PlanKind, _, _ *time.Time) ([]models.PlanRow, error) {
	var out []models.PlanRow
	for _, p := range m.plans {
		if p.ClientID == clientID && (kind == "" || p.Kind == kind) {
			out = append(out, p.PlanRow)
		}
	}
	return out, nil
}

func (m *memStore) GetPlan(_ context.Context, id uuid.UUID) (*models.PlanDetail, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (m *memStore) SetCompletion(_ context.Context, planID uuid.UUID, position int, completed bool) error {
	p, ok := m.plans[planID]
	if !ok || p.Entry(position) == nil {
		return storage.ErrNotFound
	}
	p.Entry(position).Completed = completed
	return nil
}

func (m *memStore) InsertActivityLog(_ context.Context, row models.ActivityLogRow) (int64, error) {
	m.logs = append(m.logs, row)
	return int64(len(m.logs)), nil
}

func (m *memStore) QueryActivityLogs(_ context.Context, clientID int, _, _ time.Time) ([]models.ActivityLogRow, error) {
	var out []models.ActivityLogRow
	for _, l := range m.logs {
		if l.ClientID == clientID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	m.importLogs = append(m.importLogs, log)
	return int64(len(m.importLogs)), nil
}

func (m *memStore) UpdateImportLog(_ context.Context, id int64, log storage.ImportLog) error {
	m.importLogs[id-1].Status = log.Status
	return nil
}

func (m *memStore) QueryImportLogs(context.Context, int, int) ([]storage.ImportLog, error) {
	return m.importLogs, nil
}

func (m *memStore) GetDataStats(_ context.Context, clientID int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalPlans: int64(len(m.plans))}, nil
}

func (m *memStore) GetAdherence(_ context.Context, _ int, _, _ time.Time, bucket string) ([]storage.AdherencePeriod, error) {
	m.adherenceOf = bucket
	return []storage.AdherencePeriod{}, nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := ingest.NewProvider(store, plan.New(plan.DefaultOptions()), log)
	return New(store, provider, testAPIKey, log), store
}

func do(t *testing.T, s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const sectionedPlan = `<h3>Warm-up</h3><ul><li>Jog for 10 minutes</li></ul>
<h3>Main</h3><ul><li>Squats 4x8 @ 100 kg</li><li>Bench press 3x10</li></ul>`

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/me", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if diff := cmp.Diff(devUser, info); diff != "" {
		t.Errorf("me mismatch (-want +got):\n%s", diff)
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(withUser(req.Context(), UserInfo{ID: 5, Login: "alice@example.com", DisplayName: "Alice"}))
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" || info.ID != 5 {
		t.Errorf("info = %+v", info)
	}
}

// TestParseWorkoutRawHTML verifies a raw HTML body comes back as exercises.
func TestParseWorkoutRawHTML(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/parse/workout", "text/html", sectionedPlan)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got plan.WorkoutResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if diff := cmp.Diff(plan.ExtractEntries(sectionedPlan), got); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
}

// TestParseNutritionJSON verifies the {"html": ...} envelope and the meals shape.
func TestParseNutritionJSON(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"html": "<h3>Breakfast</h3><ul><li>2 eggs, scrambled</li></ul>"}`
	rec := do(t, s, http.MethodPost, "/api/v1/parse/meals", "application/json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got plan.NutritionResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got.Meals) == 0 {
		t.Fatal("no meals parsed")
	}
	for _, m := range got.Meals {
		if m.Type != plan.EntryMeal {
			t.Errorf("meal %q type = %q", m.Name, m.Type)
		}
	}
}

// TestParseDays verifies ?days=true returns one plan per day heading.
func TestParseDays(t *testing.T) {
	s, _ := newTestServer(t)
	src := `<h2>Day 1</h2><ul><li>Squats 3x5</li></ul><h2>Day 2</h2><ul><li>Deadlift 1x5</li></ul>`
	rec := do(t, s, http.MethodPost, "/api/v1/parse/workout?days=true", "", src)

	var got []plan.DayPlan
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "day-1" || got[1].ID != "day-2" {
		t.Errorf("days = %+v", got)
	}
}

// TestParseUnknownKind verifies an unknown plan kind is a 404.
func TestParseUnknownKind(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodPost, "/api/v1/parse/sleep", "", "<p>x</p>"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestWriteEndpointsRequireAPIKey verifies uploads are rejected without a key.
func TestWriteEndpointsRequireAPIKey(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/1/plans/workout", strings.NewReader(sectionedPlan))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestUploadThenTrack walks an upload through listing, completion and logging.
func TestUploadThenTrack(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/clients/3/plans/workout", "text/html", sectionedPlan)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	var res ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if res.PlansInserted != 1 || res.EntriesInserted == 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(store.importLogs) != 1 || store.importLogs[0].Status != "success" {
		t.Errorf("import logs = %+v", store.importLogs)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/clients/3/plans?kind=workout", "", "")
	var plans []models.PlanRow
	if err := json.NewDecoder(rec.Body).Decode(&plans); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plans = %+v", plans)
	}
	id := plans[0].ID.String()

	rec = do(t, s, http.MethodPut, "/api/v1/plans/"+id+"/entries/1/completion", "application/json", `{"completed": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("completion status = %d, body %s", rec.Code, rec.Body)
	}
	if !store.plans[plans[0].ID].Entries[1].Completed {
		t.Error("entry 1 not marked completed")
	}

	rec = do(t, s, http.MethodPost, "/api/v1/plans/"+id+"/logs", "application/json",
		`{"position": 1, "actual_sets": 3, "actual_reps": "8,8,6", "notes": "last set hard"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log status = %d, body %s", rec.Code, rec.Body)
	}
	logged := store.logs[0]
	want := store.plans[plans[0].ID].Entries[1]
	if logged.ClientID != 3 || logged.EntryName != want.Name || logged.PlannedSets != want.Sets {
		t.Errorf("log = %+v, planned entry %+v", logged, want)
	}
	if logged.ActualSets == nil || *logged.ActualSets != 3 || logged.ActualReps != "8,8,6" {
		t.Errorf("actuals = %v/%q", logged.ActualSets, logged.ActualReps)
	}
}

// TestMissingPlan verifies storage not-found errors surface as 404.
func TestMissingPlan(t *testing.T) {
	s, _ := newTestServer(t)
	id := uuid.New().String()
	if rec := do(t, s, http.MethodGet, "/api/v1/plans/"+id, "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/api/v1/plans/"+id+"/entries/0/completion", "", `{"completed": false}`); rec.Code != http.StatusNotFound {
		t.Errorf("completion status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/plans/not-a-uuid", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

// TestCompletionBodyRequired verifies the completed flag must be present.
func TestCompletionBodyRequired(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/v1/plans/"+uuid.NewString()+"/entries/0/completion", "", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAdherenceBucket verifies bucket validation and pass-through.
func TestAdherenceBucket(t *testing.T) {
	s, store := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/api/v1/clients/1/adherence?bucket=year", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/api/v1/clients/1/adherence?bucket=month&start=2025-01-01&end=2025-04-01", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if store.adherenceOf != "month" {
		t.Errorf("bucket = %q, want month", store.adherenceOf)
	}
}

// TestSectionDefaults verifies the gap-fill table is served for all four sections.
func TestSectionDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/sections/defaults", "", "")
	var got map[string][]plan.Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	for _, k := range plan.CanonicalSections() {
		if len(got[string(k)]) == 0 {
			t.Errorf("no defaults for %s", k)
		}
	}
}

// TestParseTimeRangeDefault verifies the default window ends now.
func TestParseTimeRangeDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	start, end, err := parseTimeRange(req, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got := end.Sub(start); got < 6*24*time.Hour || got > 8*24*time.Hour {
		t.Errorf("window = %v, want about 7 days", got)
	}
}

// doPeer sends a request as a tailnet peer without the API key.
func doPeer(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestTailnetPeerScoping verifies a tailnet peer only reaches its own client's
// plans, while the API key still reaches every client.
func TestTailnetPeerScoping(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	store.GetOrCreateClient(ctx, "carol@example.com", "")
	bob, _ := store.GetOrCreateClient(ctx, "bob@example.com", "")

	if rec := do(t, s, http.MethodPost, fmt.Sprintf("/api/v1/clients/%d/plans/workout", bob), "text/html", sectionedPlan); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	var id string
	for planID := range store.plans {
		id = planID.String()
	}

	s.SetTailscale(fakeWhoIs{login: "alice@example.com"})
	alice, _ := store.GetOrCreateClient(ctx, "alice@example.com", "")

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/plans", bob), "", http.StatusForbidden},
		{http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/logs", bob), "", http.StatusForbidden},
		{http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/adherence", bob), "", http.StatusForbidden},
		{http.MethodGet, "/api/v1/plans/" + id, "", http.StatusNotFound},
		{http.MethodPut, "/api/v1/plans/" + id + "/entries/0/completion", `{"completed": true}`, http.StatusNotFound},
		{http.MethodPost, "/api/v1/plans/" + id + "/logs", `{"position": 0}`, http.StatusNotFound},
		{http.MethodGet, fmt.Sprintf("/api/v1/import-logs?client_id=%d", bob), "", http.StatusForbidden},
		{http.MethodGet, fmt.Sprintf("/api/v1/clients/%d/plans", alice), "", http.StatusOK},
	}
	for _, tt := range tests {
		if rec := doPeer(t, s, tt.method, tt.path, tt.body); rec.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
	if len(store.logs) != 0 {
		t.Errorf("foreign log stored: %+v", store.logs)
	}

	rec := doPeer(t, s, http.MethodGet, "/api/v1/clients", "")
	var clients []models.ClientRow
	if err := json.NewDecoder(rec.Body).Decode(&clients); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != alice {
		t.Errorf("clients = %+v, want only alice (%d)", clients, alice)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/plans/"+id, "", ""); rec.Code != http.StatusOK {
		t.Errorf("API key plan status = %d, want 200", rec.Code)
	}
}
