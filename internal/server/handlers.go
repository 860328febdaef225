package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/coachplan/internal/ingest"
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParsePlanKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	src, ok := s.readPlanBody(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("days") == "true" {
		writeJSON(w, http.StatusOK, kind.Parse(s.parser, src))
		return
	}
	if kind == models.KindNutrition {
		writeJSON(w, http.StatusOK, s.parser.ExtractMeals(src))
		return
	}
	writeJSON(w, http.StatusOK, s.parser.ExtractEntries(src))
}

func (s *Server) handleUploadPlan(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.mustClientID(w, r)
	if !ok {
		return
	}
	kind, err := models.ParsePlanKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	src, ok := s.readPlanBody(w, r)
	if !ok {
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}
	result, err := s.ingest.Ingest(r.Context(), kind, clientID, source, src)
	if err != nil {
		if errors.Is(err, ingest.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error("ingest error", "client_id", clientID, "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Login == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login is required"})
		return
	}
	id, err := s.db.GetOrCreateClient(r.Context(), req.Login, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "login": req.Login})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.db.ListClients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	visible := []models.ClientRow{}
	for _, c := range clients {
		if s.canAccess(r, c.ID) {
			visible = append(visible, c)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.mustClientID(w, r)
	if !ok {
		return
	}
	var kind models.PlanKind
	if k := r.URL.Query().Get("kind"); k != "" {
		var err error
		if kind, err = models.ParsePlanKind(k); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	start, err := parseOptionalTime(r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start: " + err.Error()})
		return
	}
	end, err := parseOptionalTime(r.URL.Query().Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end: " + err.Error()})
		return
	}

	plans, err := s.db.ListPlans(r.Context(), clientID, kind, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []models.PlanRow{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan ID"})
		return
	}
	detail, err := s.db.GetPlan(r.Context(), planID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.canAccess(r, detail.ClientID) {
		writePlanNotFound(w, planID)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSectionDefaults(w http.ResponseWriter, r *http.Request) {
	table := plan.SectionDefaults()
	out := make(map[string][]plan.Entry, len(table))
	for _, k := range plan.CanonicalSections() {
		out[string(k)] = table[k]
	}
	writeJSON(w, http.StatusOK, out)
}

// readPlanBody returns the HTML of an upload: the raw body, or the "html"
// field when the request is JSON.
func (s *Server) readPlanBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	limit := int64(s.parser.Options().MaxInputBytes) * 2
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return "", false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return "", false
	}

	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return "", false
		}
		return req.HTML, true
	}
	return string(body), true
}

// mustClientID reads {clientID} and rejects clients the caller may not access.
func (s *Server) mustClientID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "clientID"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return 0, false
	}
	if !s.canAccess(r, id) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "client " + strconv.Itoa(id) + " belongs to someone else"})
		return 0, false
	}
	return id, true
}

func writePlanNotFound(w http.ResponseWriter, planID uuid.UUID) {
	writeError(w, fmt.Errorf("plan %s: %w", planID, storage.ErrNotFound))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports a storage error, as 404 when nothing matched.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("want RFC3339 or YYYY-MM-DD, got %q", s)
		}
	}
	return t, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseTimeRange reads start/end query parameters. Without a start the
// range covers the last defaultDays days.
func parseTimeRange(r *http.Request, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr == "" {
		end = time.Now()
	} else if end, err = parseTime(endStr); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startStr == "" {
		return end.AddDate(0, 0, -defaultDays), end, nil
	}
	if start, err = parseTime(startStr); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
