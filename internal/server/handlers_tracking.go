package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleSetCompletion(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan ID"})
		return
	}
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry position"})
		return
	}
	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `body must be {"completed": true|false}`})
		return
	}
	if !s.checkPlanAccess(w, r, planID) {
		return
	}

	if err := s.db.SetCompletion(r.Context(), planID, position, *req.Completed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan_id": planID, "position": position, "completed": *req.Completed})
}

// activityLogRequest is what the client reports after doing a planned entry.
type activityLogRequest struct {
	Position       *int       `json:"position"`
	EntryName      string     `json:"entry_name"`
	LoggedAt       *time.Time `json:"logged_at"`
	ActualSets     *int       `json:"actual_sets"`
	ActualReps     string     `json:"actual_reps"`
	ActualWeight   string     `json:"actual_weight"`
	ActualDuration string     `json:"actual_duration"`
	ActualDistance string     `json:"actual_distance"`
	Notes          string     `json:"notes"`
}

// handleCreateLog stores a planned-vs-actual log. With a position the planned
// fields are copied from the stored entry.
func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan ID"})
		return
	}
	var req activityLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
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

	var row models.ActivityLogRow
	if req.Position != nil {
		entry := detail.Entry(*req.Position)
		if entry == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no entry at position " + strconv.Itoa(*req.Position)})
			return
		}
		row = models.PlannedLog(detail.ClientID, *entry)
	} else {
		if req.EntryName == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "position or entry_name is required"})
			return
		}
		id := detail.ID
		row = models.ActivityLogRow{ClientID: detail.ClientID, PlanID: &id, EntryName: req.EntryName}
	}
	if req.LoggedAt != nil {
		row.LoggedAt = *req.LoggedAt
	}
	row.ActualSets = req.ActualSets
	row.ActualReps = req.ActualReps
	row.ActualWeight = req.ActualWeight
	row.ActualDuration = req.ActualDuration
	row.ActualDistance = req.ActualDistance
	row.Notes = req.Notes

	id, err := s.db.InsertActivityLog(r.Context(), row)
	if err != nil {
		writeError(w, err)
		return
	}
	row.ID = id
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.mustClientID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, 7)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	logs, err := s.db.QueryActivityLogs(r.Context(), clientID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.ActivityLogRow{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleAdherence(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.mustClientID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, 28)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "", "day", "week", "month":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bucket must be day, week or month"})
		return
	}

	periods, err := s.db.GetAdherence(r.Context(), clientID, start, end, bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}
