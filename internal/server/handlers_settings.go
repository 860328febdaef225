package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	clientID, ok := s.mustClientID(w, r)
	if !ok {
		return
	}
	stats, err := s.db.GetDataStats(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleImportLogs lists recent uploads. ?client_id= narrows to one client,
// ?mine=true to the caller. Scoped tailnet peers only see their own.
func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	clientID := 0
	if c := r.URL.Query().Get("client_id"); c != "" {
		parsed, err := strconv.Atoi(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client_id"})
			return
		}
		clientID = parsed
	} else if r.URL.Query().Get("mine") == "true" || !s.canAccess(r, 0) {
		clientID = userIDFromContext(r)
	}
	if !s.canAccess(r, clientID) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "client " + strconv.Itoa(clientID) + " belongs to someone else"})
		return
	}

	logs, err := s.db.QueryImportLogs(r.Context(), clientID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
