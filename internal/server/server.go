package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/coachplan/internal/ingest"
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the storage surface the HTTP handlers read from. *storage.DB
// satisfies it.
type Store interface {
	GetOrCreateClient(ctx context.Context, login, displayName string) (int, error)
	ListClients(ctx context.Context) ([]models.ClientRow, error)
	ListPlans(ctx context.Context, clientID int, kind models.PlanKind, start, end *time.Time) ([]models.PlanRow, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*models.PlanDetail, error)
	SetCompletion(ctx context.Context, planID uuid.UUID, position int, completed bool) error
	InsertActivityLog(ctx context.Context, row models.ActivityLogRow) (int64, error)
	QueryActivityLogs(ctx context.Context, clientID int, start, end time.Time) ([]models.ActivityLogRow, error)
	QueryImportLogs(ctx context.Context, clientID, limit int) ([]storage.ImportLog, error)
	GetDataStats(ctx context.Context, clientID int) (*storage.DataStats, error)
	GetAdherence(ctx context.Context, clientID int, start, end time.Time, bucket string) ([]storage.AdherencePeriod, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	ingest *ingest.Provider
	parser *plan.Parser
	log    *slog.Logger
	apiKey string
	whois  WhoIsClient
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, provider *ingest.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		ingest: provider,
		parser: provider.Parser(),
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches request identity from the local dev user to the
// Tailscale login of the calling node.
func (s *Server) SetTailscale(whois WhoIsClient) {
	s.whois = whois
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Write endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/parse/{kind}", s.handleParse)
		r.Post("/api/v1/clients", s.handleCreateClient)
		r.Post("/api/v1/clients/{clientID}/plans/{kind}", s.handleUploadPlan)
	})

	// Read and tracking endpoints (no API key; on a tailnet each peer is
	// scoped to its own client, see canAccess)
	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/clients", s.handleListClients)
	s.router.Get("/api/v1/clients/{clientID}/plans", s.handleListPlans)
	s.router.Get("/api/v1/clients/{clientID}/logs", s.handleListLogs)
	s.router.Get("/api/v1/clients/{clientID}/stats", s.handleStats)
	s.router.Get("/api/v1/clients/{clientID}/adherence", s.handleAdherence)
	s.router.Get("/api/v1/plans/{id}", s.handleGetPlan)
	s.router.Put("/api/v1/plans/{id}/entries/{position}/completion", s.handleSetCompletion)
	s.router.Post("/api/v1/plans/{id}/logs", s.handleCreateLog)
	s.router.Get("/api/v1/import-logs", s.handleImportLogs)
	s.router.Get("/api/v1/sections/defaults", s.handleSectionDefaults)
}

// identity resolves the caller per request so SetTailscale may run after New.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
	})
}

// canAccess reports whether the caller may see and track clientID's plans.
// Without Tailscale every request is the local dev user and sees everything.
// On a tailnet a peer sees its own client only, unless it presents the API key.
func (s *Server) canAccess(r *http.Request, clientID int) bool {
	if s.whois == nil || s.hasAPIKey(r) {
		return true
	}
	return userIDFromContext(r) == clientID
}

func (s *Server) hasAPIKey(r *http.Request) bool {
	return s.apiKey != "" && r.Header.Get("X-API-Key") == s.apiKey
}

// checkPlanAccess answers 404 for plans the caller may not see, so foreign
// plan IDs are indistinguishable from missing ones.
func (s *Server) checkPlanAccess(w http.ResponseWriter, r *http.Request, planID uuid.UUID) bool {
	if s.whois == nil || s.hasAPIKey(r) {
		return true
	}
	detail, err := s.db.GetPlan(r.Context(), planID)
	if err != nil {
		writeError(w, err)
		return false
	}
	if !s.canAccess(r, detail.ClientID) {
		writePlanNotFound(w, planID)
		return false
	}
	return true
}
