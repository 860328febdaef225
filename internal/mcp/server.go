package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/coachplan/internal/plan"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the client ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given client ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, parser *plan.Parser, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("coachplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("coachplan turns coaches' free-form HTML workout and nutrition plans into structured entries. Parse pasted plans, read stored plan days, and check how closely a client follows them. Queries default to the authenticated client."),
	)

	h := &handlers{ds: ds, parser: parser, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolParseWorkoutPlan, Handler: h.parseWorkoutPlan},
		server.ServerTool{Tool: toolParseNutritionPlan, Handler: h.parseNutritionPlan},
		server.ServerTool{Tool: toolGetPlans, Handler: h.getPlans},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolGetActivityLogs, Handler: h.getActivityLogs},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolGetAdherence, Handler: h.getAdherence},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resSectionDefaults, Handler: h.sectionDefaults},
		server.ServerResource{Resource: resUpcomingPlans, Handler: h.upcomingPlans},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	parser *plan.Parser
	log    *slog.Logger
}

// --- Resource definitions ---

var resSectionDefaults = mcp.NewResource(
	"coachplan://section_defaults",
	"Section Defaults",
	mcp.WithResourceDescription("Entries inserted for a workout section the coach left out (Warm-up, Main, Aux, Cool-down)"),
	mcp.WithMIMEType("application/json"),
)

var resUpcomingPlans = mcp.NewResource(
	"coachplan://upcoming_plans",
	"Upcoming Plans",
	mcp.WithResourceDescription("Dated plan days for the next 7 days"),
	mcp.WithMIMEType("application/json"),
)
