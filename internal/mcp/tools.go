package mcp

import (
	"context"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last days days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// clientID reads the optional client_id argument, falling back to the caller.
func clientID(ctx context.Context, req mcp.CallToolRequest) int {
	if id := req.GetInt("client_id", 0); id > 0 {
		return id
	}
	return UserIDFromContext(ctx)
}

// --- Tool definitions ---

var toolParseWorkoutPlan = mcp.NewTool("parse_workout_plan",
	mcp.WithDescription("Extract exercises from a coach's HTML workout plan. Each entry has a name, type (strength/cardio/other), sets, reps, weight, duration, distance, pace, zone and a section (Warm-up, Main, Aux, Cool-down). Missing sections are filled with defaults."),
	mcp.WithString("html", mcp.Required(), mcp.Description("The plan HTML (or plain text)")),
	mcp.WithBoolean("days", mcp.Description("Split the plan at day headings and return one entry list per day. Defaults to false.")),
)

var toolParseNutritionPlan = mcp.NewTool("parse_nutrition_plan",
	mcp.WithDescription("Extract meals from a coach's HTML nutrition plan. Each entry has a name, quantity, calories and macros (protein/carbs/fat), labeled with its meal (Breakfast, Lunch, Meal 2, ...)."),
	mcp.WithString("html", mcp.Required(), mcp.Description("The plan HTML (or plain text)")),
	mcp.WithBoolean("days", mcp.Description("Split the plan into days (or meal groups when it has no day headings). Defaults to false.")),
)

var toolGetPlans = mcp.NewTool("get_plans",
	mcp.WithDescription("List a client's stored plan days with their titles and dates. Use get_plan for the entries of one day."),
	mcp.WithNumber("client_id", mcp.Description("Client ID. Defaults to the authenticated client.")),
	mcp.WithString("kind", mcp.Description("Plan kind filter."), mcp.Enum("workout", "nutrition")),
	mcp.WithString("start", mcp.Description("Only days dated on or after this date (YYYY-MM-DD).")),
	mcp.WithString("end", mcp.Description("Only days dated before this date (YYYY-MM-DD).")),
)

var toolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription("Retrieve one stored plan day with its entries in order and each entry's completion state."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID (UUID) from get_plans")),
)

var toolGetActivityLogs = mcp.NewTool("get_activity_logs",
	mcp.WithDescription("Planned-vs-actual logs the client recorded: planned sets/reps/weight/duration next to what was actually done, plus notes."),
	mcp.WithNumber("client_id", mcp.Description("Client ID. Defaults to the authenticated client.")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Counts of stored plans, entries, completions and logs, with entries per section."),
	mcp.WithNumber("client_id", mcp.Description("Client ID. Defaults to the authenticated client.")),
)

var toolGetAdherence = mcp.NewTool("get_adherence",
	mcp.WithDescription("Planned vs completed entries per period for dated plan days, with a completion rate."),
	mcp.WithNumber("client_id", mcp.Description("Client ID. Defaults to the authenticated client.")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 28 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("day", "week", "month")),
)

// --- Tool handlers ---

func (h *handlers) parseWorkoutPlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.parse(req, models.KindWorkout)
}

func (h *handlers) parseNutritionPlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.parse(req, models.KindNutrition)
}

func (h *handlers) parse(req mcp.CallToolRequest, kind models.PlanKind) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("html")
	if err != nil {
		return mcp.NewToolResultError("html parameter is required"), nil
	}

	var out any
	switch {
	case req.GetBool("days", false):
		out = kind.Parse(h.parser, src)
	case kind == models.KindNutrition:
		out = h.parser.ExtractMeals(src)
	default:
		out = h.parser.ExtractEntries(src)
	}
	return jsonResult(out)
}

func (h *handlers) getPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var kind models.PlanKind
	if k := req.GetString("kind", ""); k != "" {
		var err error
		if kind, err = models.ParsePlanKind(k); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	var start, end *time.Time
	if s := req.GetString("start", ""); s != "" {
		t, err := parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		start = &t
	}
	if e := req.GetString("end", ""); e != "" {
		t, err := parseFlexTime(e)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		end = &t
	}

	plans, err := h.ds.ListPlans(ctx, clientID(ctx, req), kind, start, end)
	if err != nil {
		h.log.Error("mcp get_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans)
}

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid plan ID"), nil
	}

	detail, err := h.ds.GetPlan(ctx, id)
	if err != nil {
		h.log.Error("mcp get_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(detail)
}

func (h *handlers) getActivityLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	logs, err := h.ds.QueryActivityLogs(ctx, clientID(ctx, req), start, end)
	if err != nil {
		h.log.Error("mcp get_activity_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(logs)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx, clientID(ctx, req))
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getAdherence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 28)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	periods, err := h.ds.GetAdherence(ctx, clientID(ctx, req), start, end, req.GetString("bucket", "week"))
	if err != nil {
		h.log.Error("mcp get_adherence", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
