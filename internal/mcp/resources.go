package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/coachplan/internal/plan"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) sectionDefaults(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	table := plan.SectionDefaults()
	defaults := make(map[string][]plan.Entry, len(table))
	for _, k := range plan.CanonicalSections() {
		defaults[string(k)] = table[k]
	}
	return jsonResource(req, defaults)
}

func (h *handlers) upcomingPlans(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	plans, err := h.ds.ListPlans(ctx, uid, "", &start, &end)
	if err != nil {
		return nil, err
	}
	return jsonResource(req, plans)
}

func jsonResource(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
