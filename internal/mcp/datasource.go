package mcp

import (
	"context"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPlans(ctx context.Context, clientID int, kind models.PlanKind, start, end *time.Time) ([]models.PlanRow, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*models.PlanDetail, error)
	QueryActivityLogs(ctx context.Context, clientID int, start, end time.Time) ([]models.ActivityLogRow, error)
	GetDataStats(ctx context.Context, clientID int) (*storage.DataStats, error)
	GetAdherence(ctx context.Context, clientID int, start, end time.Time, bucket string) ([]storage.AdherencePeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
