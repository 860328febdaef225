// Package ingest stores parsed coaching plans and keeps an import log of
// every upload.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
)

// ErrTooLarge is returned for uploads above the parser's input limit.
var ErrTooLarge = errors.New("plan too large")

// Result summarizes what an ingest operation did.
type Result struct {
	DaysReceived    int      `json:"days_received"`
	PlansInserted   int      `json:"plans_inserted"`
	EntriesInserted int64    `json:"entries_inserted"`
	DayIDs          []string `json:"day_ids"`
	Message         string   `json:"message,omitempty"`
}

// Store is the subset of storage the provider writes to.
type Store interface {
	ReplacePlan(ctx context.Context, row models.PlanRow, entries []models.PlanEntryRow) (int64, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Provider parses HTML plans and stores one plan row per day.
type Provider struct {
	store  Store
	parser *plan.Parser
	log    *slog.Logger
}

// NewProvider creates a new plan ingest provider.
func NewProvider(store Store, parser *plan.Parser, log *slog.Logger) *Provider {
	return &Provider{store: store, parser: parser, log: log}
}

// Parser returns the parser used for uploads.
func (p *Provider) Parser() *plan.Parser { return p.parser }

// Ingest parses an HTML plan and replaces the client's stored days with it.
// Source names the upload channel ("api", "upload", "mcp") for the import log.
func (p *Provider) Ingest(ctx context.Context, kind models.PlanKind, clientID int, source, html string) (*Result, error) {
	started := time.Now()
	if limit := p.parser.Options().MaxInputBytes; limit > 0 && len(html) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(html), limit)
	}

	meta, _ := json.Marshal(map[string]any{"bytes": len(html)})
	rawMeta := json.RawMessage(meta)
	logID, logErr := p.store.InsertImportLog(ctx, storage.ImportLog{
		ClientID: clientID,
		Source:   source,
		Kind:     string(kind),
		Status:   "running",
		Metadata: &rawMeta,
	})
	if logErr != nil {
		p.log.Warn("failed to create import log", "error", logErr)
	}

	result, err := p.storeDays(ctx, kind, clientID, html)
	if logErr == nil {
		p.finishLog(ctx, logID, started, len(html), result, err)
	}
	if err != nil {
		return nil, err
	}

	p.log.Info("plan ingested",
		"client_id", clientID,
		"kind", kind,
		"source", source,
		"days", result.DaysReceived,
		"entries", result.EntriesInserted,
		"duration", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (p *Provider) storeDays(ctx context.Context, kind models.PlanKind, clientID int, html string) (*Result, error) {
	days := kind.Parse(p.parser, html)
	result := &Result{DaysReceived: len(days), DayIDs: []string{}}
	if len(days) == 0 {
		result.Message = "no plan content found"
		return result, nil
	}

	// Each day is replaced as a whole so re-uploads always reflect the latest parser output.
	for _, day := range days {
		row := models.NewPlanRow(clientID, kind, day, "plan")
		n, err := p.store.ReplacePlan(ctx, row, models.EntryRows(row.ID, day.Entries))
		if err != nil {
			return result, fmt.Errorf("storing %s plan %s: %w", kind, row.DayID, err)
		}
		result.PlansInserted++
		result.EntriesInserted += n
		result.DayIDs = append(result.DayIDs, row.DayID)
	}
	return result, nil
}

func (p *Provider) finishLog(ctx context.Context, id int64, started time.Time, size int, result *Result, err error) {
	durationMs := int(time.Since(started).Milliseconds())
	update := storage.ImportLog{Status: "success", DurationMs: &durationMs}
	if result != nil {
		update.DaysReceived = result.DaysReceived
		update.PlansInserted = result.PlansInserted
		update.EntriesInserted = result.EntriesInserted
		meta, _ := json.Marshal(map[string]any{"bytes": size, "day_ids": result.DayIDs})
		rawMeta := json.RawMessage(meta)
		update.Metadata = &rawMeta
	}
	if err != nil {
		update.Status = "error"
		msg := err.Error()
		update.ErrorMessage = &msg
	}
	if uerr := p.store.UpdateImportLog(ctx, id, update); uerr != nil {
		p.log.Warn("failed to update import log", "id", id, "error", uerr)
	}
}
