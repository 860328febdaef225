// Package importer loads a directory of plan files straight into the
// database, bypassing the HTTP API.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/coachplan/internal/ingest"
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/upload"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	DaysImported    int
	EntriesImported int64
	EmptyFiles      []string
}

// Importer parses plan files and stores them through an ingest provider.
type Importer struct {
	provider *ingest.Provider
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer.
func New(provider *ingest.Provider, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, log: log, dryRun: dryRun}
}

// Import processes all plan files under dir for one client. An empty kind
// is inferred per file from its path.
func (imp *Importer) Import(ctx context.Context, dir string, clientID int, kind models.PlanKind) (*Stats, error) {
	files, err := upload.PlanFiles(dir)
	if err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		rel, _ := filepath.Rel(dir, f)
		k := kind
		if k == "" {
			k = upload.KindForPath(rel)
		}
		if err := imp.importFile(ctx, f, rel, clientID, k); err != nil {
			imp.log.Warn("import failed", "file", rel, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		imp.stats.FilesProcessed++
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path, rel string, clientID int, kind models.PlanKind) error {
	html, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	if imp.dryRun {
		days := kind.Parse(imp.provider.Parser(), string(html))
		var entries int
		for _, d := range days {
			entries += len(d.Entries)
		}
		if entries == 0 {
			imp.stats.EmptyFiles = append(imp.stats.EmptyFiles, rel)
		}
		imp.stats.DaysImported += len(days)
		imp.stats.EntriesImported += int64(entries)
		imp.log.Info("dry-run: parsed", "file", rel, "kind", kind, "days", len(days), "entries", entries)
		return nil
	}

	result, err := imp.provider.Ingest(ctx, kind, clientID, "import", string(html))
	if err != nil {
		return err
	}
	if result.EntriesInserted == 0 {
		imp.stats.EmptyFiles = append(imp.stats.EmptyFiles, rel)
	}
	imp.stats.DaysImported += result.PlansInserted
	imp.stats.EntriesImported += result.EntriesInserted
	return nil
}
