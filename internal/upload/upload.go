package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	DaysSent    int
	EntriesSent int64
}

// Uploader walks a directory of HTML plans and POSTs each new or changed
// file to the coachplan server.
type Uploader struct {
	client   *Client
	state    *StateDB
	parser   *plan.Parser
	root     string
	clientID int
	kind     models.PlanKind
	dryRun   bool
	log      *slog.Logger
	stats    Stats
}

// New creates a new Uploader. An empty kind is inferred per file from its
// path (see KindForPath). In dry-run mode files are parsed locally with
// parser and nothing is sent.
func New(client *Client, state *StateDB, parser *plan.Parser, root string, clientID int, kind models.PlanKind, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client:   client,
		state:    state,
		parser:   parser,
		root:     root,
		clientID: clientID,
		kind:     kind,
		dryRun:   dryRun,
		log:      log,
	}
}

// Run uploads every plan file under the root once. Stats accumulate across
// runs of the same Uploader.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := PlanFiles(u.root)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	relPath, _ := filepath.Rel(u.root, path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	kind := u.kind
	if kind == "" {
		kind = KindForPath(relPath)
	}
	key := fileKey{relPath: relPath, clientID: u.clientID, kind: kind, size: info.Size(), hash: hash}

	uploaded, err := u.state.IsUploaded(key)
	if err != nil {
		return err
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	html, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	if u.dryRun {
		days := kind.Parse(u.parser, string(html))
		entries := 0
		for _, d := range days {
			entries += len(d.Entries)
		}
		u.log.Info("dry-run: would upload", "file", relPath, "kind", kind, "days", len(days), "entries", entries)
		u.stats.DaysSent += len(days)
		u.stats.EntriesSent += int64(entries)
		return nil
	}

	result, err := u.client.UploadPlan(ctx, u.clientID, kind, html)
	if err != nil {
		return err
	}
	if err := u.state.MarkUploaded(key, result.DaysReceived); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}

	u.stats.FilesUploaded++
	u.stats.DaysSent += result.PlansInserted
	u.stats.EntriesSent += result.EntriesInserted
	u.log.Info("uploaded plan",
		"file", relPath,
		"kind", kind,
		"days", result.PlansInserted,
		"entries", result.EntriesInserted,
	)
	return nil
}

// PlanFiles lists the .html and .htm files under root in lexical order,
// skipping hidden directories.
func PlanFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if IsPlanFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// IsPlanFile reports whether path has an HTML extension.
func IsPlanFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// KindForPath guesses the plan kind from a file's path: any path segment
// naming nutrition, meals or diet makes it a nutrition plan.
func KindForPath(relPath string) models.PlanKind {
	lower := strings.ToLower(filepath.ToSlash(relPath))
	for _, word := range []string{"nutrition", "meal", "diet"} {
		if strings.Contains(lower, word) {
			return models.KindNutrition
		}
	}
	return models.KindWorkout
}
