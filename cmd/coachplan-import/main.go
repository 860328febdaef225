package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/coachplan/internal/config"
	"github.com/claude/coachplan/internal/importer"
	"github.com/claude/coachplan/internal/ingest"
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("path", "", "directory of .html plan files (required)")
	login := flag.String("client", "", "client login to import for (required)")
	kindName := flag.String("kind", "", "plan kind: workout or nutrition (default: inferred from each path)")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" || *login == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachplan-import -config config.yaml -path /path/to/plans -client LOGIN [-kind workout|nutrition] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("plan path does not exist or is not a directory", "path", *dir)
		os.Exit(1)
	}

	var kind models.PlanKind
	if *kindName != "" {
		if kind, err = models.ParsePlanKind(*kindName); err != nil {
			log.Error("invalid kind", "error", err)
			os.Exit(1)
		}
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	clientID, err := db.GetOrCreateClient(ctx, *login, "")
	if err != nil {
		log.Error("failed to resolve client", "error", err)
		os.Exit(1)
	}

	// Run import
	provider := ingest.NewProvider(db, plan.New(cfg.Parser.Options()), log)
	imp := importer.New(provider, log, *dryRun)
	stats, err := imp.Import(ctx, *dir, clientID, kind)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"days_imported", stats.DaysImported,
		"entries_imported", stats.EntriesImported,
	)
	if len(stats.EmptyFiles) > 0 {
		log.Info("files without any recognized entries", "files", stats.EmptyFiles)
	}
}
