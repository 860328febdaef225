package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "coachplan server URL (e.g. https://coachplan.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("COACHPLAN_API_KEY"), "API key for the ingest endpoints")
	dir := flag.String("path", "", "directory of .html/.htm plan files")
	clientID := flag.Int("client-id", 0, "client to upload plans for")
	kindName := flag.String("kind", "", "plan kind: workout or nutrition (default: inferred from each path)")
	dryRun := flag.Bool("dry-run", false, "parse locally but don't send to server")
	watch := flag.Bool("watch", false, "keep running and upload files as they change")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("coachplan-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" || *clientID <= 0 {
		fmt.Fprintf(os.Stderr, "Usage: coachplan-upload -server <URL> -path <dir> -client-id N [-kind workout|nutrition] [-dry-run] [-watch]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("plan directory not found", "path", *dir)
		os.Exit(1)
	}

	var kind models.PlanKind
	if *kindName != "" {
		if kind, err = models.ParsePlanKind(*kindName); err != nil {
			log.Error("invalid kind", "error", err)
			os.Exit(1)
		}
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".coachplan-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: files will be parsed locally but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, plan.New(plan.DefaultOptions()), *dir, *clientID, kind, *dryRun, log)
	if *watch {
		if err := uploader.Watch(ctx); err != nil {
			log.Error("watch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	stats, err := uploader.Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Plan days:        %d\n", stats.DaysSent)
	fmt.Printf("  Entries:          %d\n", stats.EntriesSent)
	fmt.Println()
}
