package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/coachplan/internal/config"
	"github.com/claude/coachplan/internal/mcp"
	"github.com/claude/coachplan/internal/plan"
	"github.com/claude/coachplan/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	remote := flag.String("server", "", "coachplan server URL; queries go over HTTP instead of the database")
	apiKey := flag.String("api-key", os.Getenv("COACHPLAN_API_KEY"), "API key for remote mode, lifts the tailnet per-client scoping")
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	clientID := flag.Int("client-id", 1, "client the tools default to")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	parser := plan.New(plan.DefaultOptions())

	if *remote != "" {
		ds = mcp.NewHTTPClient(*remote).WithAPIKey(*apiKey)
		log.Info("remote mode", "server", *remote)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		parser = plan.New(cfg.Parser.Options())
	}

	s := mcp.New(ds, parser, Version, log)
	uid := *clientID
	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, uid)
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}
