// Package main is the entry point for the otayori server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. Everything else lives in importable packages so it can be
// tested without a process.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/otayori/internal/config"
	"github.com/sakif/otayori/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.RequireStaffToken {
		logger.Info("staff API requires the current access token")
	} else {
		logger.Warn("staff API is open; set REQUIRE_STAFF_TOKEN=true to gate it")
	}

	// Opening the store is the only step that can block on the network.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
