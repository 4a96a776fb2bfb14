package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/restaurant-classifier/internal/adapters/mcp"
	"github.com/kirillkom/restaurant-classifier/internal/bootstrap"
	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := bootstrap.New(cfg, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	app.LogStartup(logger)

	tools := mcpadapter.NewTools(app.Resolver, app.Fetcher, app.Classifier, mcpadapter.Defaults{
		RadiusMeters:    cfg.SearchRadiusMeters,
		MaxPages:        cfg.MaxExtraPages,
		ClassifyTimeout: cfg.ClassifyTimeout(),
	})
	if err := server.ServeStdio(mcpadapter.NewServer("restaurant-classifier", version, tools)); err != nil {
		logger.Error("mcp_server_stopped", "error", err)
		os.Exit(1)
	}
}
