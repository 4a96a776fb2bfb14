package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/restaurant-classifier/internal/adapters/cli"
	"github.com/kirillkom/restaurant-classifier/internal/bootstrap"
	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cfg, func(cfg config.Config) (ports.SessionPipeline, error) {
		app, err := bootstrap.New(cfg, nil)
		if err != nil {
			return nil, err
		}
		return app.Pipeline, nil
	})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
