package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/restaurant-classifier/internal/adapters/http"
	"github.com/kirillkom/restaurant-classifier/internal/bootstrap"
	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
	"github.com/kirillkom/restaurant-classifier/internal/observability/logging"
	"github.com/kirillkom/restaurant-classifier/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		httpMetrics *metrics.HTTPServerMetrics
		observer    ports.PipelineObserver
		routerOpts  []httpadapter.RouterOption
	)
	if cfg.MetricsEnabled {
		httpMetrics = metrics.NewHTTPServerMetrics("api")
		observer = metrics.NewPipelineMetrics("api", httpMetrics.Registerer())
		routerOpts = append(routerOpts, httpadapter.WithMetrics(httpMetrics))
	}

	app, err := bootstrap.New(cfg, observer)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	app.LogStartup(logger)

	router, err := httpadapter.NewRouter(cfg, app.Pipeline, app.Sessions, routerOpts...)
	if err != nil {
		log.Fatalf("router error: %v", err)
	}

	// classify-all can run for minutes.
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
