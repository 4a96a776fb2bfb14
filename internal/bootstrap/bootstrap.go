package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
	"github.com/kirillkom/restaurant-classifier/internal/core/usecase"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/llm/openai"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/maps/google"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/repository/memory"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/resilience"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/shortlink"
)

type App struct {
	Config config.Config

	Resolver   *usecase.ResolveCoordinatesUseCase
	Fetcher    *usecase.FetchPlacesUseCase
	Classifier *usecase.ClassifyRestaurantUseCase
	Pipeline   *usecase.Pipeline
	Sessions   *memory.SessionRepository
}

// breakerListener is implemented by observers that also export upstream
// breaker state.
type breakerListener interface {
	ObserveBreakerState(operation, state string)
}

// New wires the pipeline from cfg. Missing credentials are not an error:
// the affected steps report configuration_missing when they run.
func New(cfg config.Config, observer ports.PipelineObserver) (*App, error) {
	var execOpts []resilience.Option
	if l, ok := observer.(breakerListener); ok {
		execOpts = append(execOpts, resilience.WithStateListener(l.ObserveBreakerState))
	}
	exec := resilience.NewExecutor(resilience.Policy{
		Enabled:       cfg.BreakerEnabled,
		MinRequests:   uint32(max(cfg.BreakerMinRequests, 0)),
		FailureRatio:  cfg.BreakerFailureRatio,
		OpenTimeout:   time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		HalfOpenCalls: 1,
	}, execOpts...)

	expander, err := shortlink.New(cfg.ShortlinkTimeout())
	if err != nil {
		return nil, fmt.Errorf("init short link expander: %w", err)
	}

	maps := google.New(cfg.GoogleMapsKey, exec, google.WithBaseURL(cfg.GoogleMapsBaseURL))
	var geocoder ports.Geocoder
	if cfg.GeocodeFallbackEnabled && strings.TrimSpace(cfg.GoogleMapsKey) != "" {
		geocoder = maps
	}

	model, err := NewChatModel(cfg, exec)
	if err != nil {
		return nil, err
	}

	resolver := usecase.NewResolveCoordinatesUseCase(expander, geocoder)
	fetcher := usecase.NewFetchPlacesUseCase(maps, cfg.PageTokenDelay())
	classifier := usecase.NewClassifyRestaurantUseCase(model)
	pipeline := usecase.NewPipeline(resolver, fetcher, classifier, observer, usecase.PipelineConfig{
		RadiusMeters:    cfg.SearchRadiusMeters,
		MaxPages:        cfg.MaxExtraPages,
		ClassifyTimeout: cfg.ClassifyTimeout(),
	})

	return &App{
		Config:     cfg,
		Resolver:   resolver,
		Fetcher:    fetcher,
		Classifier: classifier,
		Pipeline:   pipeline,
		Sessions:   memory.NewSessionRepository(cfg.SessionTTL()),
	}, nil
}

// NewChatModel picks the provider named by LLM_PROVIDER. It returns a nil
// model when the provider's credential is missing.
func NewChatModel(cfg config.Config, exec *resilience.Executor) (ports.ChatModel, error) {
	switch cfg.LLMProvider {
	case "openai", "gemini", "ollama":
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want openai, gemini or ollama)", cfg.LLMProvider)
	}
	if !cfg.ModelCredentialLoaded() {
		return nil, nil
	}

	switch cfg.LLMProvider {
	case "gemini":
		return gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, exec), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, exec), nil
	default:
		return openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, exec), nil
	}
}

// LogStartup reports which credentials were found, without their values.
func (a *App) LogStartup(logger *slog.Logger) {
	logger.Info("classifier_configured",
		"maps_key_loaded", strings.TrimSpace(a.Config.GoogleMapsKey) != "",
		"model_key_loaded", a.Config.ModelCredentialLoaded(),
		"llm_provider", a.Config.LLMProvider,
		"model", a.Config.ModelName(),
		"radius_m", a.Config.SearchRadiusMeters,
		"max_extra_pages", a.Config.MaxExtraPages,
		"geocode_fallback", a.Config.GeocodeFallbackEnabled,
	)
}
