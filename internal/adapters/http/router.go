package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
	"github.com/kirillkom/restaurant-classifier/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 64 << 10
)

type Router struct {
	cfg       config.Config
	pipeline  ports.SessionPipeline
	sessions  ports.SessionStore
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func NewRouter(cfg config.Config, pipeline ports.SessionPipeline, sessions ports.SessionStore, opts ...RouterOption) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	rt := &Router{
		cfg:       cfg,
		pipeline:  pipeline,
		sessions:  sessions,
		validator: validator,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/resolve", rt.resolveStateless)
	api.HandleFunc("POST /v1/sessions", rt.createSession)
	api.HandleFunc("GET /v1/sessions/{id}", rt.getSession)
	api.HandleFunc("DELETE /v1/sessions/{id}", rt.deleteSession)
	api.HandleFunc("POST /v1/sessions/{id}/resolve", rt.resolveSession)
	api.HandleFunc("POST /v1/sessions/{id}/fetch", rt.fetchRestaurants)
	api.HandleFunc("POST /v1/sessions/{id}/classify-next", rt.classifyNext)
	api.HandleFunc("POST /v1/sessions/{id}/classify-all", rt.classifyAll)
	api.HandleFunc("POST /v1/sessions/{id}/reset", rt.resetClassification)
	api.HandleFunc("GET /v1/sessions/{id}/export.xlsx", rt.exportSession)

	var limited http.Handler = rt.validator.middleware(api)
	limited = backpressureMiddleware(
		limited,
		rt.cfg.APIMaxInFlight,
		time.Duration(rt.cfg.APIInFlightWaitMS)*time.Millisecond,
		rt.rejected("backpressure"),
	)
	limited = rateLimitMiddleware(limited, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limit"))

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	root.HandleFunc("GET /openapi.yaml", rt.openAPI)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/", limited)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.metrics != nil {
			rt.metrics.RecordRejected(serviceName, reason)
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"maps_key_loaded":  rt.cfg.GoogleMapsKey != "",
		"model_key_loaded": rt.cfg.ModelCredentialLoaded(),
		"model":            rt.cfg.ModelName(),
		"llm_provider":     rt.cfg.LLMProvider,
		"geocode_fallback": rt.cfg.GeocodeFallbackEnabled,
		"search_radius_m":  rt.cfg.SearchRadiusMeters,
		"max_extra_pages":  rt.cfg.MaxExtraPages,
	})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(OpenAPISpec())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("request body is empty"))
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json: %w", err))
	}
	return nil
}
