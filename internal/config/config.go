package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	GoogleMapsKey          string
	GoogleMapsBaseURL      string
	GeocodeFallbackEnabled bool

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OllamaURL     string
	OllamaModel   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	SearchRadiusMeters     int
	MaxExtraPages          int
	PageTokenDelayMS       int
	ClassifyTimeoutSeconds int
	ShortlinkTimeoutSecs   int
	SessionTTLMinutes      int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIInFlightWaitMS int

	BreakerEnabled            bool
	BreakerMinRequests        int
	BreakerFailureRatio       float64
	BreakerOpenTimeoutSeconds int

	MetricsEnabled bool
}

// source resolves a key from the environment first and the optional YAML
// file second.
type source struct {
	file map[string]string
}

// Load reads .env (when present) into the environment, then the file named
// by CONFIG_FILE, then builds the config. Real environment variables win
// over both.
func Load() (Config, error) {
	if err := godotenv.Load(envFile()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = values
	}
	return src.load(), nil
}

func (s source) load() Config {
	return Config{
		APIPort:  s.mustEnv("API_PORT", "8080"),
		LogLevel: s.mustEnv("LOG_LEVEL", "info"),

		GoogleMapsKey:          s.mustEnv("GOOGLE_MAPS_KEY", ""),
		GoogleMapsBaseURL:      s.mustEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
		GeocodeFallbackEnabled: s.mustEnvBool("GEOCODE_FALLBACK_ENABLED", true),

		LLMProvider:   strings.ToLower(s.mustEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:  s.mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   s.mustEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: s.mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OllamaURL:     s.mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   s.mustEnv("OLLAMA_MODEL", "llama3.1:8b"),
		GeminiAPIKey:  s.mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:   s.mustEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: s.mustEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		SearchRadiusMeters:     s.mustEnvInt("SEARCH_RADIUS_METERS", 3000),
		MaxExtraPages:          s.mustEnvInt("MAX_EXTRA_PAGES", 3),
		PageTokenDelayMS:       s.mustEnvInt("PAGE_TOKEN_DELAY_MS", 2000),
		ClassifyTimeoutSeconds: s.mustEnvInt("CLASSIFY_TIMEOUT_SECONDS", 45),
		ShortlinkTimeoutSecs:   s.mustEnvInt("SHORTLINK_TIMEOUT_SECONDS", 4),
		SessionTTLMinutes:      s.mustEnvInt("SESSION_TTL_MINUTES", 360),

		APIRateLimitRPS:   s.mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: s.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    s.mustEnvInt("API_MAX_INFLIGHT", 8),
		APIInFlightWaitMS: s.mustEnvInt("API_INFLIGHT_WAIT_MS", 250),

		BreakerEnabled:            s.mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:        s.mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:       s.mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeoutSeconds: s.mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),

		MetricsEnabled: s.mustEnvBool("METRICS_ENABLED", true),
	}
}

func (c Config) PageTokenDelay() time.Duration {
	return time.Duration(c.PageTokenDelayMS) * time.Millisecond
}

func (c Config) ClassifyTimeout() time.Duration {
	return time.Duration(c.ClassifyTimeoutSeconds) * time.Second
}

func (c Config) ShortlinkTimeout() time.Duration {
	return time.Duration(c.ShortlinkTimeoutSecs) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// ModelName is the model used by the selected provider.
func (c Config) ModelName() string {
	switch c.LLMProvider {
	case "ollama":
		return c.OllamaModel
	case "gemini":
		return c.GeminiModel
	default:
		return c.OpenAIModel
	}
}

// ModelCredentialLoaded reports whether the selected provider can be called.
// Ollama runs locally and needs no key.
func (c Config) ModelCredentialLoaded() bool {
	switch c.LLMProvider {
	case "ollama":
		return strings.TrimSpace(c.OllamaURL) != ""
	case "gemini":
		return strings.TrimSpace(c.GeminiAPIKey) != ""
	default:
		return strings.TrimSpace(c.OpenAIAPIKey) != ""
	}
}

func envFile() string {
	if v := strings.TrimSpace(os.Getenv("ENV_FILE")); v != "" {
		return v
	}
	return ".env"
}

// readFile accepts a flat YAML mapping keyed by environment variable name.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config file %s: key %s must be a scalar", path, k)
		}
		values[strings.ToUpper(strings.TrimSpace(k))] = fmt.Sprint(v)
	}
	return values, nil
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
