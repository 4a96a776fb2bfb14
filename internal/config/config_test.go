package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("CONFIG_FILE", "")
	for _, key := range []string{
		"GOOGLE_MAPS_KEY", "OPENAI_API_KEY", "OPENAI_MODEL", "LLM_PROVIDER",
		"SEARCH_RADIUS_METERS", "MAX_EXTRA_PAGES", "PAGE_TOKEN_DELAY_MS",
		"CLASSIFY_TIMEOUT_SECONDS", "SHORTLINK_TIMEOUT_SECONDS", "API_RATE_LIMIT_RPS",
		"GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchRadiusMeters != 3000 {
		t.Fatalf("expected default radius 3000, got %d", cfg.SearchRadiusMeters)
	}
	if cfg.MaxExtraPages != 3 {
		t.Fatalf("expected default extra pages 3, got %d", cfg.MaxExtraPages)
	}
	if cfg.PageTokenDelay() != 2*time.Second {
		t.Fatalf("expected page token delay 2s, got %v", cfg.PageTokenDelay())
	}
	if cfg.ClassifyTimeout() != 45*time.Second {
		t.Fatalf("expected classify timeout 45s, got %v", cfg.ClassifyTimeout())
	}
	if cfg.ShortlinkTimeout() != 4*time.Second {
		t.Fatalf("expected shortlink timeout 4s, got %v", cfg.ShortlinkTimeout())
	}
	if cfg.LLMProvider != "openai" || cfg.ModelName() != "gpt-4o-mini" {
		t.Fatalf("unexpected model defaults %q %q", cfg.LLMProvider, cfg.ModelName())
	}
	if cfg.ModelCredentialLoaded() || cfg.GoogleMapsKey != "" {
		t.Fatalf("expected no credentials by default")
	}
	if cfg.APIRateLimitRPS != 5 {
		t.Fatalf("expected rate limit 5, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SEARCH_RADIUS_METERS", "1200")
	t.Setenv("MAX_EXTRA_PAGES", "0")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchRadiusMeters != 1200 || cfg.MaxExtraPages != 0 {
		t.Fatalf("unexpected search overrides %d %d", cfg.SearchRadiusMeters, cfg.MaxExtraPages)
	}
	if cfg.LLMProvider != "gemini" || !cfg.ModelCredentialLoaded() || cfg.ModelName() != "gemini-2.5-flash" {
		t.Fatalf("unexpected provider config %+v", cfg)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadInvalidNumberFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("SEARCH_RADIUS_METERS", "wide")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchRadiusMeters != 3000 {
		t.Fatalf("expected fallback radius, got %d", cfg.SearchRadiusMeters)
	}
}

func TestLoadReadsYAMLBeneathEnvironment(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "SEARCH_RADIUS_METERS: 800\nmax_extra_pages: 1\nOPENAI_MODEL: gpt-4.1-mini\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchRadiusMeters != 800 || cfg.MaxExtraPages != 1 {
		t.Fatalf("expected yaml values, got %d %d", cfg.SearchRadiusMeters, cfg.MaxExtraPages)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected environment to win, got %q", cfg.OpenAIModel)
	}
}

func TestLoadRejectsNestedYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("search:\n  radius: 5\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for nested yaml")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GOOGLE_MAPS_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("GOOGLE_MAPS_KEY")
	t.Cleanup(func() { os.Unsetenv("GOOGLE_MAPS_KEY") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GoogleMapsKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.GoogleMapsKey)
	}
}
