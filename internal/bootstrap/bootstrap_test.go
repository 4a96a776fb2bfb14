package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/observability/logging"
)

func TestNewChatModelSelectsProvider(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "openai",
			cfg:  config.Config{LLMProvider: "openai", OpenAIAPIKey: "k", OpenAIModel: "gpt-4o-mini"},
			want: "*openai.Client",
		},
		{
			name: "gemini",
			cfg:  config.Config{LLMProvider: "gemini", GeminiAPIKey: "k", GeminiModel: "gemini-2.5-flash"},
			want: "*gemini.Client",
		},
		{
			name: "ollama",
			cfg:  config.Config{LLMProvider: "ollama", OllamaURL: "http://localhost:11434", OllamaModel: "llama3.1:8b"},
			want: "*ollama.Client",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model, err := NewChatModel(tc.cfg, nil)
			if err != nil {
				t.Fatalf("NewChatModel() error = %v", err)
			}
			if got := fmt.Sprintf("%T", model); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNewChatModelWithoutKeyIsNil(t *testing.T) {
	model, err := NewChatModel(config.Config{LLMProvider: "openai"}, nil)
	if err != nil {
		t.Fatalf("NewChatModel() error = %v", err)
	}
	if model != nil {
		t.Fatalf("expected nil model without key, got %T", model)
	}
}

func TestNewChatModelRejectsUnknownProvider(t *testing.T) {
	if _, err := NewChatModel(config.Config{LLMProvider: "bard", OpenAIAPIKey: "k"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewWiresPipelineWithoutCredentials(t *testing.T) {
	app, err := New(config.Config{LLMProvider: "openai", SearchRadiusMeters: 500, MaxExtraPages: 1}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg := app.Pipeline.Config()
	if cfg.RadiusMeters != 500 || cfg.MaxPages != 1 {
		t.Fatalf("unexpected pipeline config %+v", cfg)
	}
	if app.Sessions == nil || app.Resolver == nil || app.Fetcher == nil || app.Classifier == nil {
		t.Fatalf("expected all components to be wired")
	}
}

func TestLogStartupReportsKeysWithoutValues(t *testing.T) {
	app := &App{Config: config.Config{
		GoogleMapsKey: "maps-secret",
		LLMProvider:   "openai",
		OpenAIModel:   "gpt-4o-mini",
	}}
	var buf bytes.Buffer
	app.LogStartup(logging.NewJSONLoggerTo(&buf, "api", "info"))

	if strings.Contains(buf.String(), "maps-secret") {
		t.Fatalf("credential value leaked: %s", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["maps_key_loaded"] != true || entry["model_key_loaded"] != false || entry["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected startup entry %v", entry)
	}
}

type breakerRecorder struct {
	states []string
}

func (r *breakerRecorder) ObserveResolution(domain.Resolution)         {}
func (r *breakerRecorder) ObserveFetch(int, error)                     {}
func (r *breakerRecorder) ObserveClassification(domain.Classification) {}

func (r *breakerRecorder) ObserveBreakerState(operation, state string) {
	r.states = append(r.states, operation+"="+state)
}

func TestNewAcceptsBreakerAwareObserver(t *testing.T) {
	obs := &breakerRecorder{}
	if _, err := New(config.Config{LLMProvider: "openai", BreakerEnabled: true}, obs); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var listener breakerListener = obs
	listener.ObserveBreakerState("openai.chat", "open")
	if len(obs.states) != 1 || obs.states[0] != "openai.chat=open" {
		t.Fatalf("unexpected states %v", obs.states)
	}
}
