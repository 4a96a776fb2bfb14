package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

func TestCompleteSendsDeterministicChatRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" Seafood \n"}}`))
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", nil)
	reply, err := client.Complete(context.Background(), domain.ChatPrompt{
		System:          "classify",
		User:            "Name: Fish House",
		MaxOutputTokens: 20,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Seafood" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}
	if captured["stream"] != false || captured["model"] != "llama3.1:8b" {
		t.Fatalf("unexpected request: %v", captured)
	}
	options, _ := captured["options"].(map[string]any)
	if options["temperature"] != float64(0) || options["num_predict"] != float64(20) {
		t.Fatalf("unexpected options: %v", options)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", messages)
	}
}

func TestCompleteWrapsStatusErrorAsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "missing", nil).Complete(context.Background(), domain.ChatPrompt{User: "x"})
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}
