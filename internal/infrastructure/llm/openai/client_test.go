package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

func TestCompletePostsChatCompletion(t *testing.T) {
	var captured completionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Burger"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL+"/v1", "sk-test", "gpt-4o-mini", nil)
	reply, err := client.Complete(context.Background(), domain.ChatPrompt{
		System:          "sys",
		User:            "Name: Five Guys",
		MaxOutputTokens: 20,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Burger" {
		t.Fatalf("expected Burger, got %q", reply)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if captured.Model != "gpt-4o-mini" || captured.MaxTokens != 20 || captured.Temperature != 0 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestCompleteWithoutKeyMakesNoCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	_, err := New(server.URL, " ", "gpt-4o-mini", nil).Complete(context.Background(), domain.ChatPrompt{User: "x"})
	if !domain.IsKind(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected configuration missing, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls)
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "k", "m", nil).Complete(context.Background(), domain.ChatPrompt{User: "x"})
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
