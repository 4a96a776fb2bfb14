package shortlink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExpandFollowsRedirectChain(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "consent", Value: "yes", Path: "/"})
		http.Redirect(w, r, "/consent", http.StatusFound)
	})
	mux.HandleFunc("/consent", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("consent"); err != nil {
			http.Error(w, "cookie missing", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/maps/place/Cafe/@24.7136,46.6753,15z", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/maps/place/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	expander, err := New(time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := expander.Expand(context.Background(), server.URL+"/short")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	want := server.URL + "/maps/place/Cafe/@24.7136,46.6753,15z"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpandTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	expander, err := New(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := expander.Expand(context.Background(), server.URL); err == nil {
		t.Fatalf("expected timeout error")
	}
}
