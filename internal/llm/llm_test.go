package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.LLMConfig{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	_, err = New(config.LLMConfig{APIKey: "   "})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("whitespace key must be rejected, got %v", err)
	}
}

func TestGenerateRoutesTaskToModel(t *testing.T) {
	var gotModel string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		gotModel = req.Model
		resp := map[string]any{"choices": []map[string]any{
			{"message": map[string]any{"content": "planned"}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Models: map[string]config.LLMModel{
			"heavy": {APIName: "gpt-4o", Temperature: 0.2},
			"light": {APIName: "gpt-4o-mini"},
		},
		Routing: config.RoutingConfig{Planning: "heavy", Fallback: "light"},
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := c.Generate(context.Background(), brief.TaskPlanning, "plan it")
	if err != nil {
		t.Fatal(err)
	}
	if out != "planned" {
		t.Fatalf("unexpected completion %q", out)
	}
	if gotModel != "gpt-4o" {
		t.Fatalf("planning should route to the heavy model, got %q", gotModel)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}

	if _, err := c.Generate(context.Background(), brief.TaskSummarization, "sum it"); err != nil {
		t.Fatal(err)
	}
	if gotModel != "gpt-4o-mini" {
		t.Fatalf("unrouted task should use the fallback model, got %q", gotModel)
	}
}

func TestGenerateWrapsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Generate(context.Background(), brief.TaskSynthesis, "p")
	var svcErr *brief.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "llm" {
		t.Fatalf("unexpected service %q", svcErr.Service)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("status code missing from error: %v", err)
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Generate(context.Background(), brief.TaskSynthesis, "p"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
