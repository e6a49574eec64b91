package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientComplete(t *testing.T) {
	t.Setenv("PREFIXDIFF_TEST_KEY", "sk-test")

	t.Run("parses text and usage with cached tokens", func(t *testing.T) {
		var got completionRequest
		var auth, path string
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"choices":[{"text":"compliant"}],"usage":{"prompt_tokens":120,"completion_tokens":3,"prompt_tokens_details":{"cached_tokens":96}}}`))
		})

		c, err := NewClient(ClientOptions{
			BaseURL:   srv.URL + "/v1/",
			Model:     "llama",
			APIKeyEnv: "PREFIXDIFF_TEST_KEY",
			MaxTokens: 64,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := c.Complete(context.Background(), "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if path != "/v1/completions" {
			t.Errorf("expected /v1/completions, got %s", path)
		}
		if auth != "Bearer sk-test" {
			t.Errorf("expected bearer token, got %q", auth)
		}
		if got.Model != "llama" || got.Prompt != "hello" || got.MaxTokens != 64 {
			t.Errorf("unexpected request body: %+v", got)
		}
		if out.Text != "compliant" || out.PromptTokens != 120 || out.CompletionTokens != 3 {
			t.Errorf("unexpected completion: %+v", out)
		}
		if out.CachedTokens == nil || *out.CachedTokens != 96 {
			t.Errorf("expected 96 cached tokens, got %v", out.CachedTokens)
		}
	})

	t.Run("missing cache details is nil when not required", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`))
		})

		c, err := NewClient(ClientOptions{BaseURL: srv.URL, Model: "m"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := c.Complete(context.Background(), "p")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.CachedTokens != nil {
			t.Errorf("expected nil cached tokens, got %d", *out.CachedTokens)
		}
	})

	t.Run("missing cache details fails when required", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`))
		})

		c, err := NewClient(ClientOptions{BaseURL: srv.URL, Model: "m", RequireCacheMetrics: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := c.Complete(context.Background(), "p"); !errors.Is(err, ErrCacheMetricsUnavailable) {
			t.Errorf("expected ErrCacheMetricsUnavailable, got %v", err)
		}
	})

	t.Run("non-2xx status is an upstream error", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		})

		c, err := NewClient(ClientOptions{BaseURL: srv.URL, Model: "m"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := c.Complete(context.Background(), "p"); !errors.Is(err, ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("no choices is an error", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[],"usage":{}}`))
		})

		c, err := NewClient(ClientOptions{BaseURL: srv.URL, Model: "m"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := c.Complete(context.Background(), "p"); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("no api key sends no authorization header", func(t *testing.T) {
		auth := "unset"
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}],"usage":{}}`))
		})

		c, err := NewClient(ClientOptions{BaseURL: srv.URL, Model: "m", APIKeyEnv: "PREFIXDIFF_TEST_UNSET_KEY"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := c.Complete(context.Background(), "p"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if auth != "" {
			t.Errorf("expected no authorization header, got %q", auth)
		}
	})

	t.Run("model is required", func(t *testing.T) {
		if _, err := NewClient(ClientOptions{BaseURL: "http://localhost"}); !errors.Is(err, ErrNoModel) {
			t.Errorf("expected ErrNoModel, got %v", err)
		}
	})
}
