package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finboard/finboard/internal/config"
)

func newTestClient(upstream *httptest.Server, provider string) *Client {
	return NewClient(config.AIConfig{
		BaseURL:  upstream.URL,
		APIKey:   "test-key",
		Model:    "test-model",
		Provider: provider,
	})
}

func TestComplete_ResponsesShape(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if errDecode := json.NewDecoder(r.Body).Decode(&gotBody); errDecode != nil {
			t.Errorf("decode request: %v", errDecode)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output":[{"type":"reasoning","content":[{"text":"skip"}]},{"type":"message","content":[{"text":"Hello"},{"text":", world"}]}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	text, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Hello, world" {
		t.Fatalf("unexpected reply %q", text)
	}
	if gotPath != "/responses" {
		t.Fatalf("expected /responses, got %s", gotPath)
	}
	if _, ok := gotBody["input"]; !ok {
		t.Fatalf("responses mode must send input, got %v", gotBody)
	}
}

func TestComplete_ChatShape(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"chat reply"}}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderChat)
	text, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "chat reply" {
		t.Fatalf("unexpected reply %q", text)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("expected /chat/completions, got %s", gotPath)
	}
	if _, ok := gotBody["messages"]; !ok {
		t.Fatalf("chat mode must send messages, got %v", gotBody)
	}
}

func TestComplete_ChatFallbackFromResponsesShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output":[],"choices":[{"message":{"content":"fallback"}}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	text, err := client.Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "fallback" {
		t.Fatalf("expected chat-shape fallback, got %q", text)
	}
}

func TestComplete_EmptyReplyIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	text, err := client.Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty reply, got %q", text)
	}
}

func TestComplete_NonJSONResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("<html>" + strings.Repeat("x", 400) + "</html>"))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	_, err := client.Complete(context.Background(), nil)

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Code != http.StatusForbidden {
		t.Fatalf("expected upstream status surfaced, got %d", upErr.Code)
	}
	if len(upErr.Detail) > 200 {
		t.Fatalf("detail must be truncated to 200 bytes, got %d", len(upErr.Detail))
	}
	if upErr.Detail == "" {
		t.Fatalf("expected a body snippet")
	}
}

func TestComplete_StructuredErrorSurfacesMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited, slow down"}}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	_, err := client.Complete(context.Background(), nil)

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected code %d", upErr.Code)
	}
	if upErr.Message != "rate limited, slow down" {
		t.Fatalf("upstream error message must surface verbatim, got %q", upErr.Message)
	}
}

func TestComplete_ConnectionFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	client := newTestClient(upstream, config.ProviderResponses)
	_, err := client.Complete(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		t.Fatalf("transport failures are not upstream errors: %v", err)
	}
}
