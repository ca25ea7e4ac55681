package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSummarizeSendsPromptAndModel(t *testing.T) {
	var captured struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Stream bool   `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  Short synopsis.  "})
	}))
	defer server.Close()

	s := New(server.URL+"/", "llama3", nil)
	got, err := s.Summarize(context.Background(), "the evidence text", 400)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Short synopsis." {
		t.Fatalf("expected trimmed response, got %q", got)
	}
	if captured.Model != "llama3" || captured.Stream {
		t.Fatalf("unexpected request payload: %+v", captured)
	}
	if !strings.Contains(captured.Prompt, "the evidence text") || !strings.Contains(captured.Prompt, "400") {
		t.Fatalf("prompt missing content or budget: %q", captured.Prompt)
	}
}

func TestSummarizeTruncatesOverlongResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": strings.Repeat("a", 100)})
	}))
	defer server.Close()

	got, err := New(server.URL, "llama3", nil).Summarize(context.Background(), "text", 10)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 chars, got %d", len(got))
	}
}

func TestSummarizeSurfacesStatusErrorWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "missing-model", nil).Summarize(context.Background(), "text", 400)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestBuildSummaryPromptCapsContent(t *testing.T) {
	prompt := buildSummaryPrompt(strings.Repeat("x", maxPromptChars+500), 200)
	if len(prompt) > maxPromptChars+200 {
		t.Fatalf("prompt not capped: %d chars", len(prompt))
	}
}

func TestClassifyHTTPError(t *testing.T) {
	if c := classifyHTTPError(nil); c.Retryable || c.RecordFailure {
		t.Fatalf("nil error must be a no-op classification: %+v", c)
	}

	if c := classifyHTTPError(context.DeadlineExceeded); c.Retryable || c.RecordFailure {
		t.Fatalf("context expiry must not retry or trip the breaker: %+v", c)
	}

	retryable := &HTTPStatusError{Operation: "generate", StatusCode: http.StatusServiceUnavailable, Status: "503"}
	if c := classifyHTTPError(retryable); !c.Retryable || !c.RecordFailure {
		t.Fatalf("503 must retry and record: %+v", c)
	}

	terminal := &HTTPStatusError{Operation: "generate", StatusCode: http.StatusBadRequest, Status: "400"}
	if c := classifyHTTPError(terminal); c.Retryable {
		t.Fatalf("400 must not retry: %+v", c)
	}
}
