// Package ollama implements the LLM-backed summarizer against an Ollama
// generate API. The intake queue owns the timeout; this package owns request
// shaping, typed HTTP errors and retry on transient statuses.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caseward/evidence-intake/internal/infrastructure/resilience"
)

const maxPromptChars = 6000

type Summarizer struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Summarizer {
	return &Summarizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, content string, maxChars int) (string, error) {
	prompt := buildSummaryPrompt(content, maxChars)

	var summary string
	call := func(callCtx context.Context) error {
		text, err := s.generate(callCtx, prompt)
		if err != nil {
			return err
		}
		summary = text
		return nil
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "ollama.summarize", call, classifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}

	if runes := []rune(summary); maxChars > 0 && len(runes) > maxChars {
		summary = strings.TrimSpace(string(runes[:maxChars]))
	}
	return summary, nil
}

func buildSummaryPrompt(content string, maxChars int) string {
	snippet := content
	if len(snippet) > maxPromptChars {
		snippet = snippet[:maxPromptChars]
	}
	return fmt.Sprintf(`Summarize the following case evidence in at most %d characters.
Plain prose, no markdown, no preamble.

Evidence:
%s`, maxChars, snippet)
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  s.model,
		"prompt": prompt,
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  "generate",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return strings.TrimSpace(response.Response), nil
}
