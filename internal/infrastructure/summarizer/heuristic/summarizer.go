// Package heuristic is the local, deterministic summarizer: it keeps the
// leading sentences of the content up to the character budget. No network,
// no model, identical input always gives an identical synopsis.
package heuristic

import (
	"context"
	"strings"
)

type Summarizer struct{}

func New() *Summarizer {
	return &Summarizer{}
}

func (s *Summarizer) Summarize(_ context.Context, content string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = 400
	}
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return "", nil
	}

	var out strings.Builder
	for _, sentence := range splitSentences(text) {
		if out.Len() > 0 && out.Len()+len(sentence)+1 > maxChars {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(sentence)
		if out.Len() >= maxChars {
			break
		}
	}

	summary := out.String()
	if len([]rune(summary)) > maxChars {
		summary = string([]rune(summary)[:maxChars])
	}
	return strings.TrimSpace(summary), nil
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		sentence := strings.TrimSpace(text[start : i+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
