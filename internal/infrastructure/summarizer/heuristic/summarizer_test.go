package heuristic

import (
	"context"
	"strings"
	"testing"
)

func TestSummarizeKeepsLeadingSentences(t *testing.T) {
	content := "First finding. Second finding follows. Third one is long and gets dropped entirely."
	got, err := New().Summarize(context.Background(), content, 40)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "First finding. Second finding follows." {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestSummarizeCollapsesWhitespace(t *testing.T) {
	got, err := New().Summarize(context.Background(), "one\n\n  two\t three", 400)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "one two three" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestSummarizeEmptyContent(t *testing.T) {
	got, err := New().Summarize(context.Background(), "   \n\t ", 400)
	if err != nil || got != "" {
		t.Fatalf("Summarize() = %q, %v", got, err)
	}
}

func TestSummarizeRespectsBudgetEvenForOneSentence(t *testing.T) {
	content := strings.Repeat("word ", 200) + "end."
	got, err := New().Summarize(context.Background(), content, 50)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got == "" || len([]rune(got)) > 50 {
		t.Fatalf("expected non-empty summary within budget, got %d runes", len([]rune(got)))
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	content := "Exhibit A covers the meeting. Exhibit B covers the follow-up!"
	first, _ := New().Summarize(context.Background(), content, 400)
	for i := 0; i < 20; i++ {
		again, _ := New().Summarize(context.Background(), content, 400)
		if again != first {
			t.Fatalf("summary drifted: %q vs %q", again, first)
		}
	}
}
