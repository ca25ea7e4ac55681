package structural

import (
	"strings"
	"testing"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

func TestExtractEmptyContent(t *testing.T) {
	meta := New(0).Extract(nil)
	if meta[domain.MetaLength] != 0 {
		t.Fatalf("expected zero length, got %v", meta[domain.MetaLength])
	}
	if _, ok := meta[domain.MetaLineCount]; ok {
		t.Fatal("empty content must not report line counts")
	}
}

func TestExtractBinaryContentReportsOnlyLength(t *testing.T) {
	meta := New(0).Extract([]byte{0xff, 0xfe, 0x00, 0x80, 0x81})
	if meta[domain.MetaLength] != 5 {
		t.Fatalf("expected length 5, got %v", meta[domain.MetaLength])
	}
	if len(meta) != 1 {
		t.Fatalf("binary payload must carry length only, got %v", meta)
	}
}

func TestExtractCountsAndDates(t *testing.T) {
	content := []byte("Meeting held 2024-03-15.\nFollow-up on 03/20/2024 and again March 22, 2024.\nEnd.")
	meta := New(0).Extract(content)

	if meta[domain.MetaLineCount] != 3 {
		t.Fatalf("expected 3 lines, got %v", meta[domain.MetaLineCount])
	}
	if meta[domain.MetaWordCount].(int) == 0 {
		t.Fatal("expected non-zero word count")
	}
	dates, ok := meta[domain.MetaDates].([]string)
	if !ok || len(dates) != 3 {
		t.Fatalf("expected 3 detected dates, got %v", meta[domain.MetaDates])
	}
	for _, want := range []string{"2024-03-15", "03/20/2024", "March 22, 2024"} {
		found := false
		for _, got := range dates {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing date %q in %v", want, dates)
		}
	}
}

func TestExtractHeaderFieldsFirstOccurrenceWins(t *testing.T) {
	content := []byte("From: Alice Grant\r\nTo: Bob Hale\nSubject: Settlement draft\nSubject: duplicate ignored\n\nBody text.")
	meta := New(0).Extract(content)

	headers, ok := meta[domain.MetaHeaderFields].(map[string]string)
	if !ok {
		t.Fatalf("expected header map, got %v", meta[domain.MetaHeaderFields])
	}
	if headers["from"] != "Alice Grant" || headers["to"] != "Bob Hale" {
		t.Fatalf("unexpected from/to: %v", headers)
	}
	if headers["subject"] != "Settlement draft" {
		t.Fatalf("first subject must win, got %q", headers["subject"])
	}
}

func TestExtractPartiesFromHeadersAndCaption(t *testing.T) {
	content := []byte("From: Alice Grant, CarolImes\nTo: Bob Hale\n\nGrant v. Hale, settlement discussion.")
	meta := New(0).Extract(content)

	parties, ok := meta[domain.MetaParties].([]string)
	if !ok {
		t.Fatalf("expected party list, got %v", meta[domain.MetaParties])
	}
	want := []string{"Alice Grant", "Carol Imes", "Bob Hale", "Grant", "Hale"}
	if len(parties) != len(want) {
		t.Fatalf("expected %v, got %v", want, parties)
	}
	for i := range want {
		if parties[i] != want[i] {
			t.Fatalf("expected deterministic order %v, got %v", want, parties)
		}
	}
}

func TestExtractScanCapBoundsPatternWork(t *testing.T) {
	head := "Date: 2024-01-01\n"
	tail := strings.Repeat("x", 100) + " 2030-12-31"
	extractor := New(len(head))
	meta := extractor.Extract([]byte(head + tail))

	if meta[domain.MetaLength] != len(head)+len(tail) {
		t.Fatalf("length must cover the full payload, got %v", meta[domain.MetaLength])
	}
	dates, _ := meta[domain.MetaDates].([]string)
	for _, d := range dates {
		if d == "2030-12-31" {
			t.Fatal("dates beyond the scan cap must not be detected")
		}
	}
}
