// Package structural extracts summarizing metadata from raw evidence bytes:
// size, line/word counts, detected dates, header fields and party names.
// Extraction is pure and bounded; sub-fields that fail to parse are omitted.
package structural

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// scanCap bounds how much content the pattern scans look at so extraction
// stays fast regardless of file size. Byte counts still use the full length.
const defaultScanCap = 64 * 1024

const (
	maxDates        = 10
	maxHeaderFields = 12
	maxParties      = 8
	headerLineLimit = 40
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`),
	}
	headerPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z-]{1,30}):\s+(.+)$`)
	versusPattern = regexp.MustCompile(`\b([A-Z][A-Za-z.&' ]{1,40}?)\s+vs?\.\s+([A-Z][A-Za-z.&' ]{1,40})\b`)
)

type Extractor struct {
	scanCap int
}

func New(scanCap int) *Extractor {
	if scanCap <= 0 {
		scanCap = defaultScanCap
	}
	return &Extractor{scanCap: scanCap}
}

func (e *Extractor) Extract(content []byte) domain.Metadata {
	meta := domain.Metadata{domain.MetaLength: len(content)}
	if len(content) == 0 {
		return meta
	}

	window := content
	if len(window) > e.scanCap {
		window = window[:e.scanCap]
	}
	if !utf8.Valid(window) {
		// Binary payload: structural counts would be meaningless noise.
		return meta
	}
	text := string(window)

	meta[domain.MetaLineCount] = strings.Count(text, "\n") + 1
	meta[domain.MetaWordCount] = len(strings.Fields(text))

	if dates := detectDates(text); len(dates) > 0 {
		meta[domain.MetaDates] = dates
	}
	if headers := detectHeaderFields(text); len(headers) > 0 {
		meta[domain.MetaHeaderFields] = headers
	}
	if parties := detectParties(text); len(parties) > 0 {
		meta[domain.MetaParties] = parties
	}
	return meta
}

func detectDates(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range datePatterns {
		for _, hit := range pattern.FindAllString(text, maxDates) {
			if _, dup := seen[hit]; dup {
				continue
			}
			seen[hit] = struct{}{}
			out = append(out, hit)
			if len(out) == maxDates {
				return out
			}
		}
	}
	return out
}

// detectHeaderFields reads "Key: Value" pairs from the leading lines, the
// shape correspondence and filings open with. The first occurrence of a key
// wins.
func detectHeaderFields(text string) map[string]string {
	out := make(map[string]string)
	lines := strings.Split(text, "\n")
	if len(lines) > headerLineLimit {
		lines = lines[:headerLineLimit]
	}
	for _, line := range lines {
		groups := headerPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if groups == nil {
			continue
		}
		key := strings.ToLower(groups[1])
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = strings.TrimSpace(groups[2])
		if len(out) == maxHeaderFields {
			break
		}
	}
	return out
}

// detectParties pulls names from From/To header values and "X v. Y" caption
// patterns.
func detectParties(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || len(out) >= maxParties {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}

	headers := detectHeaderFields(text)
	for _, key := range []string{"from", "to"} {
		for _, part := range strings.Split(headers[key], ",") {
			add(part)
		}
	}
	for _, groups := range versusPattern.FindAllStringSubmatch(text, maxParties) {
		add(groups[1])
		add(groups[2])
	}
	return out
}
