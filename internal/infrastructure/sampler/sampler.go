// Package sampler builds the bounded text sample the classifier and
// summarizer work from, so the pipeline never has to hold an arbitrarily
// large decoded document.
package sampler

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

const defaultMaxSampleBytes = 16 * 1024

type Sampler struct {
	maxBytes int
}

func New(maxBytes int) *Sampler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxSampleBytes
	}
	return &Sampler{maxBytes: maxBytes}
}

// Sample returns a capped text prefix of the content. PDFs and spreadsheets
// are decoded to plain text first; everything else must be valid UTF-8. Only
// payloads that cannot be decoded at all produce an error.
func (s *Sampler) Sample(filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return s.samplePDF(content)
	case ".xlsx", ".xlsm":
		return s.sampleXLSX(content)
	}

	prefix := content
	if len(prefix) > s.maxBytes {
		prefix = trimPartialRune(prefix[:s.maxBytes])
	}
	if !utf8.Valid(prefix) {
		return "", fmt.Errorf("content of %s is not valid utf-8 text", filename)
	}
	return strings.TrimSpace(string(prefix)), nil
}

func (s *Sampler) samplePDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(io.LimitReader(textReader, int64(s.maxBytes)))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(trimPartialRune(raw))), nil
}

// sampleXLSX flattens workbook cells into text, rows as lines, so payslips
// and other tabular evidence reach the keyword classifier.
func (s *Sampler) sampleXLSX(content []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	var out strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read workbook sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(line)
			if out.Len() >= s.maxBytes {
				capped := trimPartialRune([]byte(out.String())[:s.maxBytes])
				return strings.TrimSpace(string(capped)), nil
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// trimPartialRune drops a trailing rune the byte cap may have cut in half.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		if r, _ := utf8.DecodeLastRune(b); r != utf8.RuneError {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}
