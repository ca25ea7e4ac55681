package sampler

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	defer workbook.Close()
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := workbook.SetCellValue("Sheet1", name, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := workbook.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestSampleEmptyContent(t *testing.T) {
	got, err := New(0).Sample("empty.txt", nil)
	if err != nil || got != "" {
		t.Fatalf("Sample() = %q, %v", got, err)
	}
}

func TestSamplePlainTextPassesThrough(t *testing.T) {
	got, err := New(0).Sample("note.txt", []byte("  witness statement, signed.  "))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if got != "witness statement, signed." {
		t.Fatalf("expected trimmed text, got %q", got)
	}
}

func TestSampleCapsLongContentOnRuneBoundary(t *testing.T) {
	content := []byte(strings.Repeat("é", 100)) // 2 bytes per rune
	got, err := New(7).Sample("long.txt", content)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(got) > 7 {
		t.Fatalf("sample exceeds cap: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("cap split a rune: %q", got)
	}
	if got != strings.Repeat("é", 3) {
		t.Fatalf("expected 3 whole runes, got %q", got)
	}
}

func TestSampleRejectsBinaryContent(t *testing.T) {
	_, err := New(0).Sample("dump.bin", []byte{0x00, 0xff, 0xfe, 0x80})
	if err == nil {
		t.Fatal("expected error for non-utf8 payload")
	}
	if !strings.Contains(err.Error(), "dump.bin") {
		t.Fatalf("error should name the file, got %v", err)
	}
}

func TestSampleDecodesWorkbookCells(t *testing.T) {
	content := workbookBytes(t, [][]string{
		{"Employee", "Period", "Gross Pay", "Net Pay"},
		{"A. Grant", "2024-03", "4200.00", "3150.00"},
	})

	got, err := New(0).Sample("payslip.xlsx", content)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	for _, want := range []string{"Gross Pay", "Net Pay", "A. Grant"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in sample %q", want, got)
		}
	}
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected rows as separate lines, got %q", got)
	}
}

func TestSampleCapsWorkbookText(t *testing.T) {
	var rows [][]string
	for i := 0; i < 50; i++ {
		rows = append(rows, []string{strings.Repeat("payroll ", 10)})
	}
	got, err := New(64).Sample("ledger.xlsx", workbookBytes(t, rows))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(got) > 64 {
		t.Fatalf("workbook sample exceeds cap: %d bytes", len(got))
	}
	if !strings.Contains(got, "payroll") {
		t.Fatalf("expected cell text in sample, got %q", got)
	}
}

func TestSampleRejectsUnparseableWorkbook(t *testing.T) {
	if _, err := New(0).Sample("broken.XLSX", []byte("not a zip archive")); err == nil {
		t.Fatal("expected error for malformed workbook")
	}
}

func TestSampleRejectsUnparseablePDF(t *testing.T) {
	_, err := New(0).Sample("scan.PDF", []byte("not really a pdf"))
	if err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestTrimPartialRune(t *testing.T) {
	whole := []byte("abé") // 'é' is 0xc3 0xa9
	if got := string(trimPartialRune(whole)); got != "abé" {
		t.Fatalf("whole runes must survive, got %q", got)
	}
	cut := whole[:len(whole)-1] // drop the final continuation byte
	if got := string(trimPartialRune(cut)); got != "ab" {
		t.Fatalf("expected partial rune dropped, got %q", got)
	}
}
