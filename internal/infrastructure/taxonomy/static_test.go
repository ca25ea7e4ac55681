package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTableCoversGeneralAndEmployment(t *testing.T) {
	table := Default()

	general := table.Lookup("general")
	if general.Category != "general" {
		t.Fatalf("expected general category, got %q", general.Category)
	}
	if len(general.PrimaryKeywords) == 0 || len(general.SecondaryKeywords) == 0 {
		t.Fatal("general category must carry both keyword families")
	}
	if general.DefaultPrimary == "" || general.DefaultSecondary == "" {
		t.Fatal("general category must define default sub-types")
	}

	if employment := table.Lookup("employment"); employment.Category != "employment" {
		t.Fatalf("expected employment category, got %q", employment.Category)
	}
}

func TestLookupFallsBackForUnknownCategory(t *testing.T) {
	table := Default()
	unknown := table.Lookup("antitrust")
	if unknown.Category != "general" {
		t.Fatalf("expected fallback to general, got %q", unknown.Category)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	doc := `
categories:
  general:
    primary:
      invoice: ["invoice", "amount due", "vat"]
    secondary:
      statute: ["statute", "section"]
    default_primary: record
    default_secondary: citation
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	general := table.Lookup("general")
	if got := general.PrimaryKeywords["invoice"]; len(got) != 3 {
		t.Fatalf("unexpected invoice keywords: %v", got)
	}
	if general.DefaultPrimary != "record" || general.DefaultSecondary != "citation" {
		t.Fatalf("unexpected defaults: %+v", general)
	}
	// The loaded table replaces the built-ins entirely.
	if other := table.Lookup("employment"); other.Category != "general" {
		t.Fatalf("expected fallback for categories absent from the file, got %q", other.Category)
	}
}

func TestLoadFileRejectsEmptyAndInvalidSpecs(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("categories: {}\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFile(empty); err == nil {
		t.Fatal("expected error for file without categories")
	}

	noKeywords := filepath.Join(dir, "nokeywords.yaml")
	if err := os.WriteFile(noKeywords, []byte("categories:\n  general:\n    default_primary: doc\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFile(noKeywords); err == nil {
		t.Fatal("expected error for category without keyword sets")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
