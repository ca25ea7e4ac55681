// Package taxonomy provides the read-only lookup table mapping case
// categories to keyword hints and sub-types. The table is loaded once from a
// YAML file (or built-in defaults) and never mutated afterwards.
package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

type categorySpec struct {
	Primary          map[string][]string `yaml:"primary"`
	Secondary        map[string][]string `yaml:"secondary"`
	DefaultPrimary   string              `yaml:"default_primary"`
	DefaultSecondary string              `yaml:"default_secondary"`
}

type fileSpec struct {
	Categories map[string]categorySpec `yaml:"categories"`
}

type Table struct {
	categories map[string]domain.Taxonomy
	fallback   domain.Taxonomy
}

// Default returns the built-in taxonomy covering the common evidence kinds.
func Default() *Table {
	table, err := build(defaultSpec())
	if err != nil {
		// Built-in spec is static and always valid.
		panic(err)
	}
	return table
}

// LoadFile reads a taxonomy table from YAML. Categories present in the file
// replace the built-in ones; the "general" category doubles as the fallback
// for unknown categories.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	var spec fileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse taxonomy yaml: %w", err)
	}
	if len(spec.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no categories", path)
	}
	return build(spec)
}

func build(spec fileSpec) (*Table, error) {
	table := &Table{categories: make(map[string]domain.Taxonomy, len(spec.Categories))}
	for name, cat := range spec.Categories {
		if len(cat.Primary) == 0 && len(cat.Secondary) == 0 {
			return nil, fmt.Errorf("taxonomy category %q has no keyword sets", name)
		}
		table.categories[name] = domain.Taxonomy{
			Category:          name,
			PrimaryKeywords:   cat.Primary,
			SecondaryKeywords: cat.Secondary,
			DefaultPrimary:    cat.DefaultPrimary,
			DefaultSecondary:  cat.DefaultSecondary,
		}
	}
	if general, ok := table.categories["general"]; ok {
		table.fallback = general
	} else {
		for _, taxonomy := range table.categories {
			table.fallback = taxonomy
			break
		}
	}
	return table, nil
}

// Lookup resolves a case category, falling back to the general table for
// unknown categories so classification always has keywords to work with.
func (t *Table) Lookup(caseCategory string) domain.Taxonomy {
	if taxonomy, ok := t.categories[caseCategory]; ok {
		return taxonomy
	}
	return t.fallback
}

func defaultSpec() fileSpec {
	return fileSpec{Categories: map[string]categorySpec{
		"general": {
			Primary: map[string][]string{
				"correspondence":  {"dear", "sincerely", "regards", "email", "letter", "re:"},
				"contract":        {"agreement", "party", "parties", "hereby", "terms", "clause", "signature"},
				"log":             {"timestamp", "error", "warn", "debug", "trace", "log"},
				"incident-report": {"incident", "report", "occurred", "witness", "statement"},
				"media":           {"photo", "image", "recording", "video", "audio"},
			},
			Secondary: map[string][]string{
				"case-law":          {"plaintiff", "defendant", "court", "appeal", "judgment", "v.", "ruling"},
				"statute":           {"statute", "section", "subsection", "act", "regulation", "code", "§"},
				"scholarly-article": {"abstract", "journal", "doi", "et al", "bibliography", "university"},
			},
			DefaultPrimary:   "document",
			DefaultSecondary: "reference",
		},
		"employment": {
			Primary: map[string][]string{
				"correspondence":  {"dear", "hr", "manager", "email", "letter"},
				"contract":        {"employment agreement", "salary", "termination", "notice period", "employer", "employee"},
				"payslip":         {"gross pay", "net pay", "deductions", "payroll"},
				"incident-report": {"incident", "grievance", "complaint", "disciplinary"},
			},
			Secondary: map[string][]string{
				"case-law": {"tribunal", "unfair dismissal", "plaintiff", "defendant", "judgment"},
				"statute":  {"employment act", "labor code", "section", "regulation"},
			},
			DefaultPrimary:   "document",
			DefaultSecondary: "reference",
		},
	}}
}
