package domain

// Taxonomy maps a case category to the keyword hints and sub-types the
// classifier matches against. Loaded once, treated as immutable.
type Taxonomy struct {
	Category          string
	PrimaryKeywords   map[string][]string // sub-type -> keywords
	SecondaryKeywords map[string][]string // sub-type -> keywords
	DefaultPrimary    string
	DefaultSecondary  string
}

// SubTypes lists every sub-type known to this taxonomy, primary first.
func (t Taxonomy) SubTypes() []string {
	out := make([]string, 0, len(t.PrimaryKeywords)+len(t.SecondaryKeywords))
	for subType := range t.PrimaryKeywords {
		out = append(out, subType)
	}
	for subType := range t.SecondaryKeywords {
		out = append(out, subType)
	}
	return out
}
