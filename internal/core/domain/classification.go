package domain

// EvidenceClass separates party-supplied case material from externally
// sourced research material.
type EvidenceClass string

const (
	ClassPrimary   EvidenceClass = "primary"
	ClassSecondary EvidenceClass = "secondary"
)

// Classification is the classifier verdict. Class, SubType and Confidence are
// always set together; a QueueItem either carries a full classification or
// none at all.
type Classification struct {
	Class      EvidenceClass `json:"class"`
	SubType    string        `json:"sub_type"`
	Confidence float64       `json:"confidence"`
}

// Metadata holds structural facts extracted from evidence content. Fields
// that could not be parsed are simply absent from the map.
type Metadata map[string]any

const (
	MetaLength       = "length"
	MetaLineCount    = "line_count"
	MetaWordCount    = "word_count"
	MetaDates        = "detected_dates"
	MetaHeaderFields = "detected_header_fields"
	MetaParties      = "detected_parties"
)
