package ports

import (
	"context"
	"io"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// TaxonomySource resolves the expected sub-types and keyword hints for a case
// category. Read-only, versionless.
type TaxonomySource interface {
	Lookup(caseCategory string) domain.Taxonomy
}

// EvidenceClassifier decides primary/secondary and a sub-type from a bounded
// content sample, the filename and upload hints. Pure and deterministic; it
// degrades to a low-confidence default instead of failing.
type EvidenceClassifier interface {
	Classify(caseCategory, sample, filename string, hints domain.UploadHints) domain.Classification
}

// MetadataExtractor produces structural metadata from raw content. Pure,
// bounded-time; unparseable sub-fields are omitted, never an error.
type MetadataExtractor interface {
	Extract(content []byte) domain.Metadata
}

// ContentSampler turns raw upload bytes into a bounded text sample for
// classification and summarization. It fails only on content it cannot
// decode at all (e.g. a corrupt PDF).
type ContentSampler interface {
	Sample(filename string, content []byte) (string, error)
}

// Summarizer produces a short synopsis. Implementations may call out of
// process; the queue invokes them under a timeout and substitutes a
// deterministic fallback when they fail.
type Summarizer interface {
	Summarize(ctx context.Context, content string, maxChars int) (string, error)
}

// EvidenceSink persists a finished item into long-term storage/indexing and
// returns the stored object id.
type EvidenceSink interface {
	Persist(ctx context.Context, item domain.QueueItem) (string, error)
}

// ObjectStorage stores raw evidence bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TransitionSink receives every item state change, e.g. for publishing to a
// message broker. Sink errors are logged, never propagated into the pipeline.
type TransitionSink interface {
	PublishTransition(ctx context.Context, transition domain.Transition) error
}
