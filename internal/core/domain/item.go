package domain

import "time"

type ItemState string

const (
	StateQueued      ItemState = "queued"
	StateProcessing  ItemState = "processing"
	StateClassified  ItemState = "classified"
	StateSummarizing ItemState = "summarizing"
	StateIndexed     ItemState = "indexed"
	StateComplete    ItemState = "complete"
	StateError       ItemState = "error"
)

// Progress checkpoints reached on each successful stage transition.
const (
	ProgressQueued      = 0
	ProgressClassified  = 25
	ProgressSummarizing = 50
	ProgressIndexed     = 75
	ProgressComplete    = 100
)

func (s ItemState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// CanTransition reports whether the state machine allows moving from s to next.
// The forward path is queued -> processing -> classified -> summarizing ->
// indexed -> complete; error is reachable from any non-terminal state.
func (s ItemState) CanTransition(next ItemState) bool {
	if s.Terminal() {
		return false
	}
	if next == StateError {
		return true
	}
	switch s {
	case StateQueued:
		return next == StateProcessing
	case StateProcessing:
		return next == StateClassified
	case StateClassified:
		return next == StateSummarizing
	case StateSummarizing:
		return next == StateIndexed
	case StateIndexed:
		return next == StateComplete
	default:
		return false
	}
}

// QueueItem is the unit of work in the intake queue. The queue is its sole
// mutator; everything handed out of the queue is a copy.
type QueueItem struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"case_id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path,omitempty"`
	State       ItemState `json:"state"`
	Progress    int       `json:"progress"`

	Classification *Classification `json:"classification,omitempty"`
	Metadata       Metadata        `json:"metadata,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	LowConfidence  bool            `json:"low_confidence,omitempty"`

	ObjectID     string      `json:"object_id,omitempty"`
	ErrorReason  ErrorReason `json:"error_reason,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitInput is one raw evidence file handed to the queue by the transport
// layer, already read into memory upstream.
type SubmitInput struct {
	Filename string
	Content  []byte
	Hints    UploadHints
}

// UploadHints carries provenance signals captured at upload time.
type UploadHints struct {
	// DirectUpload marks material supplied by the case owner.
	DirectUpload bool
	// SourceURL is set when the item was fetched from an external source.
	SourceURL string
}

// Transition is emitted on every item state change for push-style consumers.
type Transition struct {
	ItemID   string    `json:"item_id"`
	CaseID   string    `json:"case_id"`
	OldState ItemState `json:"old_state"`
	NewState ItemState `json:"new_state"`
	Progress int       `json:"progress"`
	At       time.Time `json:"at"`
}
