package ports

import (
	"context"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// EvidenceIntake is the inbound contract for batch submission and cancellation.
type EvidenceIntake interface {
	// Submit validates the batch, appends one item per input to the backlog in
	// the given order and returns the assigned item ids. It never fails for
	// downstream pipeline reasons, only for malformed batches.
	Submit(ctx context.Context, caseID string, batch []domain.SubmitInput) ([]string, error)
	// Cancel removes a queued item from the backlog or marks an in-flight item
	// for best-effort abandonment. Non-blocking; reports whether the item was
	// still cancellable.
	Cancel(itemID string) bool
}

// StatusReader is the inbound read model over the queue's item set.
type StatusReader interface {
	Status(caseID string) domain.CaseStatus
	GetItem(itemID string) (domain.QueueItem, error)
}

// TransitionSource exposes the push-style transition stream for live UIs.
type TransitionSource interface {
	// Subscribe returns a buffered channel of transitions and a cancel
	// function. Events to a saturated subscriber are dropped, not queued.
	Subscribe() (<-chan domain.Transition, func())
}
