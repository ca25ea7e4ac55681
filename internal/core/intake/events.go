package intake

import (
	"context"
	"time"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

const subscriberBuffer = 64

// Subscribe returns a buffered transition channel plus a cancel function.
// A subscriber that stops draining loses events rather than stalling the
// pipeline; Status remains the lossless view.
func (q *Queue) Subscribe() (<-chan domain.Transition, func()) {
	q.subMu.Lock()
	id := q.nextID
	q.nextID++
	ch := make(chan domain.Transition, subscriberBuffer)
	q.subs[id] = ch
	q.subMu.Unlock()

	cancel := func() {
		q.subMu.Lock()
		if existing, ok := q.subs[id]; ok {
			delete(q.subs, id)
			close(existing)
		}
		q.subMu.Unlock()
	}
	return ch, cancel
}

// emit fans a transition out to in-process subscribers and configured sinks.
// Runs outside q.mu on the goroutine that performed the transition.
func (q *Queue) emit(tr domain.Transition) {
	q.subMu.Lock()
	for _, ch := range q.subs {
		select {
		case ch <- tr:
		default:
		}
	}
	q.subMu.Unlock()

	for _, sink := range q.deps.Events {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := sink.PublishTransition(ctx, tr); err != nil {
			q.deps.Logger.Warn("transition sink publish failed",
				"item_id", tr.ItemID,
				"new_state", string(tr.NewState),
				"error", err,
			)
		}
		cancel()
	}
}

func (q *Queue) closeSubscribers() {
	q.subMu.Lock()
	for id, ch := range q.subs {
		delete(q.subs, id)
		close(ch)
	}
	q.subMu.Unlock()
}
