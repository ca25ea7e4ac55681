package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseward/evidence-intake/internal/core/domain"
	"github.com/caseward/evidence-intake/internal/core/ports"
)

// Config tunes the intake queue. Zero values fall back to defaults.
type Config struct {
	// Workers caps how many items may execute pipeline work at once.
	Workers int
	// SummarizerTimeout bounds a single summarizer call.
	SummarizerTimeout time.Duration
	// PersistTimeout bounds a single persist/index call.
	PersistTimeout time.Duration
	// StageRetryBackoff is the fixed delay before the single retry granted to
	// a timed-out summarizer or persist call.
	StageRetryBackoff time.Duration
	// SummaryMaxChars caps the synopsis length.
	SummaryMaxChars int
	// LowConfidenceThreshold marks classifications below it as degraded.
	LowConfidenceThreshold float64
	// ResolveCategory maps a case id to its taxonomy category. Defaults to a
	// constant "general" category when unset.
	ResolveCategory func(caseID string) string
}

func (c Config) normalize() Config {
	out := c
	if out.Workers <= 0 {
		out.Workers = 3
	}
	if out.SummarizerTimeout <= 0 {
		out.SummarizerTimeout = 15 * time.Second
	}
	if out.PersistTimeout <= 0 {
		out.PersistTimeout = 10 * time.Second
	}
	if out.StageRetryBackoff <= 0 {
		out.StageRetryBackoff = 250 * time.Millisecond
	}
	if out.SummaryMaxChars <= 0 {
		out.SummaryMaxChars = 400
	}
	if out.LowConfidenceThreshold <= 0 {
		out.LowConfidenceThreshold = 0.55
	}
	if out.ResolveCategory == nil {
		out.ResolveCategory = func(string) string { return "general" }
	}
	return out
}

// Dependencies are the collaborators the queue drives. Classifier, Extractor
// and Sampler are required; the rest may be nil and are skipped.
type Dependencies struct {
	Sampler    ports.ContentSampler
	Classifier ports.EvidenceClassifier
	Extractor  ports.MetadataExtractor
	Summarizer ports.Summarizer
	Sink       ports.EvidenceSink
	Storage    ports.ObjectStorage
	Events     []ports.TransitionSink
	Observer   Observer
	Logger     *slog.Logger
}

// Observer receives queue lifecycle signals for metrics.
type Observer interface {
	ItemStarted(queueLag time.Duration)
	ItemFinished(state domain.ItemState, duration time.Duration)
	BacklogDepth(depth int)
}

type entry struct {
	item      domain.QueueItem
	content   []byte
	hints     domain.UploadHints
	cancelled bool
}

// Queue owns every QueueItem and is their sole mutator. Workers pull from a
// FIFO backlog under a single lock, so items start in submission order and at
// most Config.Workers items hold a worker at any instant.
type Queue struct {
	cfg  Config
	deps Dependencies

	mu      sync.Mutex
	cond    *sync.Cond
	items   map[string]*entry
	backlog []string
	byCase  map[string][]string
	closed  bool

	subMu  sync.Mutex
	subs   map[int]chan domain.Transition
	nextID int

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfg Config, deps Dependencies) *Queue {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:       cfg.normalize(),
		deps:      deps,
		items:     make(map[string]*entry),
		byCase:    make(map[string][]string),
		subs:      make(map[int]chan domain.Transition),
		runCtx:    runCtx,
		runCancel: runCancel,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker pool. Call exactly once.
func (q *Queue) Start() {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Submit appends one item per input to the backlog in the given order. It
// fails only on malformed batches; pipeline failures surface asynchronously
// via Status and the transition stream. An empty batch is a no-op.
func (q *Queue) Submit(_ context.Context, caseID string, batch []domain.SubmitInput) ([]string, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("empty case id"))
	}
	for i, input := range batch {
		if strings.TrimSpace(input.Filename) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("item %d: empty filename", i))
		}
	}
	if len(batch) == 0 {
		return []string{}, nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, domain.WrapError(domain.ErrQueueClosed, "submit batch", fmt.Errorf("case %s", caseID))
	}
	now := time.Now().UTC()
	ids := make([]string, 0, len(batch))
	for _, input := range batch {
		id := uuid.NewString()
		q.items[id] = &entry{
			item: domain.QueueItem{
				ID:        id,
				CaseID:    caseID,
				Filename:  input.Filename,
				State:     domain.StateQueued,
				Progress:  domain.ProgressQueued,
				CreatedAt: now,
				UpdatedAt: now,
			},
			content: input.Content,
			hints:   input.Hints,
		}
		q.backlog = append(q.backlog, id)
		q.byCase[caseID] = append(q.byCase[caseID], id)
		ids = append(ids, id)
	}
	depth := len(q.backlog)
	q.mu.Unlock()

	if q.deps.Observer != nil {
		q.deps.Observer.BacklogDepth(depth)
	}
	q.cond.Broadcast()
	return ids, nil
}

// Cancel removes a queued item from the backlog or marks an in-flight item
// for abandonment after its current stage. Returns false for unknown or
// already-terminal items.
func (q *Queue) Cancel(itemID string) bool {
	q.mu.Lock()
	ent, ok := q.items[itemID]
	if !ok || ent.item.State.Terminal() || ent.cancelled {
		q.mu.Unlock()
		return false
	}
	ent.cancelled = true
	var tr *domain.Transition
	if ent.item.State == domain.StateQueued {
		q.removeFromBacklog(itemID)
		tr = q.markErrorLocked(ent, domain.ReasonCancelled, "cancelled before processing")
	}
	q.mu.Unlock()

	if tr != nil {
		q.emit(*tr)
	}
	return true
}

// Status returns a consistent snapshot over one case's items. Items appear in
// submission order.
func (q *Queue) Status(caseID string) domain.CaseStatus {
	q.mu.Lock()
	ids := q.byCase[caseID]
	items := make([]domain.QueueItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, cloneItem(q.items[id].item))
	}
	q.mu.Unlock()
	return domain.CountsFor(caseID, items)
}

func (q *Queue) GetItem(itemID string) (domain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ent, ok := q.items[itemID]
	if !ok {
		return domain.QueueItem{}, domain.WrapError(domain.ErrItemNotFound, "get item", fmt.Errorf("id %s", itemID))
	}
	return cloneItem(ent.item), nil
}

// Shutdown stops intake, lets in-flight items drain until ctx expires, then
// aborts the rest. Remaining non-terminal items are marked with a shutdown
// reason so callers can resubmit.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var graceErr error
	select {
	case <-done:
	case <-ctx.Done():
		graceErr = ctx.Err()
		q.runCancel()
		<-done
	}
	q.runCancel()

	transitions := q.abortRemaining()
	for _, tr := range transitions {
		q.emit(tr)
	}
	q.closeSubscribers()
	return graceErr
}

func (q *Queue) abortRemaining() []domain.Transition {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Transition
	for _, ent := range q.items {
		if ent.item.State.Terminal() {
			continue
		}
		if tr := q.markErrorLocked(ent, domain.ReasonShutdownAbort, "queue shut down before completion"); tr != nil {
			out = append(out, *tr)
		}
	}
	q.backlog = nil
	return out
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		ent, tr := q.next()
		if ent == nil {
			return
		}
		q.emit(*tr)
		q.runPipeline(ent)
	}
}

// next blocks until an item is available or the queue closes. The pop and the
// transition to processing happen under one lock so no two workers can claim
// the same item and start order follows the backlog.
func (q *Queue) next() (*entry, *domain.Transition) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.backlog) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, nil
	}
	id := q.backlog[0]
	q.backlog = q.backlog[1:]
	ent := q.items[id]
	tr := q.transitionLocked(ent, domain.StateProcessing, nil)
	if q.deps.Observer != nil {
		q.deps.Observer.ItemStarted(time.Since(ent.item.CreatedAt))
		q.deps.Observer.BacklogDepth(len(q.backlog))
	}
	return ent, tr
}

func (q *Queue) removeFromBacklog(itemID string) {
	for i, id := range q.backlog {
		if id == itemID {
			q.backlog = append(q.backlog[:i], q.backlog[i+1:]...)
			return
		}
	}
}

// transitionLocked applies a validated state change plus its progress
// checkpoint. Callers hold q.mu. Returns nil if the transition is illegal.
func (q *Queue) transitionLocked(ent *entry, next domain.ItemState, mutate func(*domain.QueueItem)) *domain.Transition {
	if !ent.item.State.CanTransition(next) {
		return nil
	}
	old := ent.item.State
	ent.item.State = next
	if mutate != nil {
		mutate(&ent.item)
	}
	if p := progressFor(next); p > ent.item.Progress && next != domain.StateError {
		ent.item.Progress = p
	}
	ent.item.UpdatedAt = time.Now().UTC()
	if next.Terminal() {
		ent.content = nil
	}
	return &domain.Transition{
		ItemID:   ent.item.ID,
		CaseID:   ent.item.CaseID,
		OldState: old,
		NewState: next,
		Progress: ent.item.Progress,
		At:       ent.item.UpdatedAt,
	}
}

func (q *Queue) markErrorLocked(ent *entry, reason domain.ErrorReason, message string) *domain.Transition {
	return q.transitionLocked(ent, domain.StateError, func(item *domain.QueueItem) {
		item.ErrorReason = reason
		item.ErrorMessage = message
	})
}

func progressFor(state domain.ItemState) int {
	switch state {
	case domain.StateClassified:
		return domain.ProgressClassified
	case domain.StateSummarizing:
		return domain.ProgressSummarizing
	case domain.StateIndexed:
		return domain.ProgressIndexed
	case domain.StateComplete:
		return domain.ProgressComplete
	default:
		return 0
	}
}

func cloneItem(item domain.QueueItem) domain.QueueItem {
	out := item
	if item.Classification != nil {
		cls := *item.Classification
		out.Classification = &cls
	}
	if item.Metadata != nil {
		meta := make(domain.Metadata, len(item.Metadata))
		for k, v := range item.Metadata {
			meta[k] = v
		}
		out.Metadata = meta
	}
	return out
}
