package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

// runPipeline drives one item through classify -> extract -> summarize ->
// persist. Every failure is confined to this item; other workers and the
// backlog are untouched.
func (q *Queue) runPipeline(ent *entry) {
	started := time.Now()

	if err := q.storeStage(ent); err != nil {
		q.failItem(ent, domain.ReasonStageFailure, err)
		q.finish(ent, started)
		return
	}

	sample, classification, metadata, err := q.classifyStage(ent)
	if err != nil {
		q.failItem(ent, domain.ReasonStageFailure, err)
		q.finish(ent, started)
		return
	}
	if !q.advance(ent, domain.StateClassified, func(it *domain.QueueItem) {
		cls := classification
		it.Classification = &cls
		it.LowConfidence = classification.Confidence < q.cfg.LowConfidenceThreshold
	}) {
		q.finish(ent, started)
		return
	}
	if !q.advance(ent, domain.StateSummarizing, func(it *domain.QueueItem) {
		it.Metadata = metadata
	}) {
		q.finish(ent, started)
		return
	}

	summary, err := q.summarizeStage(sample)
	if err != nil {
		reason := domain.ReasonStageFailure
		if isTimeout(err) {
			reason = domain.ReasonStageTimeout
		}
		q.failItem(ent, reason, err)
		q.finish(ent, started)
		return
	}
	if !q.advance(ent, domain.StateIndexed, func(it *domain.QueueItem) {
		it.Summary = summary
	}) {
		q.finish(ent, started)
		return
	}

	objectID, err := q.persistStage(ent)
	if err != nil {
		reason := domain.ReasonStageFailure
		if isTimeout(err) {
			reason = domain.ReasonStageTimeout
		}
		q.failItem(ent, reason, err)
		q.finish(ent, started)
		return
	}
	q.advance(ent, domain.StateComplete, func(it *domain.QueueItem) {
		it.ObjectID = objectID
	})
	q.finish(ent, started)
}

// storeStage writes the raw upload bytes to object storage so the original
// evidence survives the in-memory queue. Skipped when no storage is wired.
func (q *Queue) storeStage(ent *entry) error {
	if q.deps.Storage == nil {
		return nil
	}
	key := fmt.Sprintf("%s_%s", ent.item.ID, sanitizeFilename(ent.item.Filename))
	ctx, cancel := context.WithTimeout(q.runCtx, q.cfg.PersistTimeout)
	defer cancel()
	if err := q.deps.Storage.Save(ctx, key, bytes.NewReader(ent.content)); err != nil {
		return fmt.Errorf("store raw evidence: %w", err)
	}
	q.mu.Lock()
	ent.item.StoragePath = key
	q.mu.Unlock()
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "evidence.bin"
	}
	return base
}

// classifyStage builds the bounded text sample, runs the pure classifier and
// the structural extractor. The classifier and extractor never fail; only an
// undecodable payload does.
func (q *Queue) classifyStage(ent *entry) (string, domain.Classification, domain.Metadata, error) {
	sample, err := q.deps.Sampler.Sample(ent.item.Filename, ent.content)
	if err != nil {
		return "", domain.Classification{}, nil, fmt.Errorf("sample content: %w", err)
	}
	category := q.cfg.ResolveCategory(ent.item.CaseID)
	classification := q.deps.Classifier.Classify(category, sample, ent.item.Filename, ent.hints)
	metadata := q.deps.Extractor.Extract(ent.content)
	return sample, classification, metadata, nil
}

// summarizeStage calls the pluggable summarizer under a timeout. A timed-out
// call gets exactly one retry after a short fixed backoff; a second timeout
// fails the item. A summarizer error that is not a timeout degrades to a
// deterministic truncated-prefix fallback instead of failing the item.
func (q *Queue) summarizeStage(sample string) (string, error) {
	if q.deps.Summarizer == nil {
		return fallbackSummary(sample, q.cfg.SummaryMaxChars), nil
	}

	summary, err := q.summarizeOnce(sample)
	if err == nil {
		return summary, nil
	}
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	if !isTimeout(err) {
		q.deps.Logger.Warn("summarizer degraded to fallback", "error", err)
		return fallbackSummary(sample, q.cfg.SummaryMaxChars), nil
	}

	q.deps.Logger.Warn("summarizer timeout, retrying once", "error", err)
	if !q.sleep(q.cfg.StageRetryBackoff) {
		return "", err
	}
	summary, retryErr := q.summarizeOnce(sample)
	if retryErr == nil {
		return summary, nil
	}
	if errors.Is(retryErr, context.Canceled) {
		return "", retryErr
	}
	if !isTimeout(retryErr) {
		q.deps.Logger.Warn("summarizer degraded to fallback", "error", retryErr)
		return fallbackSummary(sample, q.cfg.SummaryMaxChars), nil
	}
	return "", fmt.Errorf("summarize: %w", retryErr)
}

func (q *Queue) summarizeOnce(sample string) (string, error) {
	ctx, cancel := context.WithTimeout(q.runCtx, q.cfg.SummarizerTimeout)
	defer cancel()
	return q.deps.Summarizer.Summarize(ctx, sample, q.cfg.SummaryMaxChars)
}

// persistStage hands the finished item to the storage/index sink. One retry
// on timeout, none on hard failure.
func (q *Queue) persistStage(ent *entry) (string, error) {
	if q.deps.Sink == nil {
		return ent.item.ID, nil
	}

	snapshot := q.snapshot(ent)
	objectID, err := q.persistOnce(snapshot)
	if err == nil {
		return objectID, nil
	}
	if !isTimeout(err) {
		return "", fmt.Errorf("persist evidence: %w", err)
	}

	q.deps.Logger.Warn("persist timeout, retrying once", "error", err)
	if !q.sleep(q.cfg.StageRetryBackoff) {
		return "", err
	}
	objectID, err = q.persistOnce(snapshot)
	if err != nil {
		return "", fmt.Errorf("persist evidence: %w", err)
	}
	return objectID, nil
}

func (q *Queue) persistOnce(item domain.QueueItem) (string, error) {
	ctx, cancel := context.WithTimeout(q.runCtx, q.cfg.PersistTimeout)
	defer cancel()
	return q.deps.Sink.Persist(ctx, item)
}

// advance applies a forward transition unless the item was cancelled while
// the stage ran. Returns false when the item is now terminal.
func (q *Queue) advance(ent *entry, next domain.ItemState, mutate func(*domain.QueueItem)) bool {
	q.mu.Lock()
	if ent.cancelled {
		tr := q.markErrorLocked(ent, domain.ReasonCancelled, "cancelled while processing")
		q.mu.Unlock()
		if tr != nil {
			q.emit(*tr)
		}
		return false
	}
	tr := q.transitionLocked(ent, next, mutate)
	q.mu.Unlock()
	if tr == nil {
		return false
	}
	q.emit(*tr)
	return true
}

func (q *Queue) failItem(ent *entry, reason domain.ErrorReason, err error) {
	if q.shuttingDown() && errors.Is(err, context.Canceled) {
		reason = domain.ReasonShutdownAbort
	}
	q.mu.Lock()
	if ent.cancelled {
		reason = domain.ReasonCancelled
	}
	tr := q.markErrorLocked(ent, reason, errorMessage(err))
	q.mu.Unlock()
	if tr != nil {
		q.emit(*tr)
	}
	q.deps.Logger.Error("pipeline item failed",
		"item_id", ent.item.ID,
		"case_id", ent.item.CaseID,
		"reason", string(reason),
		"error", err,
	)
}

func (q *Queue) finish(ent *entry, started time.Time) {
	if q.deps.Observer == nil {
		return
	}
	q.mu.Lock()
	state := ent.item.State
	q.mu.Unlock()
	q.deps.Observer.ItemFinished(state, time.Since(started))
}

func (q *Queue) snapshot(ent *entry) domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneItem(ent.item)
}

func (q *Queue) shuttingDown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// sleep waits for the retry backoff unless the queue is being torn down.
func (q *Queue) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-q.runCtx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// errorMessage keeps item errors short and free of internal detail.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func fallbackSummary(sample string, maxChars int) string {
	runes := []rune(sample)
	if len(runes) <= maxChars {
		return sample
	}
	return string(runes[:maxChars])
}
