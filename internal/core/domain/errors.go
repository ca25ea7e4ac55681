package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound = errors.New("queue item not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrQueueClosed  = errors.New("intake queue closed")
	ErrTemporary    = errors.New("temporary failure")
)

// ErrorReason distinguishes why an item reached the error state.
type ErrorReason string

const (
	ReasonStageTimeout  ErrorReason = "stage_timeout"
	ReasonStageFailure  ErrorReason = "stage_failure"
	ReasonShutdownAbort ErrorReason = "shutdown_abort"
	ReasonCancelled     ErrorReason = "cancelled"
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
