package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTranscript rejects blank input. Fatal, never retried.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrNoEmbedder is returned by classifiers that cannot embed text.
	ErrNoEmbedder = errors.New("classifier has no embedder")
)

// RetryableError marks a transient classifier or network failure. The
// call site retries with bounded backoff; on exhaustion the affected
// facet's score is frozen for the round rather than aborting it.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// PersistenceError marks an unavailable store. The analysis pauses; the
// last persisted rotation state remains a valid resumption checkpoint.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
