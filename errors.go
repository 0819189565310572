package featherquery

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Client, Query or Mutation.
	ErrClosed = errors.New("featherquery: closed")
	// ErrSuperseded is returned by Mutate when a newer call replaced it.
	ErrSuperseded = errors.New("featherquery: superseded by a newer request")
	// ErrNilProducer is returned when a Query or Mutation has no function to run.
	ErrNilProducer = errors.New("featherquery: nil producer")
	// ErrNoPage is returned when there is no next or previous page to fetch.
	ErrNoPage = errors.New("featherquery: no page to fetch")
)

// ProducerError wraps a failed producer call of a Query.
type ProducerError struct {
	Key string
	ID  uint64
	Err error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("featherquery: fetch %s (request %d): %v", e.Key, e.ID, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// MutationError reports a mutation that failed after every retry.
// InvalidateErr is set when the mutation succeeded but clearing
// InvalidateKeys failed; in that case Err is nil.
type MutationError struct {
	Attempts      int
	Err           error
	InvalidateErr error
}

func (e *MutationError) Error() string {
	switch {
	case e.Err != nil && e.InvalidateErr != nil:
		return fmt.Sprintf("featherquery: mutation failed after %d attempt(s): %v; invalidate: %v",
			e.Attempts, e.Err, e.InvalidateErr)
	case e.Err != nil:
		return fmt.Sprintf("featherquery: mutation failed after %d attempt(s): %v", e.Attempts, e.Err)
	case e.InvalidateErr != nil:
		return fmt.Sprintf("featherquery: mutation invalidate failed: %v", e.InvalidateErr)
	default:
		return "featherquery: mutation: unknown error"
	}
}

func (e *MutationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.InvalidateErr != nil {
		errs = append(errs, e.InvalidateErr)
	}
	return errs
}
