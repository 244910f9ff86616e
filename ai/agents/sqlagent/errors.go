package sqlagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/wealthsense/store"
)

// Step errors fed back to the model. They never end the loop on their own.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrNoSQL        = errors.New("no SQL statement found in response")
	ErrNotReadOnly  = errors.New("statement is not a single read-only query")
	ErrUnknownTable = errors.New("table not found")
	ErrInvalidInput = errors.New("invalid tool input")
)

// UnresolvedCause is the cause reported when the round budget runs out.
const UnresolvedCause = "unable to resolve query"

// FailureKind tags why the agent produced no rows.
type FailureKind int

const (
	// FailureUnresolved means the round budget was exhausted.
	FailureUnresolved FailureKind = iota
	// FailureStore means the relational store could not be reached.
	FailureStore
	// FailureCompletion means the language model call failed or the caller gave up.
	FailureCompletion
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case FailureUnresolved:
		return "unresolved"
	case FailureStore:
		return "store"
	case FailureCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// Failure is the terminal outcome of a run that yielded no rows.
type Failure struct {
	Kind  FailureKind
	Cause string
	Err   error
}

func (f *Failure) Error() string {
	return f.Cause
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind FailureKind, err error) *Failure {
	if err == nil {
		return &Failure{Kind: kind, Cause: UnresolvedCause}
	}
	return &Failure{Kind: kind, Cause: err.Error(), Err: err}
}

// ErrorClass says whether a step error can be fed back to the model.
type ErrorClass int

const (
	// ErrorClassRecoverable errors are reported to the model and the loop goes on.
	ErrorClassRecoverable ErrorClass = iota
	// ErrorClassFatal errors end the run.
	ErrorClassFatal
)

// ClassifyStepError decides whether err ends the run. Connectivity failures
// and cancellation are fatal; bad SQL, guard rejections and unknown tools
// are recoverable.
func ClassifyStepError(err error) ErrorClass {
	if err == nil {
		return ErrorClassRecoverable
	}
	if errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassFatal
	}
	return ErrorClassRecoverable
}

// feedback renders a recoverable error as tool output.
func feedback(err error) string {
	return fmt.Sprintf("Error: %v", err)
}
