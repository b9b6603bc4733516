// Package errors provides sentinel errors and custom error types shared by
// the forge client and rebase engine. Use errors.Is() and errors.As() to
// check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by a forge.Client implementation. The rebase
// engine treats all of these as pass-through transport errors.
var (
	// ErrNotFound indicates the requested object or reference does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller's credentials do not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNonFastForward indicates a reference update was rejected because the
	// proposed tip is not a fast-forward of (or does not match) the current tip.
	ErrNonFastForward = errors.New("non-fast-forward update")

	// ErrRefConflict indicates a reference create/delete collided with existing state.
	ErrRefConflict = errors.New("reference conflict")
)

// NotFoundError represents a missing commit, reference, or pull request.
type NotFoundError struct {
	Kind string // "commit", "reference", "pull request"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is returns true if the target error is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// RefUpdateError represents a rejected reference update, carrying the sha
// the caller expected and the sha the forge actually observed.
type RefUpdateError struct {
	Ref      string
	Expected string
	Observed string
	Err      error
}

func (e *RefUpdateError) Error() string {
	return fmt.Sprintf("update of %s rejected (expected %s, observed %s): %v", e.Ref, e.Expected, e.Observed, e.Err)
}

func (e *RefUpdateError) Unwrap() error {
	return e.Err
}

// NewRefUpdateError creates a new RefUpdateError.
func NewRefUpdateError(ref, expected, observed string, err error) *RefUpdateError {
	return &RefUpdateError{Ref: ref, Expected: expected, Observed: observed, Err: err}
}
