package rebase

import (
	"errors"
	"fmt"

	"rebasepr.dev/rebasepr/internal/forge"
)

// Sentinel errors the engine returns for each failure mode in the design's
// error table. Use errors.Is to check for these; MergeConflictError and
// HeadChangedError carry additional context and support errors.As.
var (
	// ErrUnsupportedHistory is returned when the feature range contains a merge commit.
	ErrUnsupportedHistory = errors.New("unsupported history: feature range contains a merge commit")

	// ErrAutosquashUnresolved is returned when a fixup!/squash! directive has
	// no matching anchor, or the plan begins with a non-Pick item.
	ErrAutosquashUnresolved = errors.New("autosquash directive has no resolvable anchor")

	// ErrCancelled is returned when the cooperative cancellation signal fires
	// between plan items.
	ErrCancelled = errors.New("rebase cancelled")
)

// MergeConflictError is returned when the forge's three-way merge primitive
// could not merge a source commit cleanly. Source identifies the offending
// commit; the head reference is guaranteed untouched.
type MergeConflictError struct {
	Source forge.CommitID
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict applying %s", e.Source)
}

// HeadChangedError is returned when the final compare-and-swap observes a
// head reference sha different from the one witnessed at the start of the
// rebase, meaning some other actor pushed to the branch concurrently.
type HeadChangedError struct {
	Ref      string
	Expected forge.CommitID
	Observed forge.CommitID
}

func (e *HeadChangedError) Error() string {
	return fmt.Sprintf("head changed: %s was %s, expected %s", e.Ref, e.Observed, e.Expected)
}

// AutosquashUnresolvedError names the directive that could not be anchored.
type AutosquashUnresolvedError struct {
	Source  forge.CommitID
	Subject string
}

func (e *AutosquashUnresolvedError) Error() string {
	return fmt.Sprintf("no anchor found for %q (commit %s)", e.Subject, e.Source)
}

func (e *AutosquashUnresolvedError) Is(target error) bool {
	return target == ErrAutosquashUnresolved
}

// UnsupportedHistoryError names the merge commit that blocked the rebase.
type UnsupportedHistoryError struct {
	Commit forge.CommitID
}

func (e *UnsupportedHistoryError) Error() string {
	return fmt.Sprintf("commit %s is a merge commit; only linear histories can be rebased", e.Commit)
}

func (e *UnsupportedHistoryError) Is(target error) bool {
	return target == ErrUnsupportedHistory
}
