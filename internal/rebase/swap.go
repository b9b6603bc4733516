package rebase

import (
	"context"
	"fmt"

	"rebasepr.dev/rebasepr/internal/forge"
)

// SwapOptions configures the final compare-and-swap.
type SwapOptions struct {
	// Intercept, if non-nil, runs once after replay completes and before
	// the final head re-read. It exists solely so tests can simulate a
	// concurrent push landing in the window between replay finishing and
	// the CAS check; production callers leave it nil.
	Intercept func()
}

// SwapHead atomically points headRef at newHead, but only if headRef's
// current sha still equals witness (the sha observed when the rebase
// began). If anything else moved the branch in the meantime, it aborts with
// a *HeadChangedError and leaves headRef untouched.
func SwapHead(ctx context.Context, client forge.Client, headRef string, newHead, witness forge.CommitID, opts SwapOptions) (forge.CommitID, error) {
	if opts.Intercept != nil {
		opts.Intercept()
	}

	observed, err := client.GetReferenceSha(ctx, headRef)
	if err != nil {
		return "", fmt.Errorf("re-read %s before swap: %w", headRef, err)
	}

	if observed != witness {
		return "", &HeadChangedError{Ref: headRef, Expected: witness, Observed: observed}
	}

	if err := client.UpdateReference(ctx, headRef, newHead, true); err != nil {
		return "", fmt.Errorf("update %s to %s: %w", headRef, newHead, err)
	}

	return newHead, nil
}
