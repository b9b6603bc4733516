package rebase

import (
	"context"
	"fmt"

	"rebasepr.dev/rebasepr/internal/forge"
)

// NeedAutosquashing reports whether rebasing pr would actually fold any
// commits: true iff any commit in its range has a subject beginning with
// "fixup! " or "squash! " followed by a non-empty target subject. It reuses
// the range resolver but never writes anything.
func NeedAutosquashing(ctx context.Context, client forge.Client, prNumber int) (bool, error) {
	r, err := ResolveRange(ctx, client, prNumber)
	if err != nil {
		return false, fmt.Errorf("check autosquash for PR #%d: %w", prNumber, err)
	}

	for _, c := range r.Commits {
		subject := c.Subject()
		if _, _, ok := parseDirective(subject); ok {
			return true, nil
		}
	}
	return false, nil
}
