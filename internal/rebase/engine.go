package rebase

import (
	"context"
	"fmt"
	"time"

	"rebasepr.dev/rebasepr/internal/forge"
)

// Options configures a call to Rebase. All fields are optional; callers
// normally just pass a Committer identity and let everything else default.
type Options struct {
	// Committer is attached to every commit the engine creates. Defaults to
	// the zero Identity, which most forges replace with the authenticated
	// API caller's identity.
	Committer forge.Identity

	// Cancel, if non-nil, is polled between plan items; see ReplayOptions.Cancel.
	Cancel <-chan struct{}

	// Intercept is invoked once, after replay completes and before the
	// final CAS re-read. It exists only for deterministic tests of
	// race-loss against a concurrently moving head; production callers
	// must leave it nil.
	Intercept func()

	// TempRefNamespace overrides the branch-name prefix used for the
	// engine's scratch references. Defaults to "temp/rebase".
	TempRefNamespace string

	// Progress, if non-nil, receives a ProgressUpdate around each plan item.
	Progress func(ProgressUpdate)
}

// Rebase performs a server-side rebase of pr's head branch onto the current
// tip of its base branch, reproducing `git rebase --autosquash` through
// calls on client alone. On success it returns the new head sha, which has
// already been written to the PR's head reference. On any failure the head
// reference is left exactly as it was when Rebase was called.
//
// Rebase and everything it calls only ever return errors; they never log.
// That's left to the caller, so the same engine can drive a human-facing
// CLI or a machine-facing CI check without double-reporting a failure.
func Rebase(ctx context.Context, client forge.Client, prNumber int, opts Options) (forge.CommitID, error) {
	r, err := ResolveRange(ctx, client, prNumber)
	if err != nil {
		return "", err
	}

	if len(r.Commits) == 0 {
		return r.Witness, nil
	}

	plan, err := BuildPlan(r.Commits)
	if err != nil {
		return "", err
	}

	namespace := opts.TempRefNamespace
	if namespace == "" {
		namespace = "temp/rebase"
	}
	tempPrefix := fmt.Sprintf("%s/%d/%d", namespace, prNumber, time.Now().UnixNano())

	newHead, err := Replay(ctx, client, r.BaseSha, plan, ReplayOptions{
		Committer:     opts.Committer,
		TempRefPrefix: tempPrefix,
		Cancel:        opts.Cancel,
		Progress:      opts.Progress,
	})
	if err != nil {
		return "", err
	}

	result, err := SwapHead(ctx, client, r.HeadRef, newHead, r.Witness, SwapOptions{Intercept: opts.Intercept})
	if err != nil {
		return "", err
	}

	return result, nil
}
