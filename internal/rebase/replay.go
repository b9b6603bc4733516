package rebase

import (
	"context"
	"errors"
	"fmt"

	"rebasepr.dev/rebasepr/internal/forge"
)

// ReplayOptions configures how the replay engine creates new commits and
// names its scratch references.
type ReplayOptions struct {
	// Committer is attached to every commit the engine creates. Each
	// commit's Author is copied from its source commit unchanged.
	Committer forge.Identity

	// TempRefPrefix namespaces the scratch branches the engine creates
	// while coercing the forge's three-way merge primitive into producing
	// merge trees. It must be unique per rebase run; the caller is
	// responsible for making that true (e.g. by including the PR number
	// and a timestamp).
	TempRefPrefix string

	// Cancel, if non-nil, is polled between plan items. A ready channel
	// aborts the replay with ErrCancelled once the in-flight item (if any)
	// finishes.
	Cancel <-chan struct{}

	// Progress, if non-nil, is called around each plan item so a caller can
	// render progress. It is called with StatusRunning before the item
	// starts and with StatusDone or StatusFailed after it finishes.
	Progress func(ProgressUpdate)
}

// ProgressUpdate reports the state of one plan item during replay.
type ProgressUpdate struct {
	Index  int
	Total  int
	Item   ReplayItem
	Status ProgressStatus
	Err    error
}

// ProgressStatus is the lifecycle state of a plan item being replayed.
type ProgressStatus int

const (
	StatusRunning ProgressStatus = iota
	StatusDone
	StatusFailed
)

// Replay executes plan against baseSha using client's three-way merge
// primitive, returning the final cursor: the sha of the rewritten branch's
// new tip. It creates and deletes temporary references under
// opts.TempRefPrefix as it goes; no user-visible reference is touched.
//
// The plan must start with a Pick item (BuildPlan already guarantees this).
// On any error the partially-created commits and any not-yet-deleted
// temporary references are abandoned; they are harmless if leaked.
func Replay(ctx context.Context, client forge.Client, baseSha forge.CommitID, plan Plan, opts ReplayOptions) (forge.CommitID, error) {
	cursor := baseSha
	// lastPickID/lastPickParent always identify the Pick a Fixup/Squash
	// should fold into, because BuildPlan places every directive directly
	// after its anchor: nothing else is replayed in between.
	var lastPickID forge.CommitID
	var lastPickParent forge.CommitID

	report := func(update ProgressUpdate) {
		if opts.Progress != nil {
			opts.Progress(update)
		}
	}

	for i, item := range plan.Items {
		if err := checkCancelled(opts.Cancel); err != nil {
			return "", err
		}

		report(ProgressUpdate{Index: i, Total: len(plan.Items), Item: item, Status: StatusRunning})

		message := item.Message
		if item.Action != Pick {
			message = plan.Items[item.Anchor].Message
		}

		newCursor, newLastPickID, newLastPickParent, err := replayItem(ctx, client, cursor, lastPickID, lastPickParent, item, message, i, opts)
		if err != nil {
			report(ProgressUpdate{Index: i, Total: len(plan.Items), Item: item, Status: StatusFailed, Err: err})
			return "", err
		}

		cursor, lastPickID, lastPickParent = newCursor, newLastPickID, newLastPickParent
		report(ProgressUpdate{Index: i, Total: len(plan.Items), Item: item, Status: StatusDone})
	}

	return cursor, nil
}

// replayItem applies a single plan item on top of cursor and returns the
// updated cursor, lastPickID, and lastPickParent.
func replayItem(ctx context.Context, client forge.Client, cursor, lastPickID, lastPickParent forge.CommitID, item ReplayItem, message string, index int, opts ReplayOptions) (forge.CommitID, forge.CommitID, forge.CommitID, error) {
	tempRef := fmt.Sprintf("%s/%d", opts.TempRefPrefix, index)

	mergedTree, err := mergeOntoCursor(ctx, client, cursor, item.Source, tempRef)
	if err != nil {
		return "", "", "", err
	}

	switch item.Action {
	case Pick:
		sourceCommit, err := client.GetCommit(ctx, item.Source)
		if err != nil {
			return "", "", "", fmt.Errorf("read source commit %s: %w", item.Source, err)
		}

		newID, err := client.CreateCommit(ctx, forge.NewCommit{
			Tree:      mergedTree,
			Parents:   []forge.CommitID{cursor},
			Message:   message,
			Author:    sourceCommit.Author,
			Committer: opts.Committer,
		})
		if err != nil {
			return "", "", "", fmt.Errorf("create commit for %s: %w", item.Source, err)
		}

		return newID, newID, cursor, nil

	case Fixup, Squash:
		if lastPickID == "" {
			return "", "", "", &AutosquashUnresolvedError{Source: item.Source, Subject: item.Subject}
		}

		lastCommit, err := client.GetCommit(ctx, lastPickID)
		if err != nil {
			return "", "", "", fmt.Errorf("read rewritten commit %s: %w", lastPickID, err)
		}

		newID, err := client.CreateCommit(ctx, forge.NewCommit{
			Tree:      mergedTree,
			Parents:   []forge.CommitID{lastPickParent},
			Message:   message,
			Author:    lastCommit.Author,
			Committer: opts.Committer,
		})
		if err != nil {
			return "", "", "", fmt.Errorf("rewrite commit %s for %s: %w", lastPickID, item.Action, err)
		}

		return newID, newID, lastPickParent, nil
	}

	return "", "", "", fmt.Errorf("unknown action %v", item.Action)
}

// mergeOntoCursor applies source on top of cursor via the forge's three-way
// merge primitive: it stages cursor at a temporary branch, merges source
// into it, reads the resulting tree, and tears the branch down again
// regardless of outcome.
func mergeOntoCursor(ctx context.Context, client forge.Client, cursor, source forge.CommitID, tempRef string) (string, error) {
	if err := client.CreateTemporaryReference(ctx, tempRef, cursor); err != nil {
		return "", fmt.Errorf("create temporary reference %s: %w", tempRef, err)
	}
	defer func() { _ = client.DeleteReference(ctx, tempRef) }()

	mergedSha, err := client.MergeThreeWay(ctx, cursor, source, tempRef)
	if err != nil {
		var conflict *forge.MergeConflictError
		if errors.As(err, &conflict) {
			return "", &MergeConflictError{Source: conflict.Source}
		}
		return "", fmt.Errorf("merge %s onto %s: %w", source, cursor, err)
	}

	merged, err := client.GetCommit(ctx, mergedSha)
	if err != nil {
		return "", fmt.Errorf("read merge result %s: %w", mergedSha, err)
	}
	return merged.Tree, nil
}

func checkCancelled(cancel <-chan struct{}) error {
	if cancel == nil {
		return nil
	}
	select {
	case <-cancel:
		return ErrCancelled
	default:
		return nil
	}
}
