package rebase

import (
	"context"
	"fmt"

	"rebasepr.dev/rebasepr/internal/forge"
)

// CommitRange is the output of resolving a pull request's commit range: the
// base commit the feature commits must land on, the ordered (oldest-first)
// series to replay, and the head sha observed at resolution time. Witness
// becomes the CAS guard handed to the final ref swap.
type CommitRange struct {
	BaseSha  forge.CommitID
	Commits  []forge.Commit
	Witness  forge.CommitID
	HeadRef  string
	BaseRef  string
	PRNumber int
}

// ResolveRange computes the linear list of feature commits to replay for pr,
// and the base commit they must land upon. The feature commits are those
// reachable from the PR's head but not its base, oldest first. A merge
// commit anywhere in that range is rejected with ErrUnsupportedHistory.
func ResolveRange(ctx context.Context, client forge.Client, prNumber int) (CommitRange, error) {
	pr, err := client.GetPullRequest(ctx, prNumber)
	if err != nil {
		return CommitRange{}, fmt.Errorf("resolve commit range for PR #%d: %w", prNumber, err)
	}

	commits, err := client.ListCommitsBetween(ctx, pr.BaseSha, pr.HeadSha)
	if err != nil {
		return CommitRange{}, fmt.Errorf("list commits %s..%s: %w", pr.BaseSha, pr.HeadSha, err)
	}

	for _, c := range commits {
		if len(c.Parents) > 1 {
			return CommitRange{}, &UnsupportedHistoryError{Commit: c.ID}
		}
	}

	return CommitRange{
		BaseSha:  pr.BaseSha,
		Commits:  commits,
		Witness:  pr.HeadSha,
		HeadRef:  pr.HeadRef,
		BaseRef:  pr.BaseRef,
		PRNumber: prNumber,
	}, nil
}
