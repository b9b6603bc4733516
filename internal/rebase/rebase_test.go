package rebase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rebasepr.dev/rebasepr/internal/forge"
	"rebasepr.dev/rebasepr/internal/forge/forgetest"
)

var testCommitter = forge.Identity{Name: "bot", Email: "bot@example.com", When: time.Unix(0, 0)}

// seedChain creates a linear chain of commits on top of base, one per message
// in messages, and returns their ids oldest first. Each commit's tree is its
// parent's tree plus a token unique to that message, matching the set model
// the fake's MergeThreeWay uses so that rebasing a commit back onto content
// it's already built on reproduces the same tree.
func seedChain(t *testing.T, f *forgetest.Fake, base forge.CommitID, messages ...string) []forge.CommitID {
	t.Helper()
	ctx := context.Background()
	cursor := base
	ids := make([]forge.CommitID, 0, len(messages))
	for i, msg := range messages {
		baseCommit, _ := f.Commit(cursor)
		id, err := f.CreateCommit(ctx, forge.NewCommit{
			Tree:      baseCommit.Tree + "+" + msg,
			Parents:   []forge.CommitID{cursor},
			Message:   msg,
			Author:    forge.Identity{Name: "dev", Email: "dev@example.com", When: time.Unix(int64(i), 0)},
			Committer: forge.Identity{Name: "dev", Email: "dev@example.com", When: time.Unix(int64(i), 0)},
		})
		require.NoError(t, err)
		ids = append(ids, id)
		cursor = id
	}
	return ids
}

func seedBase(t *testing.T, f *forgetest.Fake) forge.CommitID {
	t.Helper()
	id, err := f.CreateCommit(context.Background(), forge.NewCommit{
		Tree:    "root",
		Message: "base",
	})
	require.NoError(t, err)
	return id
}

func TestRebase_Nominal(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 42, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	newHead, err := Rebase(context.Background(), f, 42, Options{Committer: testCommitter})
	require.NoError(t, err)
	require.NotEqual(t, head, newHead)
	require.Equal(t, newHead, f.Ref("refs/heads/feature"))

	newCommit, ok := f.Commit(newHead)
	require.True(t, ok)
	require.Equal(t, "feature two", newCommit.Message)
	sourceTwo, ok := f.Commit(commits[1])
	require.True(t, ok)
	require.Equal(t, sourceTwo.Author, newCommit.Author)

	parent, ok := f.Commit(newCommit.Parents[0])
	require.True(t, ok)
	require.Equal(t, "feature one", parent.Message)
	require.Equal(t, []forge.CommitID{base}, parent.Parents)
	sourceOne, ok := f.Commit(commits[0])
	require.True(t, ok)
	require.Equal(t, sourceOne.Author, parent.Author)
}

func TestRebase_Autosquash(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "fixup! feature one", "feature two", "squash! feature two\n\nextra detail")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 7, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	newHead, err := Rebase(context.Background(), f, 7, Options{Committer: testCommitter})
	require.NoError(t, err)

	final, ok := f.Commit(newHead)
	require.True(t, ok)
	require.Contains(t, final.Message, "feature two")
	require.Contains(t, final.Message, "extra detail")

	parent, ok := f.Commit(final.Parents[0])
	require.True(t, ok)
	require.Equal(t, "feature one", parent.Message)
	require.Equal(t, []forge.CommitID{base}, parent.Parents)
}

// TestRebase_AutosquashNonContiguousOrder exercises the case where both
// directives trail both of their targets instead of immediately following
// them. Replay folds each directive into the most recently replayed Pick,
// so the fixup only lands on "feature one" instead of "feature two" because
// BuildPlan first moves each directive next to its anchor.
func TestRebase_AutosquashNonContiguousOrder(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two", "fixup! feature one", "squash! feature two\n\nextra detail")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 13, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	newHead, err := Rebase(context.Background(), f, 13, Options{Committer: testCommitter})
	require.NoError(t, err)

	final, ok := f.Commit(newHead)
	require.True(t, ok)
	require.Contains(t, final.Message, "feature two")
	require.Contains(t, final.Message, "extra detail")

	parent, ok := f.Commit(final.Parents[0])
	require.True(t, ok)
	require.Equal(t, "feature one", parent.Message)
	require.Equal(t, []forge.CommitID{base}, parent.Parents)
	require.Contains(t, parent.Tree, "fixup! feature one")
}

func TestRebase_MergeConflict(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two")
	head := commits[len(commits)-1]
	f.Conflicts[commits[1]] = true

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 3, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	_, err := Rebase(context.Background(), f, 3, Options{Committer: testCommitter})
	require.Error(t, err)

	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, commits[1], conflict.Source)

	require.Equal(t, head, f.Ref("refs/heads/feature"))
}

func TestRebase_HeadChangedDuringRebase(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 9, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	racingPush := seedChain(t, f, head, "pushed while rebasing")[0]

	_, err := Rebase(context.Background(), f, 9, Options{
		Committer: testCommitter,
		Intercept: func() { f.SetRef("refs/heads/feature", racingPush) },
	})
	require.Error(t, err)

	var changed *HeadChangedError
	require.ErrorAs(t, err, &changed)
	require.Equal(t, head, changed.Expected)
	require.Equal(t, racingPush, changed.Observed)

	require.Equal(t, racingPush, f.Ref("refs/heads/feature"))
}

func TestRebase_Cancelled(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two", "feature three")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 11, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	cancel := make(chan struct{})
	close(cancel)

	_, err := Rebase(context.Background(), f, 11, Options{Committer: testCommitter, Cancel: cancel})
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, head, f.Ref("refs/heads/feature"))
}

func TestRebase_AlreadyUpToDateIsIdempotent(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	commits := seedChain(t, f, base, "feature one", "feature two")
	head := commits[len(commits)-1]

	f.SetRef("refs/heads/base", base)
	f.SetRef("refs/heads/feature", head)
	f.PutPullRequest(forge.PullRequest{
		Number: 21, HeadRef: "refs/heads/feature", HeadSha: head,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	firstHead, err := Rebase(context.Background(), f, 21, Options{Committer: testCommitter})
	require.NoError(t, err)

	f.PutPullRequest(forge.PullRequest{
		Number: 21, HeadRef: "refs/heads/feature", HeadSha: firstHead,
		BaseRef: "refs/heads/base", BaseSha: base,
	})

	secondHead, err := Rebase(context.Background(), f, 21, Options{Committer: testCommitter})
	require.NoError(t, err)
	require.Equal(t, firstHead, secondHead)
}

func TestNeedAutosquashing(t *testing.T) {
	ctx := context.Background()

	t.Run("no directives", func(t *testing.T) {
		f := forgetest.New()
		base := seedBase(t, f)
		commits := seedChain(t, f, base, "feature one", "feature two")
		head := commits[len(commits)-1]
		f.PutPullRequest(forge.PullRequest{Number: 1, BaseSha: base, HeadSha: head})

		need, err := NeedAutosquashing(ctx, f, 1)
		require.NoError(t, err)
		require.False(t, need)
	})

	t.Run("has a fixup", func(t *testing.T) {
		f := forgetest.New()
		base := seedBase(t, f)
		commits := seedChain(t, f, base, "feature one", "fixup! feature one")
		head := commits[len(commits)-1]
		f.PutPullRequest(forge.PullRequest{Number: 2, BaseSha: base, HeadSha: head})

		need, err := NeedAutosquashing(ctx, f, 2)
		require.NoError(t, err)
		require.True(t, need)
	})
}
