package verify

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initRepoWithCommits(t *testing.T, messages ...string) (*git.Repository, string, []string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)}

	shas := make([]string, len(messages))
	for i, msg := range messages {
		name := dir + "/file.txt"
		require.NoError(t, os.WriteFile(name, []byte(msg), 0o644))
		_, err := wt.Add("file.txt")
		require.NoError(t, err)

		h, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		shas[i] = h.String()
	}

	return repo, dir, shas
}

func TestRepository_SubjectsAndTrees(t *testing.T) {
	_, dir, shas := initRepoWithCommits(t, "first", "second", "third")

	r, err := Open(dir)
	require.NoError(t, err)

	subjects, err := r.Subjects(shas[0], shas[2])
	require.NoError(t, err)
	require.Equal(t, []string{"second", "third"}, subjects)

	trees, err := r.Trees(shas[0], shas[2])
	require.NoError(t, err)
	require.Len(t, trees, 2)
}

func TestRepository_HeadSha(t *testing.T) {
	_, dir, shas := initRepoWithCommits(t, "only")

	r, err := Open(dir)
	require.NoError(t, err)

	sha, err := r.HeadSha(shas[0])
	require.NoError(t, err)
	require.Equal(t, shas[0], string(sha))
}

func TestMatchesPlan(t *testing.T) {
	_, dir, shas := initRepoWithCommits(t, "base", "feature one", "feature two")

	r, err := Open(dir)
	require.NoError(t, err)

	ok, err := MatchesPlan(r, shas[0], shas[2], []string{"feature one", "feature two"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = MatchesPlan(r, shas[0], shas[2], []string{"feature one"})
	require.NoError(t, err)
	require.False(t, ok)
}
