// Package verify cross-checks a server-side rebase against a local clone.
// It never drives the rebase itself; it is a read-only sanity check a CI
// job can run after the fact by fetching the rewritten branch and comparing
// it against what a local `git rebase --autosquash` would have produced.
package verify

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"rebasepr.dev/rebasepr/internal/forge"
)

// Repository wraps a go-git repository opened read-only for verification.
type Repository struct {
	repo *git.Repository
}

// Open opens the git repository at path. It does not clone or fetch;
// callers are responsible for the clone existing and having the relevant
// refs fetched already.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}
	return &Repository{repo: repo}, nil
}

// Subjects returns the oneline subjects of the commits reachable from ref
// but not from base, oldest first, by walking first-parent links in the
// local object store. It mirrors forge.Client.ListCommitsBetween's ordering
// so a caller can diff the two lists directly.
func (r *Repository) Subjects(base, ref string) ([]string, error) {
	commits, err := r.commitsBetween(base, ref)
	if err != nil {
		return nil, err
	}
	subjects := make([]string, len(commits))
	for i, c := range commits {
		subjects[i] = strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
	}
	return subjects, nil
}

// Trees returns the tree hash of each commit reachable from ref but not
// from base, oldest first. Comparing these against the trees the forge
// produced confirms the rebase reproduced the same file content, not just
// the same commit messages.
func (r *Repository) Trees(base, ref string) ([]string, error) {
	commits, err := r.commitsBetween(base, ref)
	if err != nil {
		return nil, err
	}
	trees := make([]string, len(commits))
	for i, c := range commits {
		trees[i] = c.TreeHash.String()
	}
	return trees, nil
}

func (r *Repository) commitsBetween(base, ref string) ([]*object.Commit, error) {
	headHash, err := r.resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	var baseHash plumbing.Hash
	if base != "" {
		baseHash, err = r.resolve(base)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", base, err)
		}
	}

	head, err := r.repo.CommitObject(headHash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", headHash, err)
	}

	var walked []*object.Commit
	cursor := head
	for cursor.Hash != baseHash {
		walked = append(walked, cursor)
		if cursor.NumParents() == 0 {
			break
		}
		cursor, err = cursor.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("walk parent of %s: %w", cursor.Hash, err)
		}
	}

	result := make([]*object.Commit, len(walked))
	for i, c := range walked {
		result[len(walked)-1-i] = c
	}
	return result, nil
}

func (r *Repository) resolve(ref string) (plumbing.Hash, error) {
	if plumbing.IsHash(ref) {
		return plumbing.NewHash(ref), nil
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *h, nil
}

// MatchesPlan reports whether the local repository's subjects for base..ref
// match the Pick subjects the rebase engine's plan produced, in order. It
// is meant for integration tests that rebase against a real GitHub repo and
// then clone the result to confirm the API-driven rebase and a local
// autosquash rebase agree.
func MatchesPlan(r *Repository, base, ref string, wantSubjects []string) (bool, error) {
	got, err := r.Subjects(base, ref)
	if err != nil {
		return false, err
	}
	if len(got) != len(wantSubjects) {
		return false, nil
	}
	for i := range got {
		if got[i] != wantSubjects[i] {
			return false, nil
		}
	}
	return true, nil
}

// HeadSha returns the local repository's current sha for ref, as a
// forge.CommitID so callers can compare it directly against a forge
// client's view of the same branch.
func (r *Repository) HeadSha(ref string) (forge.CommitID, error) {
	h, err := r.resolve(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	return forge.CommitID(h.String()), nil
}
