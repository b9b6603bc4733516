// Package forgetest provides an in-memory fake of forge.Client for unit
// tests of the rebase engine. It never touches the network.
package forgetest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rebasepr.dev/rebasepr/internal/errors"
	"rebasepr.dev/rebasepr/internal/forge"
)

// Fake is an in-memory forge.Client backed by a content-addressed commit
// store and a ref map. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	commits map[forge.CommitID]forge.Commit
	refs    map[string]forge.CommitID
	prs     map[int]forge.PullRequest

	// Conflicts marks commit ids that MergeThreeWay should refuse to merge.
	Conflicts map[forge.CommitID]bool

	// ForceUpdateFails, if set, makes UpdateReference fail every non-force
	// update, as the real GitHub API does for a non-fast-forward push.
	ForceUpdateFails bool
}

// New returns an empty Fake with no commits, refs, or pull requests.
func New() *Fake {
	return &Fake{
		commits:   make(map[forge.CommitID]forge.Commit),
		refs:      make(map[string]forge.CommitID),
		prs:       make(map[int]forge.PullRequest),
		Conflicts: make(map[forge.CommitID]bool),
	}
}

// PutCommit records an existing commit, keyed by its own ID, without going
// through CreateCommit's id assignment. Use it to seed history that predates
// the test.
func (f *Fake) PutCommit(c forge.Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[c.ID] = c
}

// SetRef points ref directly at sha, bypassing CAS checks.
func (f *Fake) SetRef(ref string, sha forge.CommitID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[ref] = sha
}

// PutPullRequest registers pr for later GetPullRequest calls.
func (f *Fake) PutPullRequest(pr forge.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prs[pr.Number] = pr
}

// Ref returns the sha a ref currently points at, for assertions.
func (f *Fake) Ref(ref string) forge.CommitID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[ref]
}

// Commit returns the stored commit for id, for assertions.
func (f *Fake) Commit(id forge.CommitID) (forge.Commit, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[id]
	return c, ok
}

func (f *Fake) GetPullRequest(_ context.Context, number int) (forge.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.prs[number]
	if !ok {
		return forge.PullRequest{}, errors.NewNotFoundError("pull request", fmt.Sprintf("%d", number))
	}
	return pr, nil
}

func (f *Fake) GetReferenceSha(_ context.Context, ref string) (forge.CommitID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.refs[ref]
	if !ok {
		return "", errors.NewNotFoundError("reference", ref)
	}
	return sha, nil
}

// ListCommitsBetween walks parent links from head back to base, exclusive of
// base, and returns them oldest first. It follows first-parent only, which is
// sufficient for the linear PR histories these tests construct; any merge
// commit found within the range fails the way GitHub's compare endpoint data
// would once the engine rejects it.
func (f *Fake) ListCommitsBetween(_ context.Context, base, head forge.CommitID) ([]forge.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var walked []forge.Commit
	cursor := head
	for cursor != base {
		c, ok := f.commits[cursor]
		if !ok {
			return nil, errors.NewNotFoundError("commit", string(cursor))
		}
		walked = append(walked, c)
		if len(c.Parents) == 0 {
			return nil, fmt.Errorf("commit %s has no parent and never reaches base %s", cursor, base)
		}
		cursor = c.Parents[0]
	}

	result := make([]forge.Commit, len(walked))
	for i, c := range walked {
		result[len(walked)-1-i] = c
	}
	return result, nil
}

func (f *Fake) GetCommit(_ context.Context, id forge.CommitID) (forge.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[id]
	if !ok {
		return forge.Commit{}, errors.NewNotFoundError("commit", string(id))
	}
	return c, nil
}

func (f *Fake) CreateCommit(_ context.Context, nc forge.NewCommit) (forge.CommitID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.hashID("commit", nc.Message, nc.Tree, parentsKey(nc.Parents))
	f.commits[id] = forge.Commit{
		ID:        id,
		Parents:   nc.Parents,
		Tree:      nc.Tree,
		Message:   nc.Message,
		Author:    nc.Author,
		Committer: nc.Committer,
	}
	return id, nil
}

// MergeThreeWay synthesizes a merge tree as the union of base and head's
// trees, each modeled as a set of change tokens rather than real file
// content. Real forges compute a merge from file content; the fake only
// needs a model where merging a change into a tree that already contains it
// is a no-op, which set union gives for free and lets idempotence tests pass
// without a real diff/patch implementation.
func (f *Fake) MergeThreeWay(_ context.Context, base, head forge.CommitID, branchName string) (forge.CommitID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Conflicts[head] {
		return "", &forge.MergeConflictError{Source: head}
	}

	baseCommit, ok := f.commits[base]
	if !ok {
		return "", errors.NewNotFoundError("commit", string(base))
	}
	headCommit, ok := f.commits[head]
	if !ok {
		return "", errors.NewNotFoundError("commit", string(head))
	}

	mergedTree := unionTree(baseCommit.Tree, headCommit.Tree)
	if mergedTree == baseCommit.Tree {
		// head's changes are already present in base; GitHub returns 204
		// and leaves base unchanged.
		return base, nil
	}

	id := f.hashID("merge", base, head, mergedTree)
	f.commits[id] = forge.Commit{
		ID:      id,
		Parents: []forge.CommitID{base, head},
		Tree:    mergedTree,
		Message: "Merge " + string(head) + " into " + branchName,
	}
	return id, nil
}

func (f *Fake) CreateTemporaryReference(_ context.Context, name string, sha forge.CommitID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.refs[name]; exists {
		return errors.ErrRefConflict
	}
	f.refs[name] = sha
	return nil
}

func (f *Fake) DeleteReference(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refs, name)
	return nil
}

func (f *Fake) UpdateReference(_ context.Context, ref string, sha forge.CommitID, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.refs[ref]
	if !force && f.ForceUpdateFails {
		return errors.NewRefUpdateError(ref, string(sha), string(current), errors.ErrNonFastForward)
	}
	f.refs[ref] = sha
	return nil
}

func (f *Fake) hashID(parts ...interface{}) forge.CommitID {
	h := sha1.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(fmt.Sprintf("%v", p)))
		_, _ = h.Write([]byte{0})
	}
	return forge.CommitID(hex.EncodeToString(h.Sum(nil)))
}

func parentsKey(parents []forge.CommitID) string {
	strs := make([]string, len(parents))
	for i, p := range parents {
		strs[i] = string(p)
	}
	return strings.Join(strs, ",")
}

// unionTree treats a and b as "+"-separated sets of change tokens and
// returns their sorted union, also "+"-separated.
func unionTree(a, b string) string {
	set := make(map[string]bool)
	for _, t := range strings.Split(a, "+") {
		if t != "" {
			set[t] = true
		}
	}
	for _, t := range strings.Split(b, "+") {
		if t != "" {
			set[t] = true
		}
	}
	tokens := make([]string, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "+")
}
