package forge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"

	rebaseerrors "rebasepr.dev/rebasepr/internal/errors"
)

// githubClient implements Client against the real GitHub REST API via
// google/go-github. Construct one with NewGitHubClient.
type githubClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubClient wraps an already-authenticated go-github client so it
// satisfies the Client interface the rebase engine depends on.
func NewGitHubClient(client *github.Client, owner, repo string) Client {
	return &githubClient{client: client, owner: owner, repo: repo}
}

func (g *githubClient) GetPullRequest(ctx context.Context, number int) (PullRequest, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		if isNotFound(resp) {
			return PullRequest{}, rebaseerrors.NewNotFoundError("pull request", fmt.Sprintf("%d", number))
		}
		return PullRequest{}, fmt.Errorf("get pull request #%d: %w", number, err)
	}

	return PullRequest{
		Number:  number,
		HeadRef: pr.GetHead().GetRef(),
		HeadSha: CommitID(pr.GetHead().GetSHA()),
		BaseRef: pr.GetBase().GetRef(),
		BaseSha: CommitID(pr.GetBase().GetSHA()),
	}, nil
}

func (g *githubClient) GetReferenceSha(ctx context.Context, ref string) (CommitID, error) {
	r, resp, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "refs/heads/"+ref)
	if err != nil {
		if isNotFound(resp) {
			return "", rebaseerrors.NewNotFoundError("reference", ref)
		}
		return "", fmt.Errorf("get reference %s: %w", ref, err)
	}
	return CommitID(r.GetObject().GetSHA()), nil
}

func (g *githubClient) ListCommitsBetween(ctx context.Context, base, head CommitID) ([]Commit, error) {
	cmp, _, err := g.client.Repositories.CompareCommits(ctx, g.owner, g.repo, string(base), string(head), nil)
	if err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, err)
	}

	commits := make([]Commit, 0, len(cmp.Commits))
	for _, rc := range cmp.Commits {
		commits = append(commits, repositoryCommitToCommit(rc))
	}
	return commits, nil
}

func (g *githubClient) GetCommit(ctx context.Context, id CommitID) (Commit, error) {
	c, resp, err := g.client.Git.GetCommit(ctx, g.owner, g.repo, string(id))
	if err != nil {
		if isNotFound(resp) {
			return Commit{}, rebaseerrors.NewNotFoundError("commit", string(id))
		}
		return Commit{}, fmt.Errorf("get commit %s: %w", id, err)
	}
	return gitCommitToCommit(id, c), nil
}

func (g *githubClient) CreateCommit(ctx context.Context, nc NewCommit) (CommitID, error) {
	parents := make([]*github.Commit, len(nc.Parents))
	for i, p := range nc.Parents {
		sha := string(p)
		parents[i] = &github.Commit{SHA: &sha}
	}

	commit := &github.Commit{
		Message: &nc.Message,
		Tree:    &github.Tree{SHA: &nc.Tree},
		Parents: parents,
		Author:  identityToCommitAuthor(nc.Author),
		Committer: identityToCommitAuthor(nc.Committer),
	}

	created, _, err := g.client.Git.CreateCommit(ctx, g.owner, g.repo, commit, nil)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return CommitID(created.GetSHA()), nil
}

func (g *githubClient) MergeThreeWay(ctx context.Context, base, head CommitID, branchName string) (CommitID, error) {
	headStr := string(head)
	baseStr := branchName
	msg := fmt.Sprintf("merge %s into %s", head, branchName)

	merged, resp, err := g.client.Repositories.Merge(ctx, g.owner, g.repo, &github.RepositoryMergeRequest{
		Base:          &baseStr,
		Head:          &headStr,
		CommitMessage: &msg,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return "", &MergeConflictError{Source: head}
		}
		return "", fmt.Errorf("merge %s onto %s: %w", head, branchName, err)
	}

	if resp != nil && resp.StatusCode == http.StatusNoContent {
		// Base already contains head; no new commit was created.
		return base, nil
	}

	return CommitID(merged.GetSHA()), nil
}

func (g *githubClient) CreateTemporaryReference(ctx context.Context, name string, sha CommitID) error {
	shaStr := string(sha)
	ref := "refs/heads/" + name
	_, resp, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    &ref,
		Object: &github.GitObject{SHA: &shaStr},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return rebaseerrors.ErrRefConflict
		}
		return fmt.Errorf("create temporary reference %s: %w", name, err)
	}
	return nil
}

func (g *githubClient) DeleteReference(ctx context.Context, name string) error {
	_, err := g.client.Git.DeleteRef(ctx, g.owner, g.repo, "refs/heads/"+name)
	if err != nil {
		return fmt.Errorf("delete reference %s: %w", name, err)
	}
	return nil
}

func (g *githubClient) UpdateReference(ctx context.Context, ref string, sha CommitID, force bool) error {
	shaStr := string(sha)
	refName := "refs/heads/" + ref
	_, resp, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    &refName,
		Object: &github.GitObject{SHA: &shaStr},
	}, force)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict) {
			return rebaseerrors.NewRefUpdateError(ref, string(sha), "", rebaseerrors.ErrNonFastForward)
		}
		return fmt.Errorf("update reference %s: %w", ref, err)
	}
	return nil
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

func identityToCommitAuthor(id Identity) *github.CommitAuthor {
	name, email, when := id.Name, id.Email, id.When
	return &github.CommitAuthor{Name: &name, Email: &email, Date: &github.Timestamp{Time: when}}
}

func repositoryCommitToCommit(rc *github.RepositoryCommit) Commit {
	return gitCommitToCommit(CommitID(rc.GetSHA()), rc.GetCommit())
}

func gitCommitToCommit(id CommitID, c *github.Commit) Commit {
	parents := make([]CommitID, len(c.Parents))
	for i, p := range c.Parents {
		parents[i] = CommitID(p.GetSHA())
	}

	return Commit{
		ID:        id,
		Parents:   parents,
		Tree:      c.GetTree().GetSHA(),
		Message:   c.GetMessage(),
		Author:    commitAuthorToIdentity(c.GetAuthor()),
		Committer: commitAuthorToIdentity(c.GetCommitter()),
	}
}

func commitAuthorToIdentity(a *github.CommitAuthor) Identity {
	if a == nil {
		return Identity{}
	}
	return Identity{Name: a.GetName(), Email: a.GetEmail(), When: a.GetDate().Time}
}
