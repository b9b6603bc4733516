package forge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// NewGitHubClientForHost builds a GitHub-backed Client authenticated with
// token. For hostnames other than "github.com" it points the underlying
// go-github client at a GitHub Enterprise instance's API endpoints.
func NewGitHubClientForHost(ctx context.Context, hostname, token, owner, repo string) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	ghClient := github.NewClient(tc)

	if hostname != "github.com" && hostname != "" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("parse upload URL for hostname %s: %w", hostname, err)
		}
		ghClient.BaseURL = baseURL
		ghClient.UploadURL = uploadURL
	}

	return NewGitHubClient(ghClient, owner, repo), nil
}
