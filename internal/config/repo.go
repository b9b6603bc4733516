// Package config resolves the ambient configuration a rebase run needs:
// which forge host, repository, and credentials to use, and the defaults
// that govern the engine's temporary-reference namespace.
package config

import (
	"fmt"
	"os"
	"strings"
)

// RepoInfo identifies a repository on a forge host.
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseGitHubRemoteURL parses a git remote URL and extracts hostname, owner,
// and repo. Supports both github.com and GitHub Enterprise URLs:
//
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - https://github.company.com/owner/repo.git
func ParseGitHubRemoteURL(remoteURL string) (*RepoInfo, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	var hostname, owner, repo string

	if strings.Contains(remoteURL, "@") {
		parts := strings.SplitN(remoteURL, "@", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid SSH remote URL format")
		}

		hostAndPath := parts[1]

		var path string
		if strings.Contains(hostAndPath, ":") {
			hostPathParts := strings.SplitN(hostAndPath, ":", 2)
			hostname = hostPathParts[0]
			path = hostPathParts[1]
		} else {
			pathParts := strings.SplitN(hostAndPath, "/", 2)
			if len(pathParts) < 2 {
				return nil, fmt.Errorf("invalid SSH remote URL: missing path")
			}
			hostname = pathParts[0]
			path = pathParts[1]
		}

		pathParts := strings.Split(path, "/")
		if len(pathParts) < 2 {
			return nil, fmt.Errorf("invalid SSH remote URL: path must be owner/repo")
		}
		owner = pathParts[0]
		repo = pathParts[len(pathParts)-1]
	} else {
		remoteURL = strings.TrimPrefix(remoteURL, "https://")
		remoteURL = strings.TrimPrefix(remoteURL, "http://")

		parts := strings.Split(remoteURL, "/")
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid HTTPS remote URL: must be protocol://hostname/owner/repo")
		}

		hostname = parts[0]
		owner = parts[len(parts)-2]
		repo = parts[len(parts)-1]
	}

	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse hostname, owner, or repo from remote URL")
	}

	return &RepoInfo{Hostname: hostname, Owner: owner, Repo: repo}, nil
}

// Token resolves a GitHub token from the environment. It checks
// REBASEPR_GITHUB_TOKEN first, then the GITHUB_TOKEN variable set by most CI
// runners and the gh CLI.
func Token() (string, error) {
	for _, name := range []string{"REBASEPR_GITHUB_TOKEN", "GITHUB_TOKEN"} {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("no GitHub token found: set REBASEPR_GITHUB_TOKEN or GITHUB_TOKEN")
}

// RepoFromEnv resolves owner/repo from REBASEPR_REPO ("owner/repo") or from
// GITHUB_REPOSITORY, and the hostname from REBASEPR_HOSTNAME, falling back
// to github.com. A spec with any other number of "/"-separated parts is
// rejected.
func RepoFromEnv() (*RepoInfo, error) {
	hostname := "github.com"
	if h := os.Getenv("REBASEPR_HOSTNAME"); h != "" {
		hostname = h
	}

	spec := os.Getenv("REBASEPR_REPO")
	if spec == "" {
		spec = os.Getenv("GITHUB_REPOSITORY")
	}
	if spec == "" {
		return nil, fmt.Errorf("no repository configured: set REBASEPR_REPO=owner/repo")
	}

	parts := strings.Split(spec, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repository %q: expected owner/repo", spec)
	}

	return &RepoInfo{Hostname: hostname, Owner: parts[0], Repo: parts[1]}, nil
}
