// Package repoutil provides utility functions for working with GitHub and
// GitLab repository slugs and URLs. The orchestrator uses the URL parsers
// to resolve a project's GitHub/GitLab link when it has no identifier.
package repoutil

import (
	"fmt"
	"strings"
)

// SplitRepoSlug splits a repository slug (owner/repo) into owner and repo parts.
// Returns an error if the slug format is invalid.
func SplitRepoSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format: %s", slug)
	}
	return parts[0], parts[1], nil
}

// ParseGitHubRepoURL extracts the owner and repo from a GitHub repository URL.
// Handles both SSH (git@github.com:owner/repo.git) and HTTPS (https://github.com/owner/repo.git) formats.
func ParseGitHubRepoURL(url string) (owner, repo string, err error) {
	return parseHostRepoURL(url, "git@github.com:", "github.com/")
}

// ParseGitLabRepoURL extracts the owner (group) and repo (project) from a
// GitLab project URL, accepting the same SSH/HTTPS shapes as
// ParseGitHubRepoURL but against gitlab.com. A path with nested GitLab
// subgroups (more than two segments) is rejected with an error, per
// SplitRepoSlug's two-part contract.
func ParseGitLabRepoURL(url string) (owner, repo string, err error) {
	return parseHostRepoURL(url, "git@gitlab.com:", "gitlab.com/")
}

func parseHostRepoURL(url, sshPrefix, httpsMarker string) (owner, repo string, err error) {
	var repoPath string

	switch {
	case strings.HasPrefix(url, sshPrefix):
		repoPath = strings.TrimPrefix(url, sshPrefix)
	case strings.Contains(url, httpsMarker):
		parts := strings.SplitN(url, httpsMarker, 2)
		if len(parts) < 2 {
			return "", "", fmt.Errorf("URL does not appear to be a repository URL: %s", url)
		}
		repoPath = parts[1]
	default:
		return "", "", fmt.Errorf("URL does not appear to be a repository URL: %s", url)
	}

	repoPath = strings.TrimSuffix(repoPath, ".git")
	return SplitRepoSlug(repoPath)
}

// SanitizeForFilename converts a repository or project slug (owner/repo)
// to a filename-safe string for use in workspace and error-preservation
// directory names. Replaces "/" with "-". Returns "workspace" if the slug
// is empty.
func SanitizeForFilename(slug string) string {
	if slug == "" {
		return "workspace"
	}
	return strings.ReplaceAll(slug, "/", "-")
}
