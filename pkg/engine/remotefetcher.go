package engine

import "context"

// githubFileFetcher adapts registry.GitHub.GetFileContents's (*string,
// error) return to condition.RemoteFileFetcher's ([]byte, error).
type githubFileFetcher struct {
	client interface {
		GetFileContents(ctx context.Context, org, repo, path string) (*string, error)
	}
}

func (f githubFileFetcher) GetFileContents(ctx context.Context, org, repo, path string) ([]byte, error) {
	s, err := f.client.GetFileContents(ctx, org, repo, path)
	if err != nil || s == nil {
		return nil, err
	}
	return []byte(*s), nil
}

// NewGitHubFileFetcher adapts a registry.GitHub client for use as a
// condition.RemoteFileFetcher.
func NewGitHubFileFetcher(client interface {
	GetFileContents(ctx context.Context, org, repo, path string) (*string, error)
}) githubFileFetcher {
	return githubFileFetcher{client: client}
}

// gitlabFileFetcher adapts registry.GitLab's namespaced-path file
// lookup to condition.RemoteFileFetcher's (owner, repo, path) shape,
// joining owner/repo back into "owner/repo" the way
// remoteCoordinates split it.
type gitlabFileFetcher struct {
	client interface {
		GetFileContents(ctx context.Context, namespacedPath, path string) (*string, error)
	}
}

func (f gitlabFileFetcher) GetFileContents(ctx context.Context, owner, repo, path string) ([]byte, error) {
	namespacedPath := owner
	if repo != "" {
		namespacedPath = owner + "/" + repo
	}
	s, err := f.client.GetFileContents(ctx, namespacedPath, path)
	if err != nil || s == nil {
		return nil, err
	}
	return []byte(*s), nil
}

// NewGitLabFileFetcher adapts a registry.GitLab client for use as a
// condition.RemoteFileFetcher.
func NewGitLabFileFetcher(client interface {
	GetFileContents(ctx context.Context, namespacedPath, path string) (*string, error)
}) gitlabFileFetcher {
	return gitlabFileFetcher{client: client}
}
