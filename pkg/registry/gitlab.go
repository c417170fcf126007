package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AWeber-Imbi/imbi-automations/pkg/httpclient"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/ratelimit"
)

// GitLab wraps the GitLab v4 REST API surface the core needs.
type GitLab struct {
	client *httpclient.Client
	log    *logger.Logger
}

// NewGitLab constructs a GitLab client for the given hostname/token.
func NewGitLab(hostname, token string) (*GitLab, error) {
	if hostname == "" {
		hostname = "gitlab.com"
	}
	c, err := httpclient.GetOrCreate("gitlab:"+hostname, func() (*httpclient.Client, error) {
		return httpclient.New(httpclient.Config{
			BaseURL:   "https://" + hostname + "/api/v4",
			RateLimit: ratelimit.OperationGitLabAPI,
			Headers:   map[string]string{"PRIVATE-TOKEN": token},
		})
	})
	if err != nil {
		return nil, err
	}
	return &GitLab{client: c, log: logger.ForComponent("registry:gitlab")}, nil
}

func (g *GitLab) classify(path string, resp *httpclient.Response) error {
	if resp.IsOK() {
		return nil
	}
	body := string(resp.Body)
	switch resp.StatusCode {
	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(body), "rate limit exceeded") {
			g.log.Printf("rate limited: %s", path)
			httpLog.Recoverable("gitlab: rate limited: %s", path)
			return &model.RateLimitError{Host: "gitlab", Path: path}
		}
		g.log.Printf("access denied: %s: %s", path, body)
		httpLog.Recoverable("gitlab: access denied: %s", path)
		return &model.AccessDeniedError{Host: "gitlab", Path: path}
	default:
		return &model.HTTPError{Host: "gitlab", Path: path, StatusCode: resp.StatusCode, Body: body}
	}
}

type gitlabProjectPayload struct {
	ID                int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
	SSHURLToRepo      string `json:"ssh_url_to_repo"`
	HTTPURLToRepo     string `json:"http_url_to_repo"`
}

func (p gitlabProjectPayload) toModel() model.GitLabProject {
	return model.GitLabProject{
		ID:                p.ID,
		PathWithNamespace: p.PathWithNamespace,
		DefaultBranch:     p.DefaultBranch,
		SSHURLToRepo:      p.SSHURLToRepo,
		HTTPURLToRepo:     p.HTTPURLToRepo,
	}
}

// GetFileContents retrieves a file's raw content from a project's
// default branch. A 404 yields (nil, nil).
func (g *GitLab) GetFileContents(ctx context.Context, namespacedPath, path string) (*string, error) {
	apiPath := fmt.Sprintf("/projects/%s/repository/files/%s/raw?ref=HEAD",
		url.PathEscape(namespacedPath), url.PathEscape(path))
	resp, err := g.client.Get(ctx, apiPath, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := g.classify(apiPath, resp); err != nil {
		return nil, err
	}
	s := string(resp.Body)
	return &s, nil
}

// GetProject fetches a project by numeric id. A 404 yields (nil, nil).
func (g *GitLab) GetProject(ctx context.Context, id int) (*model.GitLabProject, error) {
	path := fmt.Sprintf("/projects/%d", id)
	return g.fetch(ctx, path)
}

// GetProjectByPath fetches a project by its url-encoded
// namespace/project path. A 404 yields (nil, nil).
func (g *GitLab) GetProjectByPath(ctx context.Context, namespacedPath string) (*model.GitLabProject, error) {
	path := fmt.Sprintf("/projects/%s", url.PathEscape(namespacedPath))
	return g.fetch(ctx, path)
}

func (g *GitLab) fetch(ctx context.Context, path string) (*model.GitLabProject, error) {
	resp, err := g.client.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := g.classify(path, resp); err != nil {
		return nil, err
	}
	var payload gitlabProjectPayload
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode gitlab project %s: %w", path, err)
	}
	proj := payload.toModel()
	return &proj, nil
}
