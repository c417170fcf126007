// Package registry implements the three external-service clients (C2):
// GitHub, GitLab, and the Imbi project registry. Each wraps the shared
// HTTP client base (C1) and exposes only the operations the workflow
// engine and orchestrator need, classifying errors per spec §4.2/§7.
package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AWeber-Imbi/imbi-automations/pkg/applog"
	"github.com/AWeber-Imbi/imbi-automations/pkg/httpclient"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/ratelimit"
)

// httpLog is shared by every registry client: HTTP transport anomalies
// are pinned to WARN in the default-visible log tier, per spec §7,
// rather than each client carrying its own pinned logger.
var httpLog = applog.ForComponent("http")

// GitHub wraps the GitHub REST API surface the core needs.
type GitHub struct {
	client *httpclient.Client
	log    *logger.Logger
}

// NewGitHub constructs a GitHub client for the given hostname/token,
// memoized process-wide by hostname via httpclient's registry.
func NewGitHub(hostname, token string) (*GitHub, error) {
	c, err := httpclient.GetOrCreate("github:"+hostname, func() (*httpclient.Client, error) {
		base := "https://api.github.com"
		if hostname != "" && hostname != "github.com" {
			base = "https://" + hostname + "/api/v3"
		}
		return httpclient.New(httpclient.Config{
			BaseURL:   base,
			RateLimit: ratelimit.OperationGitHubAPI,
			Headers: map[string]string{
				"Authorization": "Bearer " + token,
				"Accept":        "application/vnd.github+json",
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &GitHub{client: c, log: logger.ForComponent("registry:github")}, nil
}

// classify implements the GitHub error-classification policy of spec
// §4.2/§7: 404 -> (nil, nil) for reads; 403 with a rate-limit body ->
// RateLimitError; 403 otherwise -> AccessDeniedError; any other non-2xx ->
// HTTPError.
func (g *GitHub) classify(path string, resp *httpclient.Response) error {
	if resp.IsOK() {
		return nil
	}
	body := string(resp.Body)
	switch resp.StatusCode {
	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(body), "rate limit exceeded") {
			g.log.Printf("rate limited: %s", path)
			httpLog.Recoverable("github: rate limited: %s", path)
			return &model.RateLimitError{Host: "github", Path: path}
		}
		g.log.Printf("access denied: %s: %s", path, body)
		httpLog.Recoverable("github: access denied: %s", path)
		return &model.AccessDeniedError{Host: "github", Path: path}
	default:
		return &model.HTTPError{Host: "github", Path: path, StatusCode: resp.StatusCode, Body: body}
	}
}

type githubRepoPayload struct {
	ID            int    `json:"id"`
	DefaultBranch string `json:"default_branch"`
	SSHURL        string `json:"ssh_url"`
	CloneURL      string `json:"clone_url"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
	Name string `json:"name"`
}

func (p githubRepoPayload) toModel() model.GitHubRepository {
	return model.GitHubRepository{
		ID:            p.ID,
		Owner:         p.Owner.Login,
		Name:          p.Name,
		DefaultBranch: p.DefaultBranch,
		SSHURL:        p.SSHURL,
		CloneURL:      p.CloneURL,
	}
}

// GetRepository fetches a repository by owner/name. A 404 yields
// (nil, nil); the reference code never treats "repo absent" as an error.
func (g *GitHub) GetRepository(ctx context.Context, org, name string) (*model.GitHubRepository, error) {
	path := fmt.Sprintf("/repos/%s/%s", org, name)
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
	var payload githubRepoPayload
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode repository %s: %w", path, err)
	}
	repo := payload.toModel()
	return &repo, nil
}

// GetRepositoryByID fetches a repository by its numeric id, same error
// policy as GetRepository.
func (g *GitHub) GetRepositoryByID(ctx context.Context, id int) (*model.GitHubRepository, error) {
	path := fmt.Sprintf("/repositories/%d", id)
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
	var payload githubRepoPayload
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode repository %d: %w", id, err)
	}
	repo := payload.toModel()
	return &repo, nil
}

// GetFileContents retrieves and base64-decodes a file's content from the
// default branch. A 404 yields (nil, nil).
func (g *GitHub) GetFileContents(ctx context.Context, org, repo, path string) (*string, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", org, repo, path)
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
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode file contents %s: %w", apiPath, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("registry: base64-decode %s: %w", apiPath, err)
	}
	s := string(decoded)
	return &s, nil
}

// GetLatestWorkflowRun fetches the most recent Actions run for a
// repository (per_page=1), optionally scoped to a branch.
func (g *GitHub) GetLatestWorkflowRun(ctx context.Context, org, repo, branch string) (*model.WorkflowRun, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs?per_page=1", org, repo)
	if branch != "" {
		path += "&branch=" + branch
	}
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
	var payload struct {
		WorkflowRuns []model.WorkflowRun `json:"workflow_runs"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode workflow runs %s: %w", path, err)
	}
	if len(payload.WorkflowRuns) == 0 {
		return nil, nil
	}
	return &payload.WorkflowRuns[0], nil
}

// GetRepositoryWorkflowStatus returns the effective status of the latest
// run (conclusion if completed, else status), used by filter stage 6.
func (g *GitHub) GetRepositoryWorkflowStatus(ctx context.Context, org, repo string) (*string, error) {
	run, err := g.GetLatestWorkflowRun(ctx, org, repo, "")
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}
	status := run.EffectiveStatus()
	return &status, nil
}

// CreatePullRequest opens a PR and returns its HTML URL.
func (g *GitHub) CreatePullRequest(ctx context.Context, org, repo, title, body, head, base string) (string, error) {
	if base == "" {
		base = "main"
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls", org, repo)
	resp, err := g.client.Post(ctx, path, map[string]string{
		"title": title, "body": body, "head": head, "base": base,
	}, nil)
	if err != nil {
		return "", err
	}
	if err := g.classify(path, resp); err != nil {
		return "", err
	}
	var payload struct {
		HTMLURL string `json:"html_url"`
	}
	if err := resp.JSON(&payload); err != nil {
		return "", fmt.Errorf("registry: decode pull request response: %w", err)
	}
	return payload.HTMLURL, nil
}

// SyncProjectEnvironments creates missing and deletes extra deployment
// environments so the repository's set matches desired exactly
// (case-insensitive name comparison).
func (g *GitHub) SyncProjectEnvironments(ctx context.Context, org, repo string, desired []string) (*model.EnvironmentSyncResult, error) {
	listPath := fmt.Sprintf("/repos/%s/%s/environments", org, repo)
	resp, err := g.client.Get(ctx, listPath, nil)
	if err != nil {
		return nil, err
	}
	result := &model.EnvironmentSyncResult{Success: true}
	var existing []string
	if resp.StatusCode != http.StatusNotFound {
		if err := g.classify(listPath, resp); err != nil {
			return nil, err
		}
		var payload struct {
			Environments []struct {
				Name string `json:"name"`
			} `json:"environments"`
		}
		if err := resp.JSON(&payload); err != nil {
			return nil, fmt.Errorf("registry: decode environments: %w", err)
		}
		for _, e := range payload.Environments {
			existing = append(existing, e.Name)
		}
	}

	desiredSet := lowerSet(desired)
	existingSet := lowerSet(existing)

	for _, name := range desired {
		if _, ok := existingSet[strings.ToLower(name)]; ok {
			continue
		}
		putPath := fmt.Sprintf("/repos/%s/%s/environments/%s", org, repo, name)
		putResp, err := g.client.Put(ctx, putPath, map[string]any{}, nil)
		if err != nil || g.classify(putPath, putResp) != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("create %s failed", name))
			result.Success = false
			continue
		}
		result.Created = append(result.Created, name)
	}

	for _, name := range existing {
		if _, ok := desiredSet[strings.ToLower(name)]; ok {
			continue
		}
		delPath := fmt.Sprintf("/repos/%s/%s/environments/%s", org, repo, name)
		delResp, err := g.client.Delete(ctx, delPath, nil)
		if err != nil || g.classify(delPath, delResp) != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("delete %s failed", name))
			result.Success = false
			continue
		}
		result.Deleted = append(result.Deleted, name)
	}

	result.Total = len(desired)
	return result, nil
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// GetCustomProperties fetches the repository's custom-property values.
func (g *GitHub) GetCustomProperties(ctx context.Context, org, repo string) (map[string]string, error) {
	path := fmt.Sprintf("/repos/%s/%s/properties/values", org, repo)
	resp, err := g.client.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := g.classify(path, resp); err != nil {
		return nil, err
	}
	var payload []struct {
		PropertyName string `json:"property_name"`
		Value        string `json:"value"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode custom properties: %w", err)
	}
	out := make(map[string]string, len(payload))
	for _, p := range payload {
		out[p.PropertyName] = p.Value
	}
	return out, nil
}

// UpdateCustomProperties sets one or more custom-property values.
func (g *GitHub) UpdateCustomProperties(ctx context.Context, org, repo string, properties map[string]string) error {
	path := fmt.Sprintf("/repos/%s/%s/properties/values", org, repo)
	var entries []map[string]string
	for name, value := range properties {
		entries = append(entries, map[string]string{"property_name": name, "value": value})
	}
	resp, err := g.client.Patch(ctx, path, map[string]any{"properties": entries}, nil)
	if err != nil {
		return err
	}
	return g.classify(path, resp)
}

// GetRepositoryIdentifier returns the project's recorded GitHub repository
// id as an int; it is a thin wrapper over Project.GitHubIdentifier.
func GetRepositoryIdentifier(project model.Project, identifierKey string) (int, bool) {
	return project.GitHubIdentifier(identifierKey)
}

// ParseRepositoryID is a small helper for turning the string form of an id
// (as sometimes stored in Identifiers loaded from JSON) into an int.
func ParseRepositoryID(s string) (int, error) {
	return strconv.Atoi(s)
}
