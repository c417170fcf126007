// Package model defines the typed entities shared across imbi-automations:
// registry projects, remote repositories, workflows, actions, conditions,
// and the per-project execution context.
package model

import "fmt"

// Project is a record from the Imbi project registry.
type Project struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace_slug"`
	Slug        string            `json:"project_slug"`
	ProjectType string            `json:"project_type_slug"`
	Environments []string         `json:"environments"`
	Facts       map[string]string `json:"facts"`
	Identifiers map[string]int    `json:"identifiers"`
	Links       map[string]string `json:"links"`
}

// FullSlug returns the namespace/project slug pair joined the way GitHub
// and GitLab repo full-names are written.
func (p Project) FullSlug() string {
	return fmt.Sprintf("%s/%s", p.Namespace, p.Slug)
}

// GitHubIdentifier returns the project's GitHub repository id, if the
// registry recorded one under the configured identifier key.
func (p Project) GitHubIdentifier(key string) (int, bool) {
	id, ok := p.Identifiers[key]
	return id, ok
}

// Link returns a configured link URL by name ("github", "gitlab", ...),
// empty string if absent.
func (p Project) Link(name string) string {
	return p.Links[name]
}

// GitHubRepository is a remote GitHub repository as resolved through the
// registry client.
type GitHubRepository struct {
	ID            int    `json:"id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	SSHURL        string `json:"ssh_url"`
	CloneURL      string `json:"clone_url"`
}

// FullName returns "owner/name".
func (r GitHubRepository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// GitLabProject is a remote GitLab project as resolved through the
// registry client.
type GitLabProject struct {
	ID            int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch string `json:"default_branch"`
	SSHURLToRepo  string `json:"ssh_url_to_repo"`
	HTTPURLToRepo string `json:"http_url_to_repo"`
}

// WorkflowRun describes a single GitHub Actions run, as returned by
// get_latest_workflow_run.
type WorkflowRun struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Branch     string `json:"head_branch"`
}

// EffectiveStatus returns the run's conclusion if the run is complete,
// otherwise its in-progress status.
func (r WorkflowRun) EffectiveStatus() string {
	if r.Status == "completed" && r.Conclusion != "" {
		return r.Conclusion
	}
	return r.Status
}

// EnvironmentSyncResult is the outcome of GitHub.SyncProjectEnvironments.
type EnvironmentSyncResult struct {
	Created []string `json:"created"`
	Deleted []string `json:"deleted"`
	Errors  []string `json:"errors"`
	Success bool     `json:"success"`
	Total   int      `json:"total"`
}

// ProjectType, ProjectFactType and related reference-data records, fetched
// by the registry client and consumed by the fact registry (C11).
type ProjectType struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ProjectFactType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Kind is one of "enum", "range", or "free-form".
	Kind string `json:"fact_type"`
}

type ProjectFactTypeEnum struct {
	FactTypeID int    `json:"fact_type_id"`
	Value      string `json:"value"`
}

type ProjectFactTypeRange struct {
	FactTypeID int     `json:"fact_type_id"`
	MinValue   float64 `json:"min_value"`
	MaxValue   float64 `json:"max_value"`
}

type Environment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
