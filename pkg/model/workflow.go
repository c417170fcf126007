package model

import (
	"path/filepath"
	"strings"
)

// CloneType selects which clone URL field a workflow's git settings use.
type CloneType string

const (
	CloneTypeSSH  CloneType = "ssh"
	CloneTypeHTTP CloneType = "http"
)

// ConditionType selects all-must-hold or any-may-hold composition.
type ConditionType string

const (
	ConditionAll ConditionType = "all"
	ConditionAny ConditionType = "any"
)

// WorkflowGit holds the clone-behavior settings of a workflow.
type WorkflowGit struct {
	Clone          bool      `toml:"clone"`
	Depth          int       `toml:"depth"`
	StartingBranch string    `toml:"starting_branch"`
	CloneType      CloneType `toml:"clone_type"`
}

// WorkflowGitHub holds the PR-behavior settings of a workflow.
type WorkflowGitHub struct {
	CreatePullRequest bool `toml:"create_pull_request"`
	ReplaceBranch     bool `toml:"replace_branch"`
}

// WorkflowFilter is a cohort-level predicate set evaluated by the project
// filter pipeline (C7) before any per-project workflow run is started.
type WorkflowFilter struct {
	ProjectIDs                  []int             `toml:"project_ids"`
	ProjectTypes                []string          `toml:"project_types"`
	ProjectFacts                map[string]string `toml:"project_facts"`
	ProjectEnvironments         []string          `toml:"project_environments"`
	GitHubIdentifierRequired    bool              `toml:"github_identifier_required"`
	GitHubWorkflowStatusExclude []string          `toml:"github_workflow_status_exclude"`
}

// Workflow is the parsed contents of a workflow directory's config.toml,
// plus the directory path it was loaded from.
type Workflow struct {
	Path        string `toml:"-"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Slug        string `toml:"slug"`

	Git    WorkflowGit    `toml:"git"`
	GitHub WorkflowGitHub `toml:"github"`

	Filter WorkflowFilter `toml:"filter"`

	Conditions    []Condition   `toml:"conditions"`
	ConditionType ConditionType `toml:"condition_type"`

	Actions []Action `toml:"actions"`
}

// ResolveSlug fills Slug from Path when not explicitly configured, per the
// rule `basename.lower().replace('_','-')`.
func (w *Workflow) ResolveSlug() {
	if w.Slug != "" {
		return
	}
	base := filepath.Base(strings.TrimRight(w.Path, string(filepath.Separator)))
	w.Slug = strings.ReplaceAll(strings.ToLower(base), "_", "-")
}

// WorkflowContext is the mutable per-project execution context threaded
// through condition evaluation, action dispatch, and template rendering.
type WorkflowContext struct {
	Workflow         *Workflow
	Project          Project
	GitHubRepository *GitHubRepository
	GitLabProject    *GitLabProject

	WorkingDirectory string
	StartingCommit   string

	CommitAuthor        string
	CommitAuthorName    string
	CommitAuthorAddress string
	WorkflowName        string
}

// RepositoryDir returns the clone directory under the workspace.
func (c *WorkflowContext) RepositoryDir() string {
	return filepath.Join(c.WorkingDirectory, "repository")
}

// WorkflowDir returns the symlinked workflow-source directory under the
// workspace.
func (c *WorkflowContext) WorkflowDir() string {
	return filepath.Join(c.WorkingDirectory, "workflow")
}

// ExtractedDir returns the directory docker/git extractions land in.
func (c *WorkflowContext) ExtractedDir() string {
	return filepath.Join(c.WorkingDirectory, "extracted")
}

// TemplateData returns the template-rendering context: the fields every
// template/prompt render call exposes, per spec §4.6.
func (c *WorkflowContext) TemplateData(extra map[string]any) map[string]any {
	data := map[string]any{
		"workflow":          c.Workflow,
		"imbi_project":      c.Project,
		"github_repository": c.GitHubRepository,
		"gitlab_project":    c.GitLabProject,
		"working_directory": c.WorkingDirectory,
		"starting_commit":   c.StartingCommit,
		"commit_author":         c.CommitAuthor,
		"commit_author_name":    c.CommitAuthorName,
		"commit_author_address": c.CommitAuthorAddress,
		"workflow_name":         c.WorkflowName,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
