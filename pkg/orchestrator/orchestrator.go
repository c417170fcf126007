// Package orchestrator fans a workflow out across the project targets
// a run selects (C10): one Imbi project, an Imbi project type, or every
// active project, each filtered (C7) and run through the engine (C9)
// with either exit-on-first-error or best-effort semantics. Grounded on
// the original's controller.py Automation class.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"github.com/AWeber-Imbi/imbi-automations/pkg/applog"
	"github.com/AWeber-Imbi/imbi-automations/pkg/engine"
	"github.com/AWeber-Imbi/imbi-automations/pkg/filter"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/repoutil"
)

var log = logger.ForComponent("orchestrator")
var mlog = applog.ForComponent("orchestrator")

// ImbiClient is the subset of registry.Imbi the orchestrator needs to
// resolve a target into a project list.
type ImbiClient interface {
	GetProject(ctx context.Context, id int) (*model.Project, error)
	GetProjectsByType(ctx context.Context, slug string) ([]model.Project, error)
	GetAllProjects(ctx context.Context) ([]model.Project, error)
}

// GitHubResolver is the subset of registry.GitHub the orchestrator uses
// to resolve a project's linked repository and its workflow status.
type GitHubResolver interface {
	GetRepositoryByID(ctx context.Context, id int) (*model.GitHubRepository, error)
	GetRepository(ctx context.Context, org, name string) (*model.GitHubRepository, error)
	GetRepositoryWorkflowStatus(ctx context.Context, org, repo string) (*string, error)
}

// GitLabResolver is the subset of registry.GitLab the orchestrator uses
// to resolve a project's linked project.
type GitLabResolver interface {
	GetProject(ctx context.Context, id int) (*model.GitLabProject, error)
	GetProjectByPath(ctx context.Context, namespacedPath string) (*model.GitLabProject, error)
}

// Target selects which projects a run processes. Exactly one field
// should be set; ProjectID takes priority, then ProjectType, then
// AllProjects, mirroring the original's iterator-selection order.
type Target struct {
	ProjectID   int
	ProjectType string
	AllProjects bool

	// GitHubRepository/GitHubOrganization/AllGitHubRepositories and their
	// GitLab equivalents select by repository identity directly rather
	// than through an Imbi project lookup. The original left these
	// iterators unimplemented (`...`); no implementation exists anywhere
	// to port, so they remain explicit errors here too.
	GitHubRepository        string
	GitHubOrganization      string
	AllGitHubRepositories   bool
	GitLabRepository        string
	GitLabGroup             string
	AllGitLabRepositories   bool
}

// Orchestrator runs a workflow against the projects a Target resolves.
type Orchestrator struct {
	Imbi           ImbiClient
	GitHub         GitHubResolver
	GitLab         GitLabResolver
	Engine         *engine.Engine
	Config         model.Configuration
	MaxConcurrency int
	ExitOnError    bool

	// StartFromProjectSlug resumes a best-effort run after an earlier
	// partial pass, skipping every project up to and including this slug.
	StartFromProjectSlug string

	outcomesMu sync.Mutex
	// Outcomes records each project's result from the most recent Run
	// call, for the caller to render a closing summary.
	Outcomes []ProjectOutcome
}

// ProjectOutcome is one project's result from a run, for the closing
// summary line spec §7 requires.
type ProjectOutcome struct {
	Project model.Project
	Err     error
}

func (o *Orchestrator) recordOutcome(project model.Project, err error) {
	o.outcomesMu.Lock()
	o.Outcomes = append(o.Outcomes, ProjectOutcome{Project: project, Err: err})
	o.outcomesMu.Unlock()
}

// New builds an Orchestrator. GitHub/GitLab may be nil when neither
// provider is configured.
func New(imbi ImbiClient, github GitHubResolver, gitlab GitLabResolver, eng *engine.Engine, cfg model.Configuration, exitOnError bool) *Orchestrator {
	return &Orchestrator{
		Imbi:           imbi,
		GitHub:         github,
		GitLab:         gitlab,
		Engine:         eng,
		Config:         cfg,
		MaxConcurrency: cfg.EffectiveMaxConcurrency(),
		ExitOnError:    exitOnError,
	}
}

// Run resolves target into a project list and runs workflow against
// every one, returning true iff every project's workflow succeeded (or,
// with ExitOnError, returning the first error encountered).
func (o *Orchestrator) Run(ctx context.Context, workflow *model.Workflow, target Target) (bool, error) {
	projects, err := o.resolveTarget(ctx, target)
	if err != nil {
		return false, err
	}
	log.Printf("resolved %d candidate projects", len(projects))

	lookup := &workflowStatusLookup{orch: o}
	filtered, err := filter.Apply(ctx, workflow.Filter, o.Config.Imbi.EffectiveGitHubIdentifier(), lookup, projects)
	if err != nil {
		return false, fmt.Errorf("orchestrator: filter projects: %w", err)
	}
	log.Printf("%d projects remain after filtering", len(filtered))

	if o.StartFromProjectSlug != "" {
		filtered = filterFromStart(filtered, o.StartFromProjectSlug)
	}

	mlog.Milestone("workflow %q: running against %d projects", workflow.Slug, len(filtered))
	o.Outcomes = nil
	return o.processAll(ctx, workflow, filtered)
}

// filterFromStart drops every project up to and including the one
// named by slug, resuming a best-effort run after an earlier partial
// pass. Per `_filter_projects_from_start`, an unmatched slug leaves the
// list untouched rather than erroring.
func filterFromStart(projects []model.Project, slug string) []model.Project {
	for i, p := range projects {
		if p.Slug == slug {
			return projects[i+1:]
		}
	}
	return projects
}

func (o *Orchestrator) resolveTarget(ctx context.Context, target Target) ([]model.Project, error) {
	switch {
	case target.ProjectID != 0:
		project, err := o.Imbi.GetProject(ctx, target.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: get project %d: %w", target.ProjectID, err)
		}
		if project == nil {
			return nil, fmt.Errorf("orchestrator: project %d not found", target.ProjectID)
		}
		return []model.Project{*project}, nil
	case target.ProjectType != "":
		projects, err := o.Imbi.GetProjectsByType(ctx, target.ProjectType)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: get projects by type %q: %w", target.ProjectType, err)
		}
		return projects, nil
	case target.AllProjects:
		projects, err := o.Imbi.GetAllProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: get all projects: %w", err)
		}
		return projects, nil
	case target.GitHubRepository != "", target.GitHubOrganization != "", target.AllGitHubRepositories,
		target.GitLabRepository != "", target.GitLabGroup != "", target.AllGitLabRepositories:
		return nil, fmt.Errorf("orchestrator: repository-identity target selectors are not implemented")
	default:
		return nil, fmt.Errorf("orchestrator: no target selector provided")
	}
}

// processAll runs the workflow against every project, either
// exit-on-first-error (an errgroup that cancels the rest on the first
// failure) or best-effort (a bounded conc pool runs every project to
// completion; overall success is the logical AND of each), per
// `_process_imbi_projects_common`.
func (o *Orchestrator) processAll(ctx context.Context, workflow *model.Workflow, projects []model.Project) (bool, error) {
	sem := make(chan struct{}, o.MaxConcurrency)

	if o.ExitOnError {
		g, gctx := errgroup.WithContext(ctx)
		for _, project := range projects {
			project := project
			g.Go(func() error {
				sem <- struct{}{}
				defer func() { <-sem }()
				ok, err := o.processProject(gctx, workflow, project)
				if err != nil {
					mlog.Fatal(err, "workflow %q: failed for %s (%d)", workflow.Slug, project.Name, project.ID)
					o.recordOutcome(project, err)
					return err
				}
				if !ok {
					err := fmt.Errorf("workflow failed for %s (%d)", project.Name, project.ID)
					mlog.Fatal(err, "workflow %q: failed for %s (%d)", workflow.Slug, project.Name, project.ID)
					o.recordOutcome(project, err)
					return err
				}
				o.recordOutcome(project, nil)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}
		return true, nil
	}

	p := pool.NewWithResults[bool]().WithMaxGoroutines(o.MaxConcurrency)
	for _, project := range projects {
		project := project
		p.Go(func() bool {
			ok, err := o.processProject(ctx, workflow, project)
			if err != nil {
				mlog.Fatal(err, "workflow %q: failed for %s (%d)", workflow.Slug, project.Name, project.ID)
				o.recordOutcome(project, err)
				return false
			}
			o.recordOutcome(project, nil)
			return ok
		})
	}

	allOK := true
	for _, ok := range p.Wait() {
		if !ok {
			allOK = false
		}
	}
	return allOK, nil
}

func (o *Orchestrator) processProject(ctx context.Context, workflow *model.Workflow, project model.Project) (bool, error) {
	githubRepo, err := o.resolveGitHubRepository(ctx, project)
	if err != nil {
		return false, err
	}
	gitlabProject, err := o.resolveGitLabProject(ctx, project)
	if err != nil {
		return false, err
	}

	wfCtx := &model.WorkflowContext{
		Workflow:         workflow,
		Project:          project,
		GitHubRepository: githubRepo,
		GitLabProject:    gitlabProject,
	}
	if err := o.Engine.Run(ctx, workflow, wfCtx); err != nil {
		return false, err
	}
	return true, nil
}

// resolveGitHubRepository follows a project's configured identifier-id
// first, falling back to its configured link URL, per
// `_get_project_common`.
func (o *Orchestrator) resolveGitHubRepository(ctx context.Context, project model.Project) (*model.GitHubRepository, error) {
	if o.GitHub == nil {
		return nil, nil
	}
	identifierKey := o.Config.Imbi.EffectiveGitHubIdentifier()
	if id, ok := project.Identifiers[identifierKey]; ok {
		return o.GitHub.GetRepositoryByID(ctx, id)
	}
	link := project.Links[o.Config.Imbi.EffectiveGitHubLink()]
	if link == "" {
		return nil, nil
	}
	owner, repo, err := repoutil.ParseGitHubRepoURL(link)
	if err != nil {
		log.Printf("project %s: github link not parseable: %v", project.Slug, err)
		return nil, nil
	}
	return o.GitHub.GetRepository(ctx, owner, repo)
}

// resolveGitLabProject mirrors resolveGitHubRepository against the
// GitLab client. The original routes both branches through its GitHub
// client (a confirmed bug); this corrects it to use GitLab.
func (o *Orchestrator) resolveGitLabProject(ctx context.Context, project model.Project) (*model.GitLabProject, error) {
	if o.GitLab == nil {
		return nil, nil
	}
	identifierKey := o.Config.Imbi.GitLabIdentifier
	if identifierKey == "" {
		identifierKey = "gitlab"
	}
	if id, ok := project.Identifiers[identifierKey]; ok {
		return o.GitLab.GetProject(ctx, id)
	}
	link := project.Links[o.Config.Imbi.EffectiveGitLabLink()]
	if link == "" {
		return nil, nil
	}
	owner, repo, err := repoutil.ParseGitLabRepoURL(link)
	if err != nil {
		log.Printf("project %s: gitlab link not parseable: %v", project.Slug, err)
		return nil, nil
	}
	return o.GitLab.GetProjectByPath(ctx, fmt.Sprintf("%s/%s", owner, repo))
}

// workflowStatusLookup adapts the orchestrator's own project-resolution
// logic to filter.WorkflowStatusLookup for the cohort-level
// github_workflow_status_exclude stage.
type workflowStatusLookup struct {
	orch *Orchestrator
}

func (l *workflowStatusLookup) RepositoryFor(ctx context.Context, project model.Project) (*model.GitHubRepository, error) {
	return l.orch.resolveGitHubRepository(ctx, project)
}

func (l *workflowStatusLookup) WorkflowStatusFor(ctx context.Context, repo model.GitHubRepository) (string, error) {
	status, err := l.orch.GitHub.GetRepositoryWorkflowStatus(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", err
	}
	if status == nil {
		return "", nil
	}
	return *status, nil
}
