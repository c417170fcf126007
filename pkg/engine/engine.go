// Package engine runs a single workflow against a single resolved
// project (C9): clone, workflow-level conditions, the per-action
// dispatch loop, commit handling, and either a pull request or a direct
// push, grounded on the original's workflow_engine.py `execute()`
// sequencing.
package engine

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AWeber-Imbi/imbi-automations/pkg/action"
	"github.com/AWeber-Imbi/imbi-automations/pkg/applog"
	"github.com/AWeber-Imbi/imbi-automations/pkg/condition"
	"github.com/AWeber-Imbi/imbi-automations/pkg/filter"
	"github.com/AWeber-Imbi/imbi-automations/pkg/gitdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

var log = logger.ForComponent("engine")
var mlog = applog.ForComponent("engine")

// GitHubClient is the subset of registry.GitHub the engine calls
// directly; action.GitHubClient covers sync_environments, this adds
// pull request creation.
type GitHubClient interface {
	action.GitHubClient
	CreatePullRequest(ctx context.Context, org, repo, title, body, head, base string) (string, error)
}

// Agent is the LLM contract the engine uses for commits and pull
// request summaries, extending action.Agent with the commit and one-off
// query paths.
type Agent interface {
	action.Agent
	Commit(ctx context.Context, wfCtx *model.WorkflowContext) (string, error)
	Query(ctx context.Context, prompt string) (string, error)
}

// Engine runs workflows against projects it has already been handed a
// resolved clone target for.
type Engine struct {
	Config     model.Configuration
	GitHub     GitHubClient
	Dispatcher *action.Dispatcher
	Checker    *condition.Checker
	Agent      Agent
}

// New builds an Engine. GitHub and Agent may be nil when a workflow
// never reaches an action or code path that needs them.
func New(cfg model.Configuration, github GitHubClient, dispatcher *action.Dispatcher, checker *condition.Checker, agent Agent) *Engine {
	return &Engine{Config: cfg, GitHub: github, Dispatcher: dispatcher, Checker: checker, Agent: agent}
}

// needsAgent reports whether any action in the workflow requires an
// interactive claude session, mirroring the original constructor's
// upfront RuntimeError rather than failing mid-run on the first claude
// action.
func needsAgent(workflow *model.Workflow) bool {
	for _, a := range workflow.Actions {
		if a.Type == model.ActionClaude {
			return true
		}
	}
	return false
}

// Run executes workflow against the project already described by wfCtx
// (Project, GitHubRepository, GitLabProject must be populated by the
// caller; WorkingDirectory is owned by Run).
func (e *Engine) Run(ctx context.Context, workflow *model.Workflow, wfCtx *model.WorkflowContext) (err error) {
	if needsAgent(workflow) && e.Agent == nil {
		return fmt.Errorf("workflow %q: requires claude_code, but no agent is configured", workflow.Slug)
	}

	workDir, err := os.MkdirTemp("", "imbi-automations-"+workflow.Slug+"-")
	if err != nil {
		return fmt.Errorf("workflow %q: create working directory: %w", workflow.Slug, err)
	}
	defer os.RemoveAll(workDir)

	wfCtx.WorkingDirectory = workDir
	e.applyCommitAuthor(wfCtx)

	defer func() {
		if err != nil {
			mlog.Fatal(err, "workflow %q: failed for %s", workflow.Slug, wfCtx.Project.Slug)
		}
	}()

	if err := e.setupWorkflowRun(workflow, wfCtx); err != nil {
		return fmt.Errorf("workflow %q: %w", workflow.Slug, err)
	}

	defer func() {
		if err != nil && e.Config.PreserveOnError {
			if perr := e.preserveErrorState(workflow, wfCtx); perr != nil {
				mlog.Recoverable("workflow %q: failed to preserve error state: %v", workflow.Slug, perr)
			}
		}
	}()

	if ok, cerr := e.checkRemote(ctx, workflow.ConditionType, workflow.Conditions, wfCtx); cerr != nil {
		err = fmt.Errorf("workflow %q: remote conditions: %w", workflow.Slug, cerr)
		return err
	} else if !ok {
		mlog.Milestone("workflow %q: remote conditions not satisfied for %s, skipping", workflow.Slug, wfCtx.Project.Slug)
		return nil
	}

	if workflow.Git.Clone {
		if cloneErr := e.cloneRepository(ctx, workflow, wfCtx); cloneErr != nil {
			err = fmt.Errorf("workflow %q: clone: %w", workflow.Slug, cloneErr)
			return err
		}
		mlog.Milestone("workflow %q: cloned %s", workflow.Slug, wfCtx.Project.Slug)
		sha, headErr := gitdriver.New(wfCtx.RepositoryDir()).HeadSHA(ctx)
		if headErr != nil {
			err = fmt.Errorf("workflow %q: head sha: %w", workflow.Slug, headErr)
			return err
		}
		wfCtx.StartingCommit = sha
	}

	if ok, cerr := e.Checker.CheckLocal(workflow.ConditionType, workflow.Conditions, wfCtx.RepositoryDir()); cerr != nil {
		err = fmt.Errorf("workflow %q: local conditions: %w", workflow.Slug, cerr)
		return err
	} else if !ok {
		mlog.Milestone("workflow %q: local conditions not satisfied for %s, skipping", workflow.Slug, wfCtx.Project.Slug)
		return nil
	}

	for _, a := range workflow.Actions {
		skip, serr := e.shouldSkipAction(ctx, a, wfCtx)
		if serr != nil {
			err = fmt.Errorf("workflow %q: action %q: %w", workflow.Slug, a.Name, serr)
			return err
		}
		if skip {
			log.Printf("workflow %q: action %q skipped by filter/conditions", workflow.Slug, a.Name)
			continue
		}

		if derr := e.Dispatcher.Dispatch(ctx, wfCtx, a); derr != nil {
			err = fmt.Errorf("workflow %q: action %q: %w", workflow.Slug, a.Name, derr)
			return err
		}
		if a.IsCommittable() && workflow.Git.Clone {
			if commitErr := e.commitChanges(ctx, workflow, a, wfCtx); commitErr != nil {
				err = fmt.Errorf("workflow %q: action %q: commit: %w", workflow.Slug, a.Name, commitErr)
				return err
			}
		}
	}

	if !workflow.Git.Clone {
		return nil
	}

	if workflow.GitHub.CreatePullRequest {
		if prErr := e.createPullRequest(ctx, workflow, wfCtx); prErr != nil {
			err = fmt.Errorf("workflow %q: pull request: %w", workflow.Slug, prErr)
			return err
		}
		mlog.Milestone("workflow %q: pull request opened for %s", workflow.Slug, wfCtx.Project.Slug)
		return nil
	}

	branch := defaultBranch(wfCtx)
	if pushErr := gitdriver.New(wfCtx.RepositoryDir()).PushUpstream(ctx, branch); pushErr != nil {
		err = fmt.Errorf("workflow %q: push: %w", workflow.Slug, pushErr)
		return err
	}
	mlog.Milestone("workflow %q: pushed %s to %s", workflow.Slug, wfCtx.Project.Slug, branch)
	return nil
}

// shouldSkipAction evaluates an action's own filter and conditions,
// per the original's per-action skip gate ahead of dispatch. The filter's
// github_workflow_status_exclude stage is not applied per action (the
// engine has no workflow-status lookup); every other filter stage is.
func (e *Engine) shouldSkipAction(ctx context.Context, a model.Action, wfCtx *model.WorkflowContext) (bool, error) {
	f := a.Filter
	f.GitHubWorkflowStatusExclude = nil
	kept, err := filter.Apply(ctx, f, e.Config.Imbi.EffectiveGitHubIdentifier(), nil, []model.Project{wfCtx.Project})
	if err != nil {
		return false, fmt.Errorf("filter: %w", err)
	}
	if len(kept) == 0 {
		return true, nil
	}
	if ok, err := e.checkRemote(ctx, a.ConditionType, a.Conditions, wfCtx); err != nil {
		return false, fmt.Errorf("remote conditions: %w", err)
	} else if !ok {
		return true, nil
	}
	ok, err := e.Checker.CheckLocal(a.ConditionType, a.Conditions, wfCtx.RepositoryDir())
	if err != nil {
		return false, fmt.Errorf("local conditions: %w", err)
	}
	return !ok, nil
}

func (e *Engine) checkRemote(ctx context.Context, conditionType model.ConditionType, conditions []model.Condition, wfCtx *model.WorkflowContext) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}
	if wfCtx.GitHubRepository == nil && wfCtx.GitLabProject == nil {
		return true, nil
	}
	owner, repo := remoteCoordinates(wfCtx)
	return e.Checker.CheckRemote(ctx, conditionType, conditions, owner, repo)
}

// remoteCoordinates resolves the (owner, repo) pair condition.CheckRemote
// fans out to the github or gitlab client per-condition, preferring
// GitHub when both are resolved.
func remoteCoordinates(wfCtx *model.WorkflowContext) (string, string) {
	if wfCtx.GitHubRepository != nil {
		return wfCtx.GitHubRepository.Owner, wfCtx.GitHubRepository.Name
	}
	if wfCtx.GitLabProject != nil {
		parts := strings.SplitN(wfCtx.GitLabProject.PathWithNamespace, "/", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return wfCtx.GitLabProject.PathWithNamespace, ""
	}
	return "", ""
}

func defaultBranch(wfCtx *model.WorkflowContext) string {
	if wfCtx.GitHubRepository != nil && wfCtx.GitHubRepository.DefaultBranch != "" {
		return wfCtx.GitHubRepository.DefaultBranch
	}
	if wfCtx.GitLabProject != nil && wfCtx.GitLabProject.DefaultBranch != "" {
		return wfCtx.GitLabProject.DefaultBranch
	}
	return "main"
}

// setupWorkflowRun symlinks the workflow source directory into the
// working directory and creates the extraction directory, per
// `_setup_workflow_run`.
func (e *Engine) setupWorkflowRun(workflow *model.Workflow, wfCtx *model.WorkflowContext) error {
	if workflow.Path != "" {
		if err := os.Symlink(workflow.Path, wfCtx.WorkflowDir()); err != nil {
			return fmt.Errorf("symlink workflow directory: %w", err)
		}
	}
	if err := os.MkdirAll(wfCtx.ExtractedDir(), 0o755); err != nil {
		return fmt.Errorf("create extracted directory: %w", err)
	}
	return nil
}

// applyCommitAuthor parses the configured "Name <email>" commit author
// into its parts, the way the original parses it with
// email.utils.parseaddr. net/mail.ParseAddress is the stdlib's RFC 5322
// address parser; no third-party equivalent exists in the dependency
// set, so this is a justified stdlib use.
func (e *Engine) applyCommitAuthor(wfCtx *model.WorkflowContext) {
	wfCtx.CommitAuthor = e.Config.CommitAuthor
	if e.Config.CommitAuthor == "" {
		return
	}
	addr, err := mail.ParseAddress(e.Config.CommitAuthor)
	if err != nil {
		wfCtx.CommitAuthorName = e.Config.CommitAuthor
		return
	}
	wfCtx.CommitAuthorName = addr.Name
	wfCtx.CommitAuthorAddress = addr.Address
}

// cloneRepository resolves the clone URL and clones into RepositoryDir.
func (e *Engine) cloneRepository(ctx context.Context, workflow *model.Workflow, wfCtx *model.WorkflowContext) error {
	url, err := cloneURL(workflow, wfCtx)
	if err != nil {
		return err
	}
	_, err = gitdriver.Clone(ctx, wfCtx.RepositoryDir(), gitdriver.CloneOptions{
		URL:            url,
		Depth:          workflow.Git.Depth,
		StartingBranch: workflow.Git.StartingBranch,
	})
	return err
}

// cloneURL selects an ssh or https clone URL, preferring a resolved
// GitHub repository over a GitLab project, per `_git_clone_url`.
func cloneURL(workflow *model.Workflow, wfCtx *model.WorkflowContext) (string, error) {
	useSSH := workflow.Git.CloneType == model.CloneTypeSSH
	switch {
	case wfCtx.GitHubRepository != nil:
		if useSSH {
			return wfCtx.GitHubRepository.SSHURL, nil
		}
		return wfCtx.GitHubRepository.CloneURL, nil
	case wfCtx.GitLabProject != nil:
		if useSSH {
			return wfCtx.GitLabProject.SSHURLToRepo, nil
		}
		return wfCtx.GitLabProject.HTTPURLToRepo, nil
	default:
		return "", fmt.Errorf("no github repository or gitlab project resolved to clone")
	}
}

// commitChanges routes to the agent-driven commit when claude_code and
// ai_commits are both enabled, falling back to a templated commit
// message otherwise, per `_fallback_commit`. Called once per
// committable action, per `_execute_action`'s per-action commit call.
func (e *Engine) commitChanges(ctx context.Context, workflow *model.Workflow, a model.Action, wfCtx *model.WorkflowContext) error {
	driver := gitdriver.New(wfCtx.RepositoryDir())

	if e.Config.AICommits && e.Config.LLMEnabled() && e.Agent != nil {
		if _, err := e.Agent.Commit(ctx, wfCtx); err == nil {
			mlog.Milestone("workflow %q: action %q committed by agent", workflow.Slug, a.Name)
			return nil
		}
		mlog.Recoverable("workflow %q: agent commit failed, falling back to templated commit", workflow.Slug)
	}

	if err := driver.AddAll(ctx); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	message := fmt.Sprintf("imbi-automations: %s %s\n\n🤖 Generated with [Imbi Automations](https://github.com/AWeber-Imbi/).", workflow.Slug, a.Name)
	sha, err := driver.Commit(ctx, commitAuthorString(wfCtx), message)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if sha == "" {
		log.Printf("workflow %q: no changes to commit (fallback)", workflow.Slug)
		return nil
	}
	mlog.Milestone("workflow %q: action %q committed %s", workflow.Slug, a.Name, sha)
	return nil
}

func commitAuthorString(wfCtx *model.WorkflowContext) string {
	if wfCtx.CommitAuthorName != "" || wfCtx.CommitAuthorAddress != "" {
		return fmt.Sprintf("%s <%s>", wfCtx.CommitAuthorName, wfCtx.CommitAuthorAddress)
	}
	return wfCtx.CommitAuthor
}

// createPullRequest replaces an existing branch if configured, pushes a
// new branch, and opens a pull request with a Claude-summarized (or
// templated, if no agent is configured) body.
func (e *Engine) createPullRequest(ctx context.Context, workflow *model.Workflow, wfCtx *model.WorkflowContext) error {
	if e.GitHub == nil || wfCtx.GitHubRepository == nil {
		return fmt.Errorf("pull requests require a resolved github repository")
	}
	driver := gitdriver.New(wfCtx.RepositoryDir())
	branch := fmt.Sprintf("imbi-automations/%s", workflow.Slug)

	if workflow.GitHub.ReplaceBranch {
		if err := driver.DeleteRemoteBranchIfExists(ctx, branch); err != nil {
			return fmt.Errorf("delete existing branch: %w", err)
		}
	}
	if err := driver.CreateBranch(ctx, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := driver.PushUpstream(ctx, branch); err != nil {
		return fmt.Errorf("push branch: %w", err)
	}

	body, err := e.pullRequestBody(ctx, workflow, wfCtx, driver)
	if err != nil {
		return fmt.Errorf("build pull request body: %w", err)
	}

	owner := wfCtx.GitHubRepository.Owner
	repo := wfCtx.GitHubRepository.Name
	title := fmt.Sprintf("imbi-automations: %s", workflow.Name)
	_, err = e.GitHub.CreatePullRequest(ctx, owner, repo, title, body, branch, defaultBranch(wfCtx))
	if err != nil {
		return fmt.Errorf("create pull request: %w", err)
	}
	return nil
}

func (e *Engine) pullRequestBody(ctx context.Context, workflow *model.Workflow, wfCtx *model.WorkflowContext, driver *gitdriver.Driver) (string, error) {
	commits, err := driver.CommitsSince(ctx, wfCtx.StartingCommit)
	if err != nil {
		return "", err
	}
	if e.Agent != nil && e.Config.LLMEnabled() {
		prompt := fmt.Sprintf(
			"Summarize the following commits as a pull request description "+
				"for the %q automation workflow:\n\n%s", workflow.Name, commits)
		summary, err := e.Agent.Query(ctx, prompt)
		if err == nil && summary != "" {
			return summary, nil
		}
		mlog.Recoverable("workflow %q: pull request summary query failed, falling back to commit log", workflow.Slug)
	}
	return fmt.Sprintf("Automated changes from the %q workflow.\n\n%s", workflow.Name, commits), nil
}

// preserveErrorState copies the working directory aside for inspection,
// per `_preserve_error_state`.
func (e *Engine) preserveErrorState(workflow *model.Workflow, wfCtx *model.WorkflowContext) error {
	if e.Config.ErrorDir == "" {
		return fmt.Errorf("preserve_on_error is set but error_dir is empty")
	}
	dest := filepath.Join(e.Config.ErrorDir, workflow.Slug,
		fmt.Sprintf("%s-%d", wfCtx.Project.Slug, time.Now().Unix()))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return copyTree(wfCtx.WorkingDirectory, dest)
}
