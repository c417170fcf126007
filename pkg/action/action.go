// Package action dispatches and executes a workflow's actions (C8): the
// nine action tags, each delegating to a small executor grounded on the
// original's file_actions/shell/docker/template_action modules.
package action

import (
	"context"
	"fmt"

	"github.com/AWeber-Imbi/imbi-automations/pkg/condition"
	"github.com/AWeber-Imbi/imbi-automations/pkg/dockerdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/gitdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

var log = logger.ForComponent("action")

// GitHubClient is the subset of registry.GitHub the github action needs.
type GitHubClient interface {
	SyncProjectEnvironments(ctx context.Context, owner, repo string, environments []string) (*model.EnvironmentSyncResult, error)
}

// Agent is the LLM contract's execute/commit surface (spec §1 leaves its
// internal implementation out of core scope; pkg/agent supplies query()).
type Agent interface {
	Execute(ctx context.Context, wfCtx *model.WorkflowContext, action model.Action) error
}

// Dispatcher holds every executor's dependencies and routes an action to
// the one its Type names.
type Dispatcher struct {
	Docker  *dockerdriver.Driver
	GitHub  GitHubClient
	Agent   Agent
	Checker *condition.Checker
}

// New returns a Dispatcher. Docker/GitHub/Agent may be nil when a
// workflow never reaches an action that needs them.
func New(docker *dockerdriver.Driver, github GitHubClient, agent Agent, checker *condition.Checker) *Dispatcher {
	return &Dispatcher{Docker: docker, GitHub: github, Agent: agent, Checker: checker}
}

// Dispatch runs a single action against wfCtx, having already evaluated
// its own filter and conditions (the engine does that before calling in,
// per the fixed action-level skip-order of spec §4.5).
func (d *Dispatcher) Dispatch(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	log.Printf("executing action %q (%s)", a.Name, a.Type)

	switch a.Type {
	case model.ActionFile:
		return executeFile(wfCtx, a)
	case model.ActionShell:
		return executeShell(ctx, wfCtx, a)
	case model.ActionGit:
		return executeGit(ctx, wfCtx, a)
	case model.ActionDocker:
		return d.executeDocker(ctx, wfCtx, a)
	case model.ActionTemplate:
		return executeTemplate(wfCtx, a)
	case model.ActionGitHub:
		return d.executeGitHub(ctx, wfCtx, a)
	case model.ActionUtility:
		return executeUtility(a)
	case model.ActionClaude:
		return d.executeClaude(ctx, wfCtx, a)
	case model.ActionCallable:
		return fmt.Errorf("action %q: callable actions are not implemented", a.Name)
	default:
		return fmt.Errorf("action %q: unsupported action type %q", a.Name, a.Type)
	}
}

func (d *Dispatcher) executeClaude(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	if d.Agent == nil {
		return fmt.Errorf("action %q: claude action requires an agent, but claude code is not enabled", a.Name)
	}
	return d.Agent.Execute(ctx, wfCtx, a)
}
