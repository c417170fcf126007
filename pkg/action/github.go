package action

import (
	"context"
	"fmt"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

func (d *Dispatcher) executeGitHub(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	if a.Command != model.GitHubCommandSyncEnvironments {
		return fmt.Errorf("action %q: unsupported github command %q", a.Name, a.Command)
	}
	if d.GitHub == nil {
		return fmt.Errorf("action %q: sync_environments requires github, but github is not configured", a.Name)
	}
	if wfCtx.GitHubRepository == nil {
		return fmt.Errorf("action %q: sync_environments requires a resolved github repository", a.Name)
	}

	result, err := d.GitHub.SyncProjectEnvironments(ctx, wfCtx.GitHubRepository.Owner, wfCtx.GitHubRepository.Name, a.Environments)
	if err != nil {
		return fmt.Errorf("action %q: sync_environments: %w", a.Name, err)
	}
	log.Printf("synced environments for %s: created=%v deleted=%v", wfCtx.GitHubRepository.FullName(), result.Created, result.Deleted)
	if !result.Success {
		return fmt.Errorf("action %q: sync_environments completed with errors: %v", a.Name, result.Errors)
	}
	return nil
}
