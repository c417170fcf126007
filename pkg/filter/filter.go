// Package filter implements the project filter pipeline (C7): the
// cohort-level predicates a workflow's [filter] block applies before any
// per-project run starts, evaluated in the fixed order the original
// controller uses so the cheap, static predicates always run before the
// one that needs a GitHub Actions API round trip per project.
package filter

import (
	"context"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"golang.org/x/sync/errgroup"
)

var log = logger.ForComponent("filter")

// WorkflowStatusLookup resolves a project's latest GitHub Actions run
// status, used only by the github_workflow_status_exclude stage.
type WorkflowStatusLookup interface {
	RepositoryFor(ctx context.Context, project model.Project) (*model.GitHubRepository, error)
	WorkflowStatusFor(ctx context.Context, repo model.GitHubRepository) (string, error)
}

// Apply runs every configured stage of f against projects, in order, and
// returns the surviving subset. A zero-value WorkflowFilter is a no-op.
func Apply(ctx context.Context, f model.WorkflowFilter, githubIdentifierKey string, lookup WorkflowStatusLookup, projects []model.Project) ([]model.Project, error) {
	original := len(projects)

	if f.GitHubIdentifierRequired {
		projects = filterSlice(projects, func(p model.Project) bool {
			_, ok := p.GitHubIdentifier(githubIdentifierKey)
			return ok
		})
		log.Printf("github identifier required: %d remain", len(projects))
	}

	if len(f.ProjectIDs) > 0 {
		ids := toIntSet(f.ProjectIDs)
		projects = filterSlice(projects, func(p model.Project) bool { return ids[p.ID] })
		log.Printf("project id filter: %d remain", len(projects))
	}

	if len(f.ProjectEnvironments) > 0 {
		wanted := toStringSet(f.ProjectEnvironments)
		projects = filterSlice(projects, func(p model.Project) bool {
			for _, env := range p.Environments {
				if wanted[env] {
					return true
				}
			}
			return false
		})
		log.Printf("project environment filter: %d remain", len(projects))
	}

	if len(f.ProjectFacts) > 0 {
		projects = filterSlice(projects, func(p model.Project) bool {
			for k, v := range f.ProjectFacts {
				if p.Facts[k] != v {
					return false
				}
			}
			return true
		})
		log.Printf("project fact filter: %d remain", len(projects))
	}

	if len(f.ProjectTypes) > 0 {
		types := toStringSet(f.ProjectTypes)
		projects = filterSlice(projects, func(p model.Project) bool { return types[p.ProjectType] })
		log.Printf("project type filter: %d remain", len(projects))
	}

	// Dynamic filters run last: they cost a network round trip per project,
	// so every cheap static predicate above should have already shrunk the
	// set before we pay for it.
	if len(f.GitHubWorkflowStatusExclude) > 0 {
		var err error
		projects, err = filterByWorkflowStatus(ctx, f.GitHubWorkflowStatusExclude, lookup, projects)
		if err != nil {
			return nil, err
		}
		log.Printf("workflow status filter: %d remain", len(projects))
	}

	log.Printf("filtered %d of %d projects", original-len(projects), original)
	return projects, nil
}

func filterByWorkflowStatus(ctx context.Context, exclude []string, lookup WorkflowStatusLookup, projects []model.Project) ([]model.Project, error) {
	excluded := toStringSet(exclude)
	statuses := make([]string, len(projects))
	repos := make([]*model.GitHubRepository, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	for i, project := range projects {
		i, project := i, project
		g.Go(func() error {
			repo, err := lookup.RepositoryFor(gctx, project)
			if err != nil {
				return err
			}
			repos[i] = repo
			if repo == nil {
				return nil
			}
			status, err := lookup.WorkflowStatusFor(gctx, *repo)
			if err != nil {
				return err
			}
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var kept []model.Project
	for i, project := range projects {
		if repos[i] == nil || statuses[i] == "" {
			continue
		}
		if excluded[statuses[i]] {
			continue
		}
		kept = append(kept, project)
	}
	return kept, nil
}

func filterSlice(projects []model.Project, keep func(model.Project) bool) []model.Project {
	out := projects[:0:0]
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func toIntSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func toStringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
