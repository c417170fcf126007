// Package cli builds the imbi-automations command tree, grounded on the
// teacher's cmd/gh-aw command-construction pattern (one cobra.Command
// constructor per verb, flags attached by the caller, errors surfaced
// through console formatting) trimmed to this tool's single verb: run
// a workflow against a target population of projects.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AWeber-Imbi/imbi-automations/pkg/action"
	"github.com/AWeber-Imbi/imbi-automations/pkg/agent"
	"github.com/AWeber-Imbi/imbi-automations/pkg/condition"
	"github.com/AWeber-Imbi/imbi-automations/pkg/config"
	"github.com/AWeber-Imbi/imbi-automations/pkg/console"
	"github.com/AWeber-Imbi/imbi-automations/pkg/dockerdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/engine"
	"github.com/AWeber-Imbi/imbi-automations/pkg/orchestrator"
	"github.com/AWeber-Imbi/imbi-automations/pkg/registry"
)

// exit codes per the CLI surface's documented contract.
const (
	ExitSuccess       = 0
	ExitRunFailure    = 1
	ExitMisconfigured = 2
)

// exitError carries a process exit code alongside the error cobra
// reports, so Execute (in main) can choose os.Exit without re-deriving
// the failure class from the error text.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode extracts the process exit code from an error Execute
// returned, defaulting to ExitRunFailure for anything unrecognized.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if ok := asExitError(err, &ee); ok {
		return ee.code
	}
	return ExitRunFailure
}

func asExitError(err error, target **exitError) bool {
	for err != nil {
		if ee, ok := err.(*exitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

type runFlags struct {
	imbiProjectID       int
	imbiProjectType     string
	allImbiProjects     bool
	githubRepository    string
	githubOrganization  string
	allGitHubRepos      bool
	gitlabRepository    string
	gitlabGroup         string
	allGitLabRepos      bool
	maxConcurrency      int
	exitOnError         bool
	preserveOnError     bool
	errorDir            string
	startFromProject    string
}

// NewRootCommand builds the imbi-automations root command: positional
// CONFIG/WORKFLOW arguments and the mutually exclusive target-selector
// flags from the CLI surface.
func NewRootCommand(version string) *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:     "imbi-automations CONFIG WORKFLOW",
		Short:   "Run an automated workflow across Imbi-registered projects",
		Version: version,
		Args:    cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1], flags)
		},
	}

	root.Flags().IntVar(&flags.imbiProjectID, "imbi-project-id", 0, "run against a single Imbi project")
	root.Flags().StringVar(&flags.imbiProjectType, "imbi-project-type", "", "run against every project of this type")
	root.Flags().BoolVar(&flags.allImbiProjects, "all-imbi-projects", false, "run against every active project")
	root.Flags().StringVar(&flags.githubRepository, "github-repository", "", "run against a single GitHub repository (URL)")
	root.Flags().StringVar(&flags.githubOrganization, "github-organization", "", "run against every repository in a GitHub org")
	root.Flags().BoolVar(&flags.allGitHubRepos, "all-github-repositories", false, "run against every GitHub repository")
	root.Flags().StringVar(&flags.gitlabRepository, "gitlab-repository", "", "run against a single GitLab project (URL)")
	root.Flags().StringVar(&flags.gitlabGroup, "gitlab-group", "", "run against every project in a GitLab group, recursively")
	root.Flags().BoolVar(&flags.allGitLabRepos, "all-gitlab-repositories", false, "run against every GitLab project")
	root.Flags().IntVar(&flags.maxConcurrency, "max-concurrency", 0, "override the configured concurrency cap")
	root.Flags().BoolVar(&flags.exitOnError, "exit-on-error", false, "cancel remaining projects on the first failure")
	root.Flags().BoolVar(&flags.preserveOnError, "preserve-on-error", false, "preserve the workspace of a failed project for inspection")
	root.Flags().StringVar(&flags.errorDir, "error-dir", "", "directory preserved workspaces are copied under")
	root.Flags().StringVar(&flags.startFromProject, "start-from-project", "", "resume a best-effort run from this project slug")
	root.Flags().BoolP("verbose", "v", false, "accepted but has no effect; set DEBUG=imbi:* for trace logging")

	root.MarkFlagsMutuallyExclusive(
		"imbi-project-id", "imbi-project-type", "all-imbi-projects",
		"github-repository", "github-organization", "all-github-repositories",
		"gitlab-repository", "gitlab-group", "all-gitlab-repositories",
	)

	return root
}

func run(ctx context.Context, configPath, workflowDir string, flags *runFlags) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &exitError{code: ExitMisconfigured, err: err}
	}
	if flags.maxConcurrency > 0 {
		cfg.MaxConcurrency = flags.maxConcurrency
	}
	if flags.preserveOnError {
		cfg.PreserveOnError = true
	}
	if flags.errorDir != "" {
		cfg.ErrorDir = flags.errorDir
	}

	workflow, err := loadWorkflow(workflowDir)
	if err != nil {
		return &exitError{code: ExitMisconfigured, err: err}
	}

	var githubClient *registry.GitHub
	if cfg.GitHub.APIKey != "" {
		githubClient, err = registry.NewGitHub(cfg.GitHub.Hostname, cfg.GitHub.APIKey)
		if err != nil {
			return &exitError{code: ExitMisconfigured, err: fmt.Errorf("construct github client: %w", err)}
		}
	}
	var gitlabClient *registry.GitLab
	if cfg.GitLab.APIKey != "" {
		gitlabClient, err = registry.NewGitLab(cfg.GitLab.Hostname, cfg.GitLab.APIKey)
		if err != nil {
			return &exitError{code: ExitMisconfigured, err: fmt.Errorf("construct gitlab client: %w", err)}
		}
	}
	imbiClient, err := registry.NewImbi(cfg.Imbi.Hostname, cfg.Imbi.APIKey)
	if err != nil {
		return &exitError{code: ExitMisconfigured, err: fmt.Errorf("construct imbi client: %w", err)}
	}

	var llmAgent *agent.Agent
	if cfg.LLMEnabled() {
		llmAgent, err = agent.New(cfg.Anthropic)
		if err != nil {
			return &exitError{code: ExitMisconfigured, err: fmt.Errorf("construct anthropic agent: %w", err)}
		}
	}

	var githubFetcher condition.RemoteFileFetcher
	if githubClient != nil {
		githubFetcher = engine.NewGitHubFileFetcher(githubClient)
	}
	var gitlabFetcher condition.RemoteFileFetcher
	if gitlabClient != nil {
		gitlabFetcher = engine.NewGitLabFileFetcher(gitlabClient)
	}
	checker := condition.New(githubFetcher, gitlabFetcher)

	var githubForDispatch action.GitHubClient
	if githubClient != nil {
		githubForDispatch = githubClient
	}
	var agentForDispatch action.Agent
	if llmAgent != nil {
		agentForDispatch = llmAgent
	}
	dispatcher := action.New(dockerdriver.New(), githubForDispatch, agentForDispatch, checker)

	var githubForEngine engine.GitHubClient
	if githubClient != nil {
		githubForEngine = githubClient
	}
	var agentForEngine engine.Agent
	if llmAgent != nil {
		agentForEngine = llmAgent
	}
	eng := engine.New(*cfg, githubForEngine, dispatcher, checker, agentForEngine)

	var githubForOrch orchestrator.GitHubResolver
	if githubClient != nil {
		githubForOrch = githubClient
	}
	var gitlabForOrch orchestrator.GitLabResolver
	if gitlabClient != nil {
		gitlabForOrch = gitlabClient
	}
	orch := orchestrator.New(imbiClient, githubForOrch, gitlabForOrch, eng, *cfg, flags.exitOnError)
	orch.StartFromProjectSlug = flags.startFromProject

	target := orchestrator.Target{
		ProjectID:             flags.imbiProjectID,
		ProjectType:           flags.imbiProjectType,
		AllProjects:           flags.allImbiProjects,
		GitHubRepository:      flags.githubRepository,
		GitHubOrganization:    flags.githubOrganization,
		AllGitHubRepositories: flags.allGitHubRepos,
		GitLabRepository:      flags.gitlabRepository,
		GitLabGroup:           flags.gitlabGroup,
		AllGitLabRepositories: flags.allGitLabRepos,
	}

	ok, runErr := orch.Run(ctx, workflow, target)

	if len(orch.Outcomes) > 0 {
		rows := make([]console.SummaryRow, len(orch.Outcomes))
		for i, o := range orch.Outcomes {
			outcome, detail := "success", ""
			if o.Err != nil {
				outcome, detail = "error", o.Err.Error()
			}
			rows[i] = console.SummaryRow{Project: o.Project.Name, Outcome: outcome, Detail: detail}
		}
		fmt.Fprint(os.Stderr, console.RenderSummary(rows))
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, console.FormatError(runErr.Error()))
		return &exitError{code: ExitRunFailure, err: runErr}
	}
	if !ok {
		err := fmt.Errorf("one or more projects failed")
		fmt.Fprintln(os.Stderr, console.FormatError(err.Error()))
		return &exitError{code: ExitRunFailure, err: err}
	}
	fmt.Fprintln(os.Stderr, console.FormatSuccess("run complete"))
	return nil
}
