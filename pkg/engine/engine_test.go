package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/action"
	"github.com/AWeber-Imbi/imbi-automations/pkg/condition"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func newBareRepoWithCommit(t *testing.T) string {
	t.Helper()
	bare := filepath.Join(t.TempDir(), "origin.git")
	require.NoError(t, exec.Command("git", "init", "--bare", "--initial-branch=main", bare).Run())

	seed := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = seed
		require.NoError(t, cmd.Run())
	}
	run("init")
	run("config", "user.name", "Test")
	run("config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "README.md"), []byte("hello"), 0o644))
	run("add", "--all")
	run("commit", "-m", "initial")
	run("remote", "add", "origin", bare)
	run("push", "origin", "HEAD:refs/heads/main")
	return bare
}

type fakeGitHub struct {
	createdTitle, createdBody, createdHead, createdBase string
}

func (f *fakeGitHub) SyncProjectEnvironments(ctx context.Context, owner, repo string, environments []string) (*model.EnvironmentSyncResult, error) {
	return &model.EnvironmentSyncResult{Success: true}, nil
}

func (f *fakeGitHub) CreatePullRequest(ctx context.Context, org, repo, title, body, head, base string) (string, error) {
	f.createdTitle, f.createdBody, f.createdHead, f.createdBase = title, body, head, base
	return "https://example.com/pr/1", nil
}

func newEngine(t *testing.T, github GitHubClient) *Engine {
	t.Helper()
	checker := condition.New(nil, nil)
	dispatcher := action.New(nil, github, nil, checker)
	return New(model.Configuration{CommitAuthor: "Bot <bot@example.com>"}, github, dispatcher, checker, nil)
}

func TestRun_NoCloneRunsActionsOnly(t *testing.T) {
	e := newEngine(t, nil)
	// Run removes its working directory on return, so the action writes to
	// an absolute path outside it.
	out := filepath.Join(t.TempDir(), "out.txt")
	workflow := &model.Workflow{
		Slug: "no-clone",
		Actions: []model.Action{
			{Name: "write", Type: model.ActionFile, Command: model.FileCommandWrite, Path: out, Content: "hi"},
		},
	}
	wfCtx := &model.WorkflowContext{Workflow: workflow}

	err := e.Run(context.Background(), workflow, wfCtx)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "hi", string(content))
}

func TestRun_ClonePushesDirectlyWithoutPR(t *testing.T) {
	requireGit(t)
	bare := newBareRepoWithCommit(t)

	e := newEngine(t, nil)
	workflow := &model.Workflow{
		Slug: "direct-push",
		Git:  model.WorkflowGit{Clone: true, Depth: 1},
		Actions: []model.Action{
			{Name: "write", Type: model.ActionFile, Command: model.FileCommandWrite, Path: "repository/NOTES.md", Content: "notes"},
		},
	}
	wfCtx := &model.WorkflowContext{
		Workflow:         workflow,
		GitHubRepository: &model.GitHubRepository{Owner: "acme", Name: "widgets", DefaultBranch: "main", CloneURL: bare},
	}

	err := e.Run(context.Background(), workflow, wfCtx)
	require.NoError(t, err)

	verify := t.TempDir()
	require.NoError(t, exec.Command("git", "clone", bare, filepath.Join(verify, "check")).Run())
	content, err := os.ReadFile(filepath.Join(verify, "check", "NOTES.md"))
	require.NoError(t, err)
	require.Equal(t, "notes", string(content))
}

func TestRun_CreatesPullRequest(t *testing.T) {
	requireGit(t)
	bare := newBareRepoWithCommit(t)

	gh := &fakeGitHub{}
	e := newEngine(t, gh)
	workflow := &model.Workflow{
		Name:   "Add Notes",
		Slug:   "add-notes",
		Git:    model.WorkflowGit{Clone: true, Depth: 1},
		GitHub: model.WorkflowGitHub{CreatePullRequest: true},
		Actions: []model.Action{
			{Name: "write", Type: model.ActionFile, Command: model.FileCommandWrite, Path: "repository/NOTES.md", Content: "notes"},
		},
	}
	wfCtx := &model.WorkflowContext{
		Workflow:         workflow,
		GitHubRepository: &model.GitHubRepository{Owner: "acme", Name: "widgets", DefaultBranch: "main", CloneURL: bare},
	}

	err := e.Run(context.Background(), workflow, wfCtx)
	require.NoError(t, err)
	require.Equal(t, "imbi-automations/add-notes", gh.createdHead)
	require.Equal(t, "main", gh.createdBase)
	require.Contains(t, gh.createdBody, "Automated changes")
}

func TestRun_SkipsWhenLocalConditionUnmet(t *testing.T) {
	requireGit(t)
	bare := newBareRepoWithCommit(t)

	e := newEngine(t, nil)
	workflow := &model.Workflow{
		Slug:       "conditional",
		Git:        model.WorkflowGit{Clone: true, Depth: 1},
		Conditions: []model.Condition{{FileExists: "does-not-exist.txt"}},
		Actions: []model.Action{
			{Name: "write", Type: model.ActionFile, Command: model.FileCommandWrite, Path: "repository/SHOULD-NOT-EXIST.md", Content: "x"},
		},
	}
	wfCtx := &model.WorkflowContext{
		Workflow:         workflow,
		GitHubRepository: &model.GitHubRepository{Owner: "acme", Name: "widgets", DefaultBranch: "main", CloneURL: bare},
	}

	err := e.Run(context.Background(), workflow, wfCtx)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(wfCtx.WorkingDirectory, "repository", "SHOULD-NOT-EXIST.md"))
	require.True(t, os.IsNotExist(statErr))
}
