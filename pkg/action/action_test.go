package action

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *model.WorkflowContext {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "repository"), 0o755))
	return &model.WorkflowContext{
		Workflow:         &model.Workflow{Name: "test", Slug: "test"},
		WorkingDirectory: dir,
	}
}

func TestDispatch_FileWrite(t *testing.T) {
	wfCtx := newTestContext(t)
	d := New(nil, nil, nil, nil)

	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "write-readme", Type: model.ActionFile, Command: model.FileCommandWrite,
		Path: "repository/README.md", Content: "hello",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(wfCtx.WorkingDirectory, "repository", "README.md"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestDispatch_FileDeleteByPattern(t *testing.T) {
	wfCtx := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(wfCtx.WorkingDirectory, "repository", "a.pyc"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(wfCtx.WorkingDirectory, "repository", "keep.py"), []byte("x"), 0o644))

	d := New(nil, nil, nil, nil)
	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "clean", Type: model.ActionFile, Command: model.FileCommandDelete,
		Pattern: `\.pyc$`,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(wfCtx.WorkingDirectory, "repository", "a.pyc"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(wfCtx.WorkingDirectory, "repository", "keep.py"))
	require.NoError(t, err)
}

func TestDispatch_ShellRunsInRepositoryDir(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	wfCtx := newTestContext(t)
	d := New(nil, nil, nil, nil)

	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "touch", Type: model.ActionShell, Command: "touch marker.txt",
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(wfCtx.RepositoryDir(), "marker.txt"))
	require.NoError(t, err)
}

func TestDispatch_ShellIgnoreErrors(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	wfCtx := newTestContext(t)
	d := New(nil, nil, nil, nil)

	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "fail", Type: model.ActionShell, Command: "false", IgnoreErrors: true,
	})
	require.NoError(t, err)
}

func TestDispatch_UtilityIsNotImplemented(t *testing.T) {
	wfCtx := newTestContext(t)
	d := New(nil, nil, nil, nil)

	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "tag", Type: model.ActionUtility, Command: model.UtilityCommandDockerTag,
	})
	require.Error(t, err)
}

func TestDispatch_CallableIsNotImplemented(t *testing.T) {
	wfCtx := newTestContext(t)
	d := New(nil, nil, nil, nil)

	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "custom", Type: model.ActionCallable,
	})
	require.Error(t, err)
}

func TestDispatch_GitExtractNoMatchIsIgnorable(t *testing.T) {
	wfCtx := newTestContext(t)
	if err := exec.Command("git", "init", wfCtx.RepositoryDir()).Run(); err != nil {
		t.Skip("git not available")
	}
	exec.Command("git", "-C", wfCtx.RepositoryDir(), "config", "user.name", "Test").Run()
	exec.Command("git", "-C", wfCtx.RepositoryDir(), "config", "user.email", "test@example.com").Run()
	require.NoError(t, os.WriteFile(filepath.Join(wfCtx.RepositoryDir(), "a.txt"), []byte("a"), 0o644))
	exec.Command("git", "-C", wfCtx.RepositoryDir(), "add", "--all").Run()
	require.NoError(t, exec.Command("git", "-C", wfCtx.RepositoryDir(), "commit", "-m", "initial").Run())

	d := New(nil, nil, nil, nil)
	err := d.Dispatch(context.Background(), wfCtx, model.Action{
		Name: "extract", Type: model.ActionGit, Command: model.GitCommandExtract,
		Source: "a.txt", Destination: "a.txt", CommitKeyword: "NOPE", IgnoreErrors: true,
	})
	require.NoError(t, err)
}
