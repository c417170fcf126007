package condition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	files map[string][]byte
}

func (f *fakeFetcher) GetFileContents(_ context.Context, _, _, path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, nil
	}
	return content, nil
}

func writeRepoFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestCheckLocal_EmptyIsVacuouslyTrue(t *testing.T) {
	c := New(nil, nil)
	ok, err := c.CheckLocal(model.ConditionAll, nil, t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CheckLocal(model.ConditionAny, nil, t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckLocal_FileExists(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "Dockerfile", "FROM alpine")

	c := New(nil, nil)
	ok, err := c.CheckLocal(model.ConditionAll, []model.Condition{{FileExists: "Dockerfile"}}, dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CheckLocal(model.ConditionAll, []model.Condition{{FileExists: "missing.txt"}}, dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckLocal_FileDoesntContain(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "tox.ini", "[tox]\nenvlist = py311")

	c := New(nil, nil)
	ok, err := c.CheckLocal(model.ConditionAll, []model.Condition{{File: "tox.ini", FileDoesntContain: "py312"}}, dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CheckLocal(model.ConditionAll, []model.Condition{{File: "tox.ini", FileDoesntContain: "py311"}}, dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckLocal_AnyVsAllComposition(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "a.txt", "a")

	conds := []model.Condition{
		{FileExists: "a.txt"},
		{FileExists: "b.txt"},
	}
	c := New(nil, nil)

	allOK, err := c.CheckLocal(model.ConditionAll, conds, dir)
	require.NoError(t, err)
	require.False(t, allOK)

	anyOK, err := c.CheckLocal(model.ConditionAny, conds, dir)
	require.NoError(t, err)
	require.True(t, anyOK)
}

func TestCheckLocal_FilePatternExistsByRegex(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "src/app_test.go", "package src")

	c := New(nil, nil)
	ok, err := c.CheckLocal(model.ConditionAll, []model.Condition{{FileExists: `.*_test\.go$`}}, dir)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckRemote_UsesGitLabClientForGitLabCondition(t *testing.T) {
	gitlab := &fakeFetcher{files: map[string][]byte{"setup.py": []byte("version = 1")}}
	c := New(nil, gitlab)

	ok, err := c.CheckRemote(context.Background(), model.ConditionAll, []model.Condition{{
		RemoteClient: model.RemoteClientGitLab, RemoteFileExists: "setup.py",
	}}, "acme", "widget")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckRemote_MissingClientIsError(t *testing.T) {
	c := New(nil, nil)
	_, err := c.CheckRemote(context.Background(), model.ConditionAll, []model.Condition{{
		RemoteClient: model.RemoteClientGitHub, RemoteFileExists: "setup.py",
	}}, "acme", "widget")
	require.Error(t, err)
}

func TestCheckRemote_ContainsAndDoesntContain(t *testing.T) {
	github := &fakeFetcher{files: map[string][]byte{"tox.ini": []byte("envlist = py311")}}
	c := New(github, nil)

	ok, err := c.CheckRemote(context.Background(), model.ConditionAll, []model.Condition{{
		RemoteClient: model.RemoteClientGitHub, RemoteFile: "tox.ini", RemoteFileContains: "py311",
	}}, "acme", "widget")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CheckRemote(context.Background(), model.ConditionAll, []model.Condition{{
		RemoteClient: model.RemoteClientGitHub, RemoteFile: "tox.ini", RemoteFileDoesntContain: "py312",
	}}, "acme", "widget")
	require.NoError(t, err)
	require.True(t, ok)
}
