package gitdriver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) *Driver {
	t.Helper()
	dir := t.TempDir()
	if err := exec.Command("git", "init", dir).Run(); err != nil {
		t.Skip("git not available")
	}
	exec.Command("git", "-C", dir, "config", "user.name", "Test User").Run()
	exec.Command("git", "-C", dir, "config", "user.email", "test@example.com").Run()
	return New(dir)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDriver_CommitReturnsHeadSHA(t *testing.T) {
	d := initRepo(t)
	writeFile(t, d.Dir, "README.md", "hello")

	ctx := context.Background()
	require.NoError(t, d.AddAll(ctx))
	sha, err := d.Commit(ctx, "Test User <test@example.com>", "initial commit")
	require.NoError(t, err)
	require.NotEmpty(t, sha)

	head, err := d.HeadSHA(ctx)
	require.NoError(t, err)
	require.Equal(t, sha, head)
}

func TestDriver_CommitNothingToCommitIsNotError(t *testing.T) {
	d := initRepo(t)
	writeFile(t, d.Dir, "README.md", "hello")

	ctx := context.Background()
	require.NoError(t, d.AddAll(ctx))
	_, err := d.Commit(ctx, "Test User <test@example.com>", "initial commit")
	require.NoError(t, err)

	require.NoError(t, d.AddAll(ctx))
	sha, err := d.Commit(ctx, "Test User <test@example.com>", "no-op commit")
	require.NoError(t, err)
	require.Empty(t, sha)
}

func TestDriver_CreateBranchSwitchesHEAD(t *testing.T) {
	d := initRepo(t)
	writeFile(t, d.Dir, "README.md", "hello")

	ctx := context.Background()
	require.NoError(t, d.AddAll(ctx))
	_, err := d.Commit(ctx, "Test User <test@example.com>", "initial commit")
	require.NoError(t, err)

	require.NoError(t, d.CreateBranch(ctx, "feature/widget"))

	out, err := exec.Command("git", "-C", d.Dir, "branch", "--show-current").Output()
	require.NoError(t, err)
	require.Equal(t, "feature/widget", strings.TrimSpace(string(out)))
}

func TestDriver_GrepCommitsFindsKeyword(t *testing.T) {
	d := initRepo(t)
	ctx := context.Background()

	writeFile(t, d.Dir, "a.txt", "a")
	require.NoError(t, d.AddAll(ctx))
	_, err := d.Commit(ctx, "Test User <test@example.com>", "add a")
	require.NoError(t, err)

	writeFile(t, d.Dir, "b.txt", "b")
	require.NoError(t, d.AddAll(ctx))
	wantSHA, err := d.Commit(ctx, "Test User <test@example.com>", "UPGRADE: bump b")
	require.NoError(t, err)

	shas, err := d.GrepCommits(ctx, "UPGRADE")
	require.NoError(t, err)
	require.Equal(t, []string{wantSHA}, shas)
}

func TestDriver_ShowFileAtCommitReturnsContent(t *testing.T) {
	d := initRepo(t)
	ctx := context.Background()

	writeFile(t, d.Dir, "version.txt", "1.0.0")
	require.NoError(t, d.AddAll(ctx))
	sha, err := d.Commit(ctx, "Test User <test@example.com>", "release 1.0.0")
	require.NoError(t, err)

	content, err := d.ShowFileAtCommit(ctx, sha, "version.txt")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", content)
}

func TestDriver_DeleteRemoteBranchIfExists_NoRemoteIsError(t *testing.T) {
	d := initRepo(t)
	ctx := context.Background()
	writeFile(t, d.Dir, "README.md", "hello")
	require.NoError(t, d.AddAll(ctx))
	_, err := d.Commit(ctx, "Test User <test@example.com>", "initial commit")
	require.NoError(t, err)

	err = d.DeleteRemoteBranchIfExists(ctx, "gone")
	require.Error(t, err)
}
