// Package gitdriver implements the git subprocess wrapper (C3): clone,
// add, commit, push, branch, show, log-grep, and extract-at-commit, all
// dispatched as `git` subprocess invocations in the idiom of the teacher's
// pkg/cli git helpers and the original source's subprocess-based git.py.
package gitdriver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/AWeber-Imbi/imbi-automations/pkg/gitutil"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
)

// DefaultTimeout is the per-command timeout applied when the caller's
// context has no earlier deadline (spec §5: "git: 3600s default").
const DefaultTimeout = 3600 * time.Second

var log = logger.ForComponent("git")

// Driver runs git commands against a fixed working directory.
type Driver struct {
	Dir string
}

// New returns a Driver rooted at dir (normally WorkflowContext.RepositoryDir()).
func New(dir string) *Driver {
	return &Driver{Dir: dir}
}

// run executes `git <args...>` in d.Dir, applying DefaultTimeout unless ctx
// already carries an earlier deadline. On timeout it sends SIGTERM, waits
// 5s, then SIGKILL, matching the escalation the original subprocess
// wrapper used.
func (d *Driver) run(ctx context.Context, args ...string) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		runCtx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	log.Printf("git %s (dir=%s)", strings.Join(args, " "), d.Dir)

	cmd := exec.CommandContext(runCtx, "git", args...)
	cmd.Dir = d.Dir
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stdout.Len() > 0 {
		log.Printf("stdout: %s", stdout.String())
	}
	if stderr.Len() > 0 {
		log.Printf("stderr: %s", stderr.String())
	}

	if runCtx.Err() != nil {
		return "", fmt.Errorf("git %s: timed out: %w", strings.Join(args, " "), runCtx.Err())
	}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			// Some failures (e.g. "nothing to commit") are reported on stdout.
			msg = stdout.String()
		}
		if gitutil.IsAuthError(msg) {
			return "", fmt.Errorf("git %s: authentication failed: %s", strings.Join(args, " "), msg)
		}
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

// CloneOptions configures Clone.
type CloneOptions struct {
	URL            string
	Depth          int // 0 or 1 => shallow (--depth 1); >1 => full clone (no --depth)
	StartingBranch string
}

// Clone clones URL into d.Dir (which must not yet exist; its parent must).
// Shallow clone is used whenever Depth <= 1.
func Clone(ctx context.Context, dir string, opts CloneOptions) (*Driver, error) {
	args := []string{"clone"}
	if opts.Depth <= 1 {
		args = append(args, "--depth", "1")
	}
	if opts.StartingBranch != "" {
		args = append(args, "--branch", opts.StartingBranch)
	}
	args = append(args, opts.URL, dir)

	log.Printf("git %s", strings.Join(args, " "))
	runCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if gitutil.IsAuthError(msg) {
			return nil, fmt.Errorf("gitdriver: clone %s: authentication failed: %s", opts.URL, msg)
		}
		return nil, fmt.Errorf("gitdriver: clone %s: %w: %s", opts.URL, err, msg)
	}
	return &Driver{Dir: dir}, nil
}

// HeadSHA returns the current HEAD commit SHA.
func (d *Driver) HeadSHA(ctx context.Context) (string, error) {
	out, err := d.run(ctx, "rev-parse", "HEAD")
	return strings.TrimSpace(out), err
}

// AddAll stages every change (`git add --all`).
func (d *Driver) AddAll(ctx context.Context) error {
	_, err := d.run(ctx, "add", "--all")
	return err
}

// Commit commits staged changes with the given author (`Name <email>`) and
// message. If there is nothing to commit, it logs and returns ("", nil)
// rather than an error, matching the fallback commit policy of spec §4.7.
func (d *Driver) Commit(ctx context.Context, author, message string) (string, error) {
	out, err := d.run(ctx, "commit", "--author", author, "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") || strings.Contains(strings.ToLower(err.Error()), "nothing to commit") {
			log.Printf("nothing to commit")
			return "", nil
		}
		return "", err
	}
	return d.HeadSHA(ctx)
}

// CreateBranch creates and checks out a new branch from the current HEAD.
func (d *Driver) CreateBranch(ctx context.Context, name string) error {
	_, err := d.run(ctx, "checkout", "-b", name)
	return err
}

// PushUpstream pushes the current branch to origin, setting upstream.
func (d *Driver) PushUpstream(ctx context.Context, branch string) error {
	_, err := d.run(ctx, "push", "--set-upstream", "origin", branch)
	return err
}

// DeleteRemoteBranchIfExists deletes a remote branch, ignoring the
// "remote ref does not exist" case.
func (d *Driver) DeleteRemoteBranchIfExists(ctx context.Context, branch string) error {
	_, err := d.run(ctx, "push", "origin", "--delete", branch)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "remote ref does not exist") {
		return nil
	}
	return err
}

// CommitsSince returns the one-line log of commits between fromSHA
// (exclusive) and HEAD (inclusive), used to build the PR-body summary.
func (d *Driver) CommitsSince(ctx context.Context, fromSHA string) (string, error) {
	return d.run(ctx, "log", fromSHA+"..HEAD", "--format=%H %s")
}

// GrepCommits returns candidate SHAs (newest first) whose commit message
// matches keyword, for the git.extract action.
func (d *Driver) GrepCommits(ctx context.Context, keyword string) ([]string, error) {
	out, err := d.run(ctx, "log", "--grep", keyword, "--format=%H")
	if err != nil {
		return nil, err
	}
	var shas []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			shas = append(shas, line)
		}
	}
	return shas, nil
}

// ParentSHA returns the first parent of sha.
func (d *Driver) ParentSHA(ctx context.Context, sha string) (string, error) {
	out, err := d.run(ctx, "log", sha+"^1", "-1", "--format=%H")
	return strings.TrimSpace(out), err
}

// ShowFileAtCommit returns the content of path as of commit sha
// (`git show <sha>:<path>`).
func (d *Driver) ShowFileAtCommit(ctx context.Context, sha, path string) (string, error) {
	return d.run(ctx, "show", sha+":"+path)
}
