// Package dockerdriver implements the docker subprocess wrapper (C4):
// pull/create/cp/rm for the docker.extract action, in the same
// os/exec idiom as pkg/gitdriver.
package dockerdriver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
)

var log = logger.ForComponent("docker")

var containerSeq int64

// nextContainerName returns a unique, process-local container name for an
// extract operation, mirroring the original's `imbi-extract-{id(action)}`.
func nextContainerName() string {
	return fmt.Sprintf("imbi-extract-%d", atomic.AddInt64(&containerSeq, 1))
}

// Driver runs docker subprocess commands.
type Driver struct{}

// New returns a Driver. Docker has no working-directory state, unlike git.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) run(ctx context.Context, checkExit bool, args ...string) (string, error) {
	log.Printf("docker %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "docker", args...)
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

	if err != nil {
		var exitErr *exec.ExitError
		if !checkExit && errorsAsExitError(err, &exitErr) {
			return stdout.String(), nil
		}
		if strings.Contains(err.Error(), "executable file not found") {
			return "", fmt.Errorf("dockerdriver: docker not found in PATH: %w", err)
		}
		msg := stderr.String()
		if msg == "" {
			msg = stdout.String()
		}
		return "", fmt.Errorf("docker %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

func errorsAsExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// Pull runs `docker pull <image>`.
func (d *Driver) Pull(ctx context.Context, image string) error {
	_, err := d.run(ctx, true, "pull", image)
	return err
}

// Create runs `docker create --name <name> <image>` and returns the
// container name for later Cp/Remove calls.
func (d *Driver) Create(ctx context.Context, image string) (string, error) {
	name := nextContainerName()
	if _, err := d.run(ctx, true, "create", "--name", name, image); err != nil {
		return "", err
	}
	return name, nil
}

// Cp runs `docker cp <container>:<srcPath> <destPath>`.
func (d *Driver) Cp(ctx context.Context, container, srcPath, destPath string) error {
	_, err := d.run(ctx, true, "cp", container+":"+srcPath, destPath)
	return err
}

// Remove runs `docker rm <container>`, ignoring a non-zero exit so
// cleanup never masks the extract operation's own error.
func (d *Driver) Remove(ctx context.Context, container string) error {
	_, err := d.run(ctx, false, "rm", container)
	return err
}

// Build does not run `docker build`; it always returns a "not
// implemented" error. Spec §4.2 leaves docker.build out of scope for the
// current core; the method exists so the dispatcher can return a clear
// error rather than silently no-op.
func (d *Driver) Build(context.Context, string) error {
	return fmt.Errorf("dockerdriver: docker.build is not implemented")
}

// Push does not run `docker push`; it always returns a "not implemented"
// error, for the same reason as Build.
func (d *Driver) Push(context.Context, string) error {
	return fmt.Errorf("dockerdriver: docker.push is not implemented")
}

// ImageWithTag appends ":tag" to image when image carries no tag/digest
// already (no ':' present), matching the original's extract-action default.
func ImageWithTag(image, tag string) string {
	if strings.Contains(image, ":") {
		return image
	}
	if tag == "" {
		tag = "latest"
	}
	return image + ":" + tag
}
