package action

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/template"
)

func executeShell(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	command := a.Command
	if hasTemplateSyntax(command) {
		rendered, err := template.RenderString(a.Name, command, wfCtx.TemplateData(nil))
		if err != nil {
			return fmt.Errorf("action %q: render shell command: %w", a.Name, err)
		}
		command = rendered
	}

	args, err := shellwords.Parse(command)
	if err != nil {
		return fmt.Errorf("action %q: invalid shell command syntax: %w", a.Name, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("action %q: empty shell command", a.Name)
	}

	cwd := wfCtx.WorkingDirectory
	if info, err := os.Stat(wfCtx.RepositoryDir()); err == nil && info.IsDir() {
		cwd = wfCtx.RepositoryDir()
	}

	log.Printf("executing shell command: %s", command)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if stdout.Len() > 0 {
		log.Printf("stdout: %s", stdout.String())
	}
	if stderr.Len() > 0 {
		log.Printf("stderr: %s", stderr.String())
	}

	if err != nil {
		if a.IgnoreErrors {
			log.Printf("shell command failed (ignored): %v: %s", err, stderr.String())
			return nil
		}
		return fmt.Errorf("action %q: shell command failed: %w: %s", a.Name, err, stderr.String())
	}
	return nil
}
