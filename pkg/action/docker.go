package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AWeber-Imbi/imbi-automations/pkg/dockerdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/template"
)

func (d *Dispatcher) executeDocker(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	switch a.Command {
	case model.DockerCommandExtract:
		return d.dockerExtract(ctx, wfCtx, a)
	case model.DockerCommandBuild:
		return d.Docker.Build(ctx, a.Image)
	case model.DockerCommandPull:
		return d.Docker.Pull(ctx, dockerdriver.ImageWithTag(a.Image, a.EffectiveTag()))
	case model.DockerCommandPush:
		return d.Docker.Push(ctx, a.Image)
	default:
		return fmt.Errorf("action %q: unsupported docker command %q", a.Name, a.Command)
	}
}

func (d *Dispatcher) dockerExtract(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	image := a.Image
	if hasTemplateSyntax(image) {
		rendered, err := template.RenderString(a.Name, image, wfCtx.TemplateData(nil))
		if err != nil {
			return fmt.Errorf("action %q: render image: %w", a.Name, err)
		}
		image = rendered
	}
	image = dockerdriver.ImageWithTag(image, a.EffectiveTag())

	destPath := filepath.Join(wfCtx.ExtractedDir(), a.Destination)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(destPath), err)
	}

	log.Printf("extracting %s from container image %s to %s", a.Source, image, destPath)

	if err := d.Docker.Pull(ctx, image); err != nil {
		return fmt.Errorf("action %q: %w", a.Name, err)
	}

	container, err := d.Docker.Create(ctx, image)
	if err != nil {
		return fmt.Errorf("action %q: %w", a.Name, err)
	}
	defer func() {
		if err := d.Docker.Remove(ctx, container); err != nil {
			log.Printf("failed to clean up container %s: %v", container, err)
		}
	}()

	if err := d.Docker.Cp(ctx, container, a.Source, destPath); err != nil {
		return fmt.Errorf("action %q: %w", a.Name, err)
	}
	log.Printf("successfully extracted %s to %s", a.Source, destPath)
	return nil
}
