package cli

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

type workflowFile struct {
	Workflow model.Workflow `toml:"workflow"`
}

// loadWorkflow reads <dir>/config.toml and resolves the workflow's slug
// from the directory name when not explicitly set.
func loadWorkflow(dir string) (*model.Workflow, error) {
	path := filepath.Join(dir, "config.toml")
	var wf workflowFile
	meta, err := toml.DecodeFile(path, &wf)
	if err != nil {
		return nil, fmt.Errorf("workflow: parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("workflow: %s: unrecognized keys: %v", path, undecoded)
	}

	workflow := wf.Workflow
	workflow.Path = dir
	workflow.ResolveSlug()
	return &workflow, nil
}
