package action

import (
	"fmt"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/template"
)

func executeTemplate(wfCtx *model.WorkflowContext, a model.Action) error {
	source := resolvePath(wfCtx, a.SourcePath)
	dest := resolvePath(wfCtx, a.DestinationPath)

	if err := template.Render(source, dest, wfCtx.TemplateData(nil)); err != nil {
		return fmt.Errorf("action %q: %w", a.Name, err)
	}
	return nil
}
