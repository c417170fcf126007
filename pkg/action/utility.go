package action

import (
	"fmt"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

// executeUtility intentionally returns "not implemented" for every
// command: none of the four utility commands have a defined
// implementation to port.
func executeUtility(a model.Action) error {
	switch a.Command {
	case model.UtilityCommandDockerTag:
		return fmt.Errorf("action %q: utility.docker_tag is not implemented", a.Name)
	case model.UtilityCommandDockerfileFrom:
		return fmt.Errorf("action %q: utility.dockerfile_from is not implemented", a.Name)
	case model.UtilityCommandCompareSemver:
		return fmt.Errorf("action %q: utility.compare_semver is not implemented", a.Name)
	case model.UtilityCommandParsePythonConstraint:
		return fmt.Errorf("action %q: utility.parse_python_constraints is not implemented", a.Name)
	default:
		return fmt.Errorf("action %q: unsupported utility command %q", a.Name, a.Command)
	}
}
