package model

import "fmt"

// ActionType is the tag that selects an action's executor.
type ActionType string

const (
	ActionCallable ActionType = "callable"
	ActionClaude   ActionType = "claude"
	ActionDocker   ActionType = "docker"
	ActionFile     ActionType = "file"
	ActionGit      ActionType = "git"
	ActionGitHub   ActionType = "github"
	ActionShell    ActionType = "shell"
	ActionTemplate ActionType = "template"
	ActionUtility  ActionType = "utility"
)

// File action sub-commands.
const (
	FileCommandAppend string = "append"
	FileCommandCopy   string = "copy"
	FileCommandDelete string = "delete"
	FileCommandMove   string = "move"
	FileCommandRename string = "rename"
	FileCommandWrite  string = "write"
)

// Git action sub-commands.
const (
	GitCommandExtract string = "extract"
)

// Docker action sub-commands.
const (
	DockerCommandBuild   string = "build"
	DockerCommandExtract string = "extract"
	DockerCommandPull    string = "pull"
	DockerCommandPush    string = "push"
)

// Utility action sub-commands.
const (
	UtilityCommandDockerTag             string = "docker_tag"
	UtilityCommandDockerfileFrom        string = "dockerfile_from"
	UtilityCommandCompareSemver         string = "compare_semver"
	UtilityCommandParsePythonConstraint string = "parse_python_constraints"
)

// GitHub action sub-commands.
const (
	GitHubCommandSyncEnvironments string = "sync_environments"
)

// Search strategies for git.extract.
const (
	SearchBeforeFirstMatch string = "before_first_match"
	SearchBeforeLastMatch  string = "before_last_match"
)

// Action is a single step of a workflow's action pipeline. It is a flat
// struct over the union of every tag's fields; Validate enforces that only
// the fields a given (Type, Command) pair allows are set, and that every
// field the pair requires is set.
type Action struct {
	Name          string        `toml:"name"`
	Type          ActionType    `toml:"type"`
	Conditions    []Condition   `toml:"conditions"`
	ConditionType ConditionType `toml:"condition_type"`
	// Committable defaults to true; nil means "unset, use the default".
	Committable *bool          `toml:"committable"`
	Filter      WorkflowFilter `toml:"filter"`
	Timeout     int            `toml:"timeout"`
	OnSuccess   string         `toml:"on_success"`
	OnFailure   string         `toml:"on_failure"`

	// Command is the sub-command discriminator for file/git/docker/utility/
	// github actions, or the literal command line for shell actions.
	Command string `toml:"command"`

	Path        string `toml:"path"`
	Content     string `toml:"content"`
	Encoding    string `toml:"encoding"`
	Source      string `toml:"source"`
	Destination string `toml:"destination"`
	Pattern     string `toml:"pattern"`

	CommitKeyword  string `toml:"commit_keyword"`
	SearchStrategy string `toml:"search_strategy"`
	IgnoreErrors   bool   `toml:"ignore_errors"`

	Image string `toml:"image"`
	Tag   string `toml:"tag"`

	SourcePath      string `toml:"source_path"`
	DestinationPath string `toml:"destination_path"`

	Prompt           string `toml:"prompt"`
	ValidationPrompt string `toml:"validation_prompt"`
	MaxCycles        int    `toml:"max_cycles"`

	Environments []string `toml:"environments"`
}

// IsCommittable resolves the Committable default: true, except git/docker
// actions and utility actions are forced non-committable since they
// produce artifacts consumed by later actions rather than direct edits.
func (a Action) IsCommittable() bool {
	if a.Committable != nil {
		return *a.Committable
	}
	switch a.Type {
	case ActionGit, ActionDocker, ActionUtility:
		return false
	default:
		return true
	}
}

type fieldRule struct {
	required []string
	allowed  []string
}

// commandRules implements the CommandRulesMixin pattern: a per-(type,
// command) table of required/allowed field names. Validate uses it to
// reject unknown-for-this-command fields and missing required ones.
var commandRules = map[ActionType]map[string]fieldRule{
	ActionFile: {
		FileCommandAppend: {required: []string{"path", "content"}, allowed: []string{"path", "content", "encoding"}},
		FileCommandWrite:  {required: []string{"path", "content"}, allowed: []string{"path", "content", "encoding"}},
		FileCommandCopy:   {required: []string{"source", "destination"}, allowed: []string{"source", "destination"}},
		FileCommandMove:   {required: []string{"source", "destination"}, allowed: []string{"source", "destination"}},
		FileCommandRename: {required: []string{"source", "destination"}, allowed: []string{"source", "destination"}},
		FileCommandDelete: {required: nil, allowed: []string{"path", "pattern"}},
	},
	ActionGit: {
		GitCommandExtract: {
			required: []string{"source", "destination", "commit_keyword"},
			allowed:  []string{"source", "destination", "commit_keyword", "search_strategy", "ignore_errors"},
		},
	},
	ActionDocker: {
		DockerCommandExtract: {required: []string{"image", "source", "destination"}, allowed: []string{"image", "tag", "source", "destination"}},
		DockerCommandBuild:   {required: []string{"image"}, allowed: []string{"image"}},
		DockerCommandPull:    {required: []string{"image"}, allowed: []string{"image", "tag"}},
		DockerCommandPush:    {required: []string{"image"}, allowed: []string{"image"}},
	},
	ActionUtility: {
		UtilityCommandDockerTag:             {},
		UtilityCommandDockerfileFrom:        {},
		UtilityCommandCompareSemver:         {},
		UtilityCommandParsePythonConstraint: {},
	},
	ActionGitHub: {
		GitHubCommandSyncEnvironments: {required: []string{"environments"}, allowed: []string{"environments"}},
	},
}

// Validate enforces spec §8's field-membership invariant for the action's
// tag, and recursively validates every embedded condition's exclusive
// groups.
func (a Action) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("action: name is required")
	}
	for i, c := range a.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("action %q: condition[%d]: %w", a.Name, i, err)
		}
	}

	switch a.Type {
	case ActionFile, ActionGit, ActionDocker, ActionUtility, ActionGitHub:
		rules, ok := commandRules[a.Type]
		if !ok {
			return fmt.Errorf("action %q: unknown type %q", a.Name, a.Type)
		}
		rule, ok := rules[a.Command]
		if !ok {
			return fmt.Errorf("action %q: unknown %s command %q", a.Name, a.Type, a.Command)
		}
		if a.Type == ActionFile && a.Command == FileCommandDelete {
			if a.Path == "" && a.Pattern == "" {
				return fmt.Errorf("action %q: delete requires path or pattern", a.Name)
			}
		}
		for _, req := range rule.required {
			if a.fieldValue(req) == "" {
				return fmt.Errorf("action %q: %s.%s requires field %q", a.Name, a.Type, a.Command, req)
			}
		}
		allowed := make(map[string]bool, len(rule.allowed))
		for _, f := range rule.allowed {
			allowed[f] = true
		}
		for _, f := range commandDiscriminatedFields {
			if a.isFieldSet(f) && !allowed[f] {
				return fmt.Errorf("action %q: %s.%s does not allow field %q", a.Name, a.Type, a.Command, f)
			}
		}
	case ActionShell:
		if a.Command == "" {
			return fmt.Errorf("action %q: shell requires command", a.Name)
		}
	case ActionTemplate:
		if a.SourcePath == "" || a.DestinationPath == "" {
			return fmt.Errorf("action %q: template requires source_path and destination_path", a.Name)
		}
	case ActionClaude:
		if a.Prompt == "" {
			return fmt.Errorf("action %q: claude requires prompt", a.Name)
		}
		if a.MaxCycles < 0 {
			return fmt.Errorf("action %q: max_cycles must be >= 1", a.Name)
		}
	case ActionCallable:
		// reserved extension point; no fields required yet.
	default:
		return fmt.Errorf("action %q: unknown type %q", a.Name, a.Type)
	}
	return nil
}

// commandDiscriminatedFields lists every field whose applicability varies
// by (Type, Command), per commandRules' allowed lists.
var commandDiscriminatedFields = []string{
	"path", "content", "encoding", "source", "destination", "pattern",
	"commit_keyword", "search_strategy", "ignore_errors",
	"image", "tag", "environments",
}

// isFieldSet reports whether a command-discriminated field holds a
// non-zero value, for the reverse allowed-fields check.
func (a Action) isFieldSet(name string) bool {
	switch name {
	case "path":
		return a.Path != ""
	case "content":
		return a.Content != ""
	case "encoding":
		return a.Encoding != ""
	case "source":
		return a.Source != ""
	case "destination":
		return a.Destination != ""
	case "pattern":
		return a.Pattern != ""
	case "commit_keyword":
		return a.CommitKeyword != ""
	case "search_strategy":
		return a.SearchStrategy != ""
	case "ignore_errors":
		return a.IgnoreErrors
	case "image":
		return a.Image != ""
	case "tag":
		return a.Tag != ""
	case "environments":
		return len(a.Environments) > 0
	default:
		return false
	}
}

// fieldValue returns the string value of a named field for required-field
// checks. Slice-valued fields (environments) are handled separately.
func (a Action) fieldValue(name string) string {
	switch name {
	case "path":
		return a.Path
	case "content":
		return a.Content
	case "source":
		return a.Source
	case "destination":
		return a.Destination
	case "commit_keyword":
		return a.CommitKeyword
	case "image":
		return a.Image
	case "environments":
		if len(a.Environments) > 0 {
			return "set"
		}
		return ""
	default:
		return ""
	}
}

// EffectiveSearchStrategy applies the before_last_match default.
func (a Action) EffectiveSearchStrategy() string {
	if a.SearchStrategy == "" {
		return SearchBeforeLastMatch
	}
	return a.SearchStrategy
}

// EffectiveTag applies the "latest" default for docker actions.
func (a Action) EffectiveTag() string {
	if a.Tag == "" {
		return "latest"
	}
	return a.Tag
}

// EffectiveMaxCycles applies the default of 3 cycles.
func (a Action) EffectiveMaxCycles() int {
	if a.MaxCycles <= 0 {
		return 3
	}
	return a.MaxCycles
}

// EffectiveEncoding applies the UTF-8 default.
func (a Action) EffectiveEncoding() string {
	if a.Encoding == "" {
		return "utf-8"
	}
	return a.Encoding
}
