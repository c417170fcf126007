package model

// AnthropicConfig holds LLM provider credentials (spec §6 `[anthropic]`).
type AnthropicConfig struct {
	APIKey   string `toml:"api_key"`
	Hostname string `toml:"hostname"`
	Bedrock  bool   `toml:"bedrock"`
	Model    string `toml:"model"`
}

// GitHubConfig holds GitHub credentials (spec §6 `[github]`).
type GitHubConfig struct {
	APIKey   string `toml:"api_key"`
	Hostname string `toml:"hostname"`
}

// GitLabConfig holds GitLab credentials (spec §6 `[gitlab]`).
type GitLabConfig struct {
	APIKey   string `toml:"api_key"`
	Hostname string `toml:"hostname"`
}

// ImbiConfig holds project-registry credentials and link-name overrides
// (spec §6 `[imbi]`). The non-github/gitlab link names are a supplemented
// feature carried from the original configuration model; they are
// configuration surface only, consumed by Project.Link.
type ImbiConfig struct {
	APIKey    string `toml:"api_key"`
	Hostname  string `toml:"hostname"`

	GitHubLink   string `toml:"github_link"`
	GitLabLink   string `toml:"gitlab_link"`
	GrafanaLink  string `toml:"grafana_link"`
	PagerDutyLink string `toml:"pagerduty_link"`
	SentryLink   string `toml:"sentry_link"`
	SonarQubeLink string `toml:"sonarqube_link"`

	GitHubIdentifier string `toml:"github_identifier"`
	GitLabIdentifier string `toml:"gitlab_identifier"`
}

// EffectiveGitHubLink applies the "github" default link name.
func (c ImbiConfig) EffectiveGitHubLink() string {
	if c.GitHubLink == "" {
		return "github"
	}
	return c.GitHubLink
}

// EffectiveGitLabLink applies the "gitlab" default link name.
func (c ImbiConfig) EffectiveGitLabLink() string {
	if c.GitLabLink == "" {
		return "gitlab"
	}
	return c.GitLabLink
}

// EffectiveGitHubIdentifier applies the "github" default identifier key.
func (c ImbiConfig) EffectiveGitHubIdentifier() string {
	if c.GitHubIdentifier == "" {
		return "github"
	}
	return c.GitHubIdentifier
}

// ClaudeCodeConfig toggles the LLM-backed commit/PR-body generation path.
type ClaudeCodeConfig struct {
	Enabled bool `toml:"enabled"`
}

// Configuration is the process-wide, read-only configuration constructed
// once at startup from the CONFIG TOML file.
type Configuration struct {
	Anthropic  AnthropicConfig  `toml:"anthropic"`
	GitHub     GitHubConfig     `toml:"github"`
	GitLab     GitLabConfig     `toml:"gitlab"`
	Imbi       ImbiConfig       `toml:"imbi"`
	ClaudeCode ClaudeCodeConfig `toml:"claude_code"`

	CommitAuthor    string `toml:"commit_author"`
	AICommits       bool   `toml:"ai_commits"`
	PreserveOnError bool   `toml:"preserve_on_error"`
	ErrorDir        string `toml:"error_dir"`

	MaxConcurrency int `toml:"max_concurrency"`
}

// EffectiveMaxConcurrency applies the default concurrency cap (spec §5:
// "default small, e.g. 5-10").
func (c Configuration) EffectiveMaxConcurrency() int {
	if c.MaxConcurrency <= 0 {
		return 5
	}
	return c.MaxConcurrency
}

// LLMEnabled reports whether the LLM-backed commit/PR-body path is usable:
// both the feature flag and a configured Anthropic API key are required.
func (c Configuration) LLMEnabled() bool {
	return c.ClaudeCode.Enabled && c.Anthropic.APIKey != ""
}
