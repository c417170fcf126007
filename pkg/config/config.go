// Package config loads and validates the process-wide TOML
// configuration file, grounded on the teacher's config-loading idiom of
// strict decode-then-validate and on models/configuration.py's field
// defaults (default hostnames, an ANTHROPIC_API_KEY environment
// fallback).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

const (
	defaultGitHubHostname = "github.com"
	defaultGitLabHostname = "gitlab.com"
)

// Load decodes the TOML file at path into a Configuration, rejecting
// unrecognized keys so a typo'd setting fails loudly instead of being
// silently ignored, then applies defaults and validates required
// fields.
func Load(path string) (*model.Configuration, error) {
	var cfg model.Configuration
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unrecognized keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *model.Configuration) {
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.GitHub.Hostname == "" {
		cfg.GitHub.Hostname = defaultGitHubHostname
	}
	if cfg.GitLab.Hostname == "" {
		cfg.GitLab.Hostname = defaultGitLabHostname
	}
}

func validate(cfg model.Configuration) error {
	if cfg.Imbi.APIKey == "" {
		return fmt.Errorf("imbi.api_key is required")
	}
	if cfg.Imbi.Hostname == "" {
		return fmt.Errorf("imbi.hostname is required")
	}
	if cfg.GitHub.APIKey == "" && cfg.GitLab.APIKey == "" {
		return fmt.Errorf("at least one of github.api_key or gitlab.api_key must be configured")
	}
	if cfg.ClaudeCode.Enabled && cfg.Anthropic.APIKey == "" {
		return fmt.Errorf("claude_code.enabled requires anthropic.api_key (or ANTHROPIC_API_KEY)")
	}
	return nil
}
