// Package agent wraps the Anthropic Messages API for one-off LLM
// completions used by the workflow engine (commit messages, pull
// request summaries, and `claude` actions).
//
// The interactive, multi-turn agent harness with custom tool
// registration and structured JSON-contract parsing has no equivalent
// library in this module's dependency set, so Execute and Commit are
// not implemented: only the single-shot Query path is real.
package agent

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

const (
	defaultMaxTokens = 8192
	defaultModel     = "claude-sonnet-4-20250514"
)

// Agent is the LLM contract the workflow engine and action dispatcher
// depend on.
type Agent struct {
	client *anthropic.Client
	model  string
}

// New builds an Agent from Anthropic provider configuration. It returns
// an error if no API key is configured, since every caller requires a
// working client.
func New(cfg model.AnthropicConfig) (*Agent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent: anthropic api_key is not configured")
	}
	if cfg.Bedrock {
		return nil, fmt.Errorf("agent: bedrock provider is not implemented")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Hostname != "" {
		opts = append(opts, option.WithBaseURL(cfg.Hostname))
	}
	client := anthropic.NewClient(opts...)

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}

	return &Agent{client: &client, model: modelName}, nil
}

// Query performs a single, non-interactive completion and returns the
// assistant's text response. It is the one agent operation with a real
// equivalent in the module's dependency set.
func (a *Agent) Query(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("agent: query: %w", err)
	}
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			return text.Text, nil
		}
	}
	return "", fmt.Errorf("agent: query: response contained no text block")
}

// Execute runs a `claude` action's prompt/validation-prompt cycle
// against a working directory. The original's interactive session
// management (custom MCP tool registration, multi-cycle validation,
// structured AgentRun parsing) depends on a Python-only SDK with no
// equivalent in this module's dependency set.
func (a *Agent) Execute(ctx context.Context, wfCtx *model.WorkflowContext, action model.Action) error {
	return fmt.Errorf("action %q: interactive claude execution is not implemented", action.Name)
}

// Commit asks the agent to stage and commit working-directory changes
// with a generated message. Like Execute, this depends on the
// interactive session harness and is not implemented; callers fall back
// to a templated commit message instead.
func (a *Agent) Commit(ctx context.Context, wfCtx *model.WorkflowContext) (string, error) {
	return "", fmt.Errorf("agent: interactive commit is not implemented")
}
