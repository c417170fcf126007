package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(model.AnthropicConfig{})
	require.Error(t, err)
}

func TestNew_RejectsBedrock(t *testing.T) {
	_, err := New(model.AnthropicConfig{APIKey: "sk-test", Bedrock: true})
	require.Error(t, err)
}

func TestQuery_ReturnsAssistantText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "claude-sonnet-4-20250514", body.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         body.Model,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": "fallback commit message"},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	a, err := New(model.AnthropicConfig{APIKey: "sk-test", Hostname: srv.URL})
	require.NoError(t, err)

	text, err := a.Query(context.Background(), "summarize these commits")
	require.NoError(t, err)
	require.Equal(t, "fallback commit message", text)
}

func TestExecute_IsNotImplemented(t *testing.T) {
	a, err := New(model.AnthropicConfig{APIKey: "sk-test"})
	require.NoError(t, err)

	err = a.Execute(context.Background(), &model.WorkflowContext{}, model.Action{Name: "review"})
	require.Error(t, err)
}

func TestCommit_IsNotImplemented(t *testing.T) {
	a, err := New(model.AnthropicConfig{APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = a.Commit(context.Background(), &model.WorkflowContext{})
	require.Error(t, err)
}
