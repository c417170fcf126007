package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode_NilIsSuccess(t *testing.T) {
	require.Equal(t, ExitSuccess, ExitCode(nil))
}

func TestExitCode_PlainErrorIsRunFailure(t *testing.T) {
	require.Equal(t, ExitRunFailure, ExitCode(errors.New("boom")))
}

func TestExitCode_MisconfiguredWrapped(t *testing.T) {
	err := &exitError{code: ExitMisconfigured, err: errors.New("bad config")}
	wrapped := errors.New("context: " + err.Error())
	require.Equal(t, ExitRunFailure, ExitCode(wrapped)) // plain wrap, not Unwrap()-able
	require.Equal(t, ExitMisconfigured, ExitCode(err))
}

func TestNewRootCommand_RequiresTwoPositionalArgs(t *testing.T) {
	cmd := NewRootCommand("test")
	cmd.SetArgs([]string{"only-one-arg"})
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
}

func TestNewRootCommand_RejectsConflictingTargetFlags(t *testing.T) {
	cmd := NewRootCommand("test")
	cmd.SetArgs([]string{"config.toml", "workflow-dir", "--all-imbi-projects", "--imbi-project-id", "5"})
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
}
