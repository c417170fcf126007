package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionValidate_ExclusiveLocalGroup(t *testing.T) {
	c := Condition{FileExists: "a", FileNotExists: "b"}
	require.Error(t, c.Validate())
}

func TestConditionValidate_FileContainsRequiresFile(t *testing.T) {
	c := Condition{FileContains: "TODO"}
	require.Error(t, c.Validate())

	ok := Condition{FileContains: "TODO", File: "README.md"}
	require.NoError(t, ok.Validate())
}

func TestConditionValidate_RemoteRequiresClient(t *testing.T) {
	c := Condition{RemoteFileExists: "Dockerfile"}
	require.Error(t, c.Validate())

	ok := Condition{RemoteFileExists: "Dockerfile", RemoteClient: RemoteClientGitHub}
	require.NoError(t, ok.Validate())
}

func TestConditionGroups(t *testing.T) {
	empty := Condition{}
	assert.False(t, empty.IsLocal())
	assert.False(t, empty.IsRemote())

	local := Condition{FileExists: "go.mod"}
	assert.True(t, local.IsLocal())
	assert.False(t, local.IsRemote())
}
