package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSlug_DerivedFromPath(t *testing.T) {
	w := Workflow{Path: "/workflows/Update_Python_Version/"}
	w.ResolveSlug()
	assert.Equal(t, "update-python-version", w.Slug)
}

func TestResolveSlug_ExplicitWins(t *testing.T) {
	w := Workflow{Path: "/workflows/foo", Slug: "custom-slug"}
	w.ResolveSlug()
	assert.Equal(t, "custom-slug", w.Slug)
}

func TestWorkflowContext_Paths(t *testing.T) {
	ctx := &WorkflowContext{WorkingDirectory: "/tmp/run-1"}
	assert.Equal(t, "/tmp/run-1/repository", ctx.RepositoryDir())
	assert.Equal(t, "/tmp/run-1/workflow", ctx.WorkflowDir())
	assert.Equal(t, "/tmp/run-1/extracted", ctx.ExtractedDir())
}
