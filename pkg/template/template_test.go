package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderString_SubstitutesFields(t *testing.T) {
	out, err := RenderString("t", "hello {{.Name}}", struct{ Name string }{Name: "widget"})
	require.NoError(t, err)
	require.Equal(t, "hello widget", out)
}

func TestRenderString_MissingKeyIsError(t *testing.T) {
	_, err := RenderString("t", "hello {{.Missing}}", struct{ Name string }{Name: "widget"})
	require.Error(t, err)
}

func TestRenderFile_WritesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "greeting.tmpl")
	require.NoError(t, os.WriteFile(src, []byte("hi {{.Name}}"), 0o644))

	dest := filepath.Join(dir, "out", "greeting.txt")
	require.NoError(t, RenderFile(src, dest, struct{ Name string }{Name: "acme"}))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "hi acme", string(content))
}

func TestRenderTree_PreservesStructure(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("{{.Name}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "deep.txt"), []byte("nested {{.Name}}"), 0o644))

	dest := t.TempDir()
	count, err := RenderTree(src, dest, struct{ Name string }{Name: "acme"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	top, err := os.ReadFile(filepath.Join(dest, "top.txt"))
	require.NoError(t, err)
	require.Equal(t, "acme", string(top))

	deep, err := os.ReadFile(filepath.Join(dest, "nested", "deep.txt"))
	require.NoError(t, err)
	require.Equal(t, "nested acme", string(deep))
}

func TestExtractImageFromDockerfile_ReturnsLastFromImage(t *testing.T) {
	dir := t.TempDir()
	dockerfile := filepath.Join(dir, "Dockerfile")
	content := "FROM golang:1.25 AS build\nRUN go build ./...\nFROM alpine:3.19\nCOPY --from=build /app /app\n"
	require.NoError(t, os.WriteFile(dockerfile, []byte(content), 0o644))

	image, err := ExtractImageFromDockerfile(dockerfile)
	require.NoError(t, err)
	require.Equal(t, "alpine:3.19", image)
}

func TestExtractImageFromDockerfile_NoFromIsError(t *testing.T) {
	dir := t.TempDir()
	dockerfile := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(dockerfile, []byte("RUN echo hi\n"), 0o644))

	_, err := ExtractImageFromDockerfile(dockerfile)
	require.Error(t, err)
}
