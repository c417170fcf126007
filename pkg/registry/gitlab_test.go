package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/httpclient"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newGitLabTestClient(t *testing.T, srv *httptest.Server) *GitLab {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return &GitLab{client: c, log: logger.ForComponent("test:gitlab")}
}

func TestGitLab_GetProject_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gl := newGitLabTestClient(t, srv)
	proj, err := gl.GetProject(context.Background(), 42)
	require.NoError(t, err)
	require.Nil(t, proj)
}

func TestGitLab_GetProjectByPath_URLEncodesPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":5,"path_with_namespace":"acme/widget"}`))
	}))
	defer srv.Close()

	gl := newGitLabTestClient(t, srv)
	proj, err := gl.GetProjectByPath(context.Background(), "acme/widget")
	require.NoError(t, err)
	require.NotNil(t, proj)
	require.Equal(t, "/projects/acme%2Fwidget", gotPath)
}
