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

func newImbiTestClient(t *testing.T, srv *httptest.Server) *Imbi {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return &Imbi{client: c, log: logger.ForComponent("test:imbi")}
}

func TestImbi_GetAllProjects_PaginatesAndSorts(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.WriteHeader(http.StatusOK)
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"projects":[{"id":2,"project_slug":"zeta"},{"id":1,"project_slug":"alpha"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"projects":[]}`))
	}))
	defer srv.Close()

	imbi := newImbiTestClient(t, srv)
	projects, err := imbi.GetAllProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "alpha", projects[0].Slug)
	require.Equal(t, "zeta", projects[1].Slug)
}

func TestImbi_GetAllProjects_StopsOnShortPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"projects":[{"id":1,"project_slug":"only"}]}`))
	}))
	defer srv.Close()

	imbi := newImbiTestClient(t, srv)
	projects, err := imbi.GetAllProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, 1, calls)
}
