package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/httpclient"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

func newGitHubTestClient(t *testing.T, srv *httptest.Server) *GitHub {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return &GitHub{client: c, log: logger.ForComponent("test:github")}
}

func TestGitHub_GetRepository_NotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gh := newGitHubTestClient(t, srv)
	repo, err := gh.GetRepository(context.Background(), "acme", "widget")
	require.NoError(t, err)
	require.Nil(t, repo)
}

func TestGitHub_GetRepository_RateLimitClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded for xxx"}`))
	}))
	defer srv.Close()

	gh := newGitHubTestClient(t, srv)
	_, err := gh.GetRepository(context.Background(), "acme", "widget")
	require.Error(t, err)
	var rle *model.RateLimitError
	require.True(t, errors.As(err, &rle))
}

func TestGitHub_GetRepository_AccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"blocked"}`))
	}))
	defer srv.Close()

	gh := newGitHubTestClient(t, srv)
	_, err := gh.GetRepository(context.Background(), "acme", "widget")
	require.Error(t, err)
	var ade *model.AccessDeniedError
	require.True(t, errors.As(err, &ade))
}

func TestGitHub_GetRepository_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widget", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":1,"name":"widget","default_branch":"main","owner":{"login":"acme"}}`))
	}))
	defer srv.Close()

	gh := newGitHubTestClient(t, srv)
	repo, err := gh.GetRepository(context.Background(), "acme", "widget")
	require.NoError(t, err)
	require.NotNil(t, repo)
	require.Equal(t, "acme/widget", repo.FullName())
}

func TestGitHub_SyncProjectEnvironments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"environments":[{"name":"staging"},{"name":"legacy"}]}`))
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	gh := newGitHubTestClient(t, srv)
	result, err := gh.SyncProjectEnvironments(context.Background(), "acme", "widget", []string{"staging", "production"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, []string{"production"}, result.Created)
	require.Equal(t, []string{"legacy"}, result.Deleted)
}
