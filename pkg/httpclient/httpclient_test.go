package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_BaseURLPrefixing(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/repos/acme/widget", nil)
	require.NoError(t, err)
	require.True(t, resp.IsOK())
	require.Equal(t, "/repos/acme/widget", gotPath)
}

func TestClient_AbsoluteURLBypassesBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: "https://unused.example.invalid"})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/anything", nil)
	require.NoError(t, err)
	require.True(t, resp.IsOK())
}

func TestClient_HeadersAreAdditive(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Headers: map[string]string{"Authorization": "Bearer token123"}})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer token123", gotAuth)
	require.Contains(t, gotUA, "imbi-automations/")
}

func TestGetOrCreate_Memoizes(t *testing.T) {
	calls := 0
	factory := func() (*Client, error) {
		calls++
		return New(Config{})
	}

	a, err := GetOrCreate("test-key", factory)
	require.NoError(t, err)
	b, err := GetOrCreate("test-key", factory)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, calls)
}
