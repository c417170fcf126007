// Package httpclient implements the shared HTTP client base (C1): a
// connection-pooled, base-URL-prefixing, header-injecting client shared by
// every registry client (C2), built directly on net/http rather than
// cli/go-gh/v2's REST client because that client is hardwired to a single
// GitHub host and this base must serve GitHub, GitLab, and Imbi alike.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/ratelimit"
)

const defaultTimeout = 30 * time.Second

// Version is the product version embedded in the User-Agent header.
var Version = "dev"

// Config configures a single client instance.
type Config struct {
	// BaseURL, if set, is prepended to any request path that is not
	// already absolute (http://, https://, or //).
	BaseURL string
	// Headers are injected into every request, additively and
	// case-insensitively; they do not override a header the caller passes
	// explicitly in a request method's headers argument.
	Headers map[string]string
	Timeout time.Duration
	// Transport overrides the underlying RoundTripper; used by tests to
	// mock responses without a live server.
	Transport http.RoundTripper
	// RateLimit selects which operation bucket this client's requests draw
	// from (see pkg/ratelimit).
	RateLimit ratelimit.OperationType
}

// Client is a shared, base-URL-aware HTTP client.
type Client struct {
	http      *http.Client
	baseURL   *url.URL
	headers   http.Header
	limiter   *ratelimit.TokenBucket
	log       *logger.Logger
}

// New constructs a Client from Config. An empty BaseURL is valid; absolute
// request paths are always accepted regardless.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid base URL %q: %w", cfg.BaseURL, err)
		}
		base = u
	}

	headers := http.Header{}
	headers.Set("User-Agent", "imbi-automations/"+Version)
	headers.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	opType := cfg.RateLimit
	if opType == "" {
		opType = ratelimit.OperationImbiAPI
	}
	limiter, err := ratelimit.NewTokenBucket(opType, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: rate limiter: %w", err)
	}

	return &Client{
		http:    &http.Client{Timeout: timeout, Transport: cfg.Transport},
		baseURL: base,
		headers: headers,
		limiter: limiter,
		log:     logger.ForComponent("httpclient"),
	}, nil
}

// isAbsolute reports whether path is already a fully-qualified URL that
// should bypass base-URL prefixing.
func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//")
}

// resolve prepends the base URL to path unless path is already absolute.
func (c *Client) resolve(path string) (string, error) {
	if isAbsolute(path) || c.baseURL == nil {
		return path, nil
	}
	if _, err := url.Parse(path); err != nil {
		return "", fmt.Errorf("httpclient: invalid path %q: %w", path, err)
	}
	// Join rather than ResolveReference, which would drop a base path
	// such as GitLab's "/api/v4" for a path starting with "/".
	return strings.TrimSuffix(c.baseURL.String(), "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

// Response wraps the decoded result of a request: the status code, raw
// body, and a convenience JSON decoder.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// IsOK reports a 2xx status.
func (r *Response) IsOK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (c *Client) do(ctx context.Context, method, path string, body any, extraHeaders map[string]string) (*Response, error) {
	resolved, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, resolved, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	var resp *Response
	err = c.limiter.ExecuteWithRetry(ctx, func() error {
		c.log.Printf("%s %s", method, resolved)
		httpResp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("httpclient: %s %s: %w", method, resolved, err)
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("httpclient: read body: %w", err)
		}
		resp = &Response{StatusCode: httpResp.StatusCode, Body: data, Header: httpResp.Header}

		if httpResp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(data)), "rate limit exceeded") {
			return fmt.Errorf("rate limit exceeded: %s", resolved)
		}
		return nil
	})
	if err != nil && resp == nil {
		return nil, err
	}
	return resp, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, headers)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body, headers)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, headers)
}

// registry is the process-wide singleton-per-config keeper described in
// spec §4.1's "one instance per subclass" rule: each registry client (C2)
// calls GetOrCreate once with a stable key (its own type name) so repeated
// construction in different code paths reuses the same pooled client.
type registry struct {
	mu      sync.Mutex
	clients map[string]*Client
}

var shared = &registry{clients: make(map[string]*Client)}

// GetOrCreate returns the cached client for key, constructing it via
// factory on first use.
func GetOrCreate(key string, factory func() (*Client, error)) (*Client, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if c, ok := shared.clients[key]; ok {
		return c, nil
	}
	c, err := factory()
	if err != nil {
		return nil, err
	}
	shared.clients[key] = c
	return c, nil
}

// CloseAll idles out every pooled client's underlying transport. HTTP
// clients built on net/http have no explicit handle to close; this walks
// the registry and calls CloseIdleConnections on each so process exit does
// not leave sockets lingering.
func CloseAll() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	for _, c := range shared.clients {
		c.http.CloseIdleConnections()
	}
	shared.clients = make(map[string]*Client)
}
