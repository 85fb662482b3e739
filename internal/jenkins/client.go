// Package jenkins is a minimal client for the Jenkins remote access API.
package jenkins

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/jenkinsator/jenkinsator/internal/logging"
	"github.com/jenkinsator/jenkinsator/internal/remote"
)

// Options configures a Client.
type Options struct {
	URL                string
	Login              string
	Password           string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Retry              *RetryPolicy
}

// APIError is a non-2xx answer other than 404.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string

	// RetryAfter is the pause requested by a 429 or 503 answer, if any.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to one Jenkins master. It is not safe for concurrent use.
type Client struct {
	baseURL  string
	login    string
	password string
	http     *http.Client
	retry    *RetryPolicy

	crumbField   string
	crumbValue   string
	crumbFetched bool

	// Version is the master's version, known after Connect.
	Version string
}

var _ remote.Client = (*Client)(nil)

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", opts.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", opts.URL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", opts.URL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	retry := opts.Retry
	if retry == nil {
		retry = DefaultRetryPolicy()
	}

	return &Client{
		baseURL:  strings.TrimSuffix(u.Scheme+"://"+u.Host+u.EscapedPath(), "/"),
		login:    opts.Login,
		password: opts.Password,
		http:     &http.Client{Timeout: timeout, Jar: jar, Transport: transport},
		retry:    retry,
	}, nil
}

// Connect checks that the master is reachable and the credentials work.
func (c *Client) Connect(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/json", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	c.Version = resp.Header.Get("X-Jenkins")
	logging.Info("connected to Jenkins", "url", c.baseURL, "version", c.Version, "user", c.login)
	return nil
}

func (c *Client) GetConfig(ctx context.Context, kind ir.ResourceKind, name string) (string, error) {
	path, err := itemPath(kind, name)
	if err != nil {
		return "", err
	}
	resp, err := c.get(ctx, path+"/config.xml", nil)
	if err != nil {
		return "", fmt.Errorf("get config of %s %q: %w", kind, name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read config of %s %q: %w", kind, name, err)
	}
	return string(data), nil
}

func (c *Client) SetConfig(ctx context.Context, kind ir.ResourceKind, name, document string) error {
	path, err := itemPath(kind, name)
	if err != nil {
		return err
	}
	if err := c.post(ctx, path+"/config.xml", nil, strings.NewReader(document), "application/xml"); err != nil {
		return fmt.Errorf("set config of %s %q: %w", kind, name, err)
	}
	return nil
}

func (c *Client) Create(ctx context.Context, kind ir.ResourceKind, name, document string) error {
	if kind != ir.KindJob {
		return fmt.Errorf("creating a %s from a configuration file is not supported", kind)
	}
	parent, leaf, err := splitJobName(name)
	if err != nil {
		return err
	}
	query := url.Values{"name": {leaf}}
	if err := c.post(ctx, parent+"/createItem", query, strings.NewReader(document), "application/xml"); err != nil {
		return fmt.Errorf("create job %q: %w", name, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, kind ir.ResourceKind, name string) error {
	path, err := itemPath(kind, name)
	if err != nil {
		return err
	}
	if err := c.post(ctx, path+"/doDelete", nil, nil, ""); err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, name, err)
	}
	return nil
}

func (c *Client) Enable(ctx context.Context, kind ir.ResourceKind, name string) error {
	if kind == ir.KindNode {
		return c.setNodeOnline(ctx, name, true)
	}
	return c.jobVerb(ctx, name, "enable")
}

func (c *Client) Disable(ctx context.Context, kind ir.ResourceKind, name string) error {
	if kind == ir.KindNode {
		return c.setNodeOnline(ctx, name, false)
	}
	return c.jobVerb(ctx, name, "disable")
}

// Build queues a build. Parameterized jobs reject /build with 400 and are
// retried through /buildWithParameters using their defaults.
func (c *Client) Build(ctx context.Context, name string) error {
	err := c.jobVerb(ctx, name, "build")
	var apiErr *APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		logging.Debug("job is parameterized, building with defaults", "job", name)
		return c.jobVerb(ctx, name, "buildWithParameters")
	}
	return err
}

func (c *Client) jobVerb(ctx context.Context, name, verb string) error {
	path, err := jobPath(name)
	if err != nil {
		return err
	}
	if err := c.post(ctx, path+"/"+verb, nil, nil, ""); err != nil {
		return fmt.Errorf("%s job %q: %w", verb, name, err)
	}
	return nil
}

// setNodeOnline drives the temporarilyOffline flag, which is what
// toggleOffline flips. offline alone also covers disconnected agents.
func (c *Client) setNodeOnline(ctx context.Context, name string, online bool) error {
	var info struct {
		Offline            bool `json:"offline"`
		TemporarilyOffline bool `json:"temporarilyOffline"`
	}
	path := nodePath(name)
	query := url.Values{"tree": {"offline,temporarilyOffline"}}
	if err := c.getJSON(ctx, path+"/api/json", query, &info); err != nil {
		return fmt.Errorf("get node %q: %w", name, err)
	}
	if info.TemporarilyOffline == !online {
		logging.Debug("node already in requested state", "node", name, "online", online, "offline", info.Offline)
		return nil
	}
	var query url.Values
	if !online {
		query = url.Values{"offlineMessage": {"disabled by jenkinsator"}}
	}
	if err := c.post(ctx, path+"/toggleOffline", query, nil, ""); err != nil {
		return fmt.Errorf("toggle node %q: %w", name, err)
	}
	return nil
}

func (c *Client) ListNodes(ctx context.Context) ([]ir.Node, error) {
	var payload struct {
		Computer []struct {
			DisplayName string `json:"displayName"`
			Offline     bool   `json:"offline"`
		} `json:"computer"`
	}
	query := url.Values{"tree": {"computer[displayName,offline]"}}
	if err := c.getJSON(ctx, "/computer/api/json", query, &payload); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	nodes := make([]ir.Node, 0, len(payload.Computer))
	for _, n := range payload.Computer {
		nodes = append(nodes, ir.Node{Name: n.DisplayName, Offline: n.Offline})
	}
	return nodes, nil
}

func (c *Client) ListPlugins(ctx context.Context) ([]ir.Plugin, error) {
	var payload struct {
		Plugins []ir.Plugin `json:"plugins"`
	}
	if err := c.getJSON(ctx, "/pluginManager/api/json", url.Values{"depth": {"1"}}, &payload); err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	return payload.Plugins, nil
}

func (c *Client) RunScript(ctx context.Context, script string) (string, error) {
	form := url.Values{"script": {script}}
	resp, err := c.send(ctx, http.MethodPost, "/scriptText", nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", fmt.Errorf("run script: %w", err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read script output: %w", err)
	}
	return string(out), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get retries transient failures; the response body is the caller's to close.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	var resp *http.Response
	err := RetryWithBackoff(ctx, c.retry, func() error {
		var err error
		resp, err = c.do(ctx, http.MethodGet, path, query, nil, "")
		return err
	}, IsTransientError)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body io.Reader, contentType string) error {
	resp, err := c.send(ctx, http.MethodPost, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// send is a single write attempt carrying the CSRF crumb. Writes are not retried.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.ensureCrumb(ctx); err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, query, body, contentType)
}

func (c *Client) ensureCrumb(ctx context.Context) error {
	if c.crumbFetched {
		return nil
	}
	var crumb struct {
		Field string `json:"crumbRequestField"`
		Crumb string `json:"crumb"`
	}
	err := c.getJSON(ctx, "/crumbIssuer/api/json", nil, &crumb)
	switch {
	case err == nil:
		c.crumbField, c.crumbValue = crumb.Field, crumb.Crumb
	case isNotFound(err):
		logging.Debug("CSRF protection disabled on master")
	default:
		return fmt.Errorf("fetch CSRF crumb: %w", err)
	}
	c.crumbFetched = true
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("NewRequest(%q, %q) failed: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.login != "" {
		req.SetBasicAuth(c.login, c.password)
	}
	if method != http.MethodGet && c.crumbField != "" {
		req.Header.Set(c.crumbField, c.crumbValue)
	}

	logging.Debug("jenkins request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(method, path, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkResponse(method, path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, remote.ErrNotFound)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter understands the delta-seconds form only.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
