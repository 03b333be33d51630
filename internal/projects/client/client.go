// Package client talks to the portfolio API. It implements the repository,
// media store and upload authorization collaborators used by the sync engine
// and edit sessions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

const (
	DefaultTimeout = 15 * time.Second
	// UploadTimeout applies to media uploads.
	UploadTimeout = 5 * time.Minute

	sessionCookie = "admin_session"
)

// Client is an API client bound to one server. Login state is kept in a
// cookie jar.
type Client struct {
	baseURL       *url.URL
	jar           http.CookieJar
	defaultClient *http.Client
	uploadClient  *http.Client
	streamClient  *http.Client // no timeout; bounded by ctx
}

type Option func(*Client)

// WithTimeout overrides DefaultTimeout for regular API calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultClient.Timeout = d }
}

// WithTransport routes every request through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.defaultClient.Transport = rt
		c.uploadClient.Transport = rt
		c.streamClient.Transport = rt
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:       u,
		jar:           jar,
		defaultClient: &http.Client{Timeout: DefaultTimeout, Jar: jar},
		uploadClient:  &http.Client{Timeout: UploadTimeout, Jar: jar},
		streamClient:  &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SessionToken returns the admin session held by the client, if any.
func (c *Client) SessionToken() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == sessionCookie {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken restores a session saved from an earlier login.
func (c *Client) SetSessionToken(token string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: sessionCookie, Value: token, Path: "/"}})
}

// CanUpload reports whether the client holds a session. The server still
// has the final say.
func (c *Client) CanUpload(context.Context) bool {
	return c.SessionToken() != ""
}

// Login exchanges admin credentials for a session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, c.defaultClient, http.MethodPost, "/api/auth/login", body, nil)
}

// Logout drops the session on both sides.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, c.defaultClient, http.MethodPost, "/api/auth/logout", nil, nil)
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1}})
	return err
}

// Check reports whether the server accepts the current session.
func (c *Client) Check(ctx context.Context) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.do(ctx, c.defaultClient, http.MethodGet, "/api/auth/check", nil, &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

type projectsResp struct {
	Projects []domain.Project `json:"projects"`
}

type projectResp struct {
	Project domain.Project `json:"project"`
}

// List returns every project, most recent first.
func (c *Client) List(ctx context.Context) ([]domain.Project, error) {
	var resp projectsResp
	if err := c.do(ctx, c.defaultClient, http.MethodGet, "/api/v1/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Project, error) {
	var resp projectResp
	if err := c.do(ctx, c.defaultClient, http.MethodGet, "/api/v1/projects/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.Project{}, err
	}
	return resp.Project, nil
}

func (c *Client) Create(ctx context.Context, p domain.Project) (domain.Project, error) {
	var resp projectResp
	if err := c.do(ctx, c.defaultClient, http.MethodPost, "/api/v1/projects", p, &resp); err != nil {
		return domain.Project{}, err
	}
	return resp.Project, nil
}

func (c *Client) Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	var resp projectResp
	if err := c.do(ctx, c.defaultClient, http.MethodPut, "/api/v1/projects/"+url.PathEscape(id), patch, &resp); err != nil {
		return domain.Project{}, err
	}
	return resp.Project, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, c.defaultClient, http.MethodDelete, "/api/v1/projects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do sends a JSON request and decodes a JSON envelope into out.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return transportError(ctx, err)
	}
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type errorResp struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// statusError maps an error response back onto the project error taxonomy.
func statusError(status int, body []byte) error {
	var e errorResp
	_ = json.Unmarshal(body, &e)
	msg := e.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		return &domain.ValidationError{Fields: e.Fields, Reason: msg}
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, msg)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", domain.ErrUploadFailed, msg)
	case http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", domain.ErrTimeout, msg)
	default:
		return fmt.Errorf("server returned %d: %s", status, msg)
	}
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}
