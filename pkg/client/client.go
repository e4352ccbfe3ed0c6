// Package client is the Go client for the predialis authorization API.
//
// It mirrors the server's tenant selection and module flags for UI use: the
// Selector decides which tenant id is claimed on each request, the Gate
// decides which navigation entries render, and the QueryCache keeps fetched
// responses keyed by tenant so a switch can never serve stale cross-tenant
// data. None of this is a security boundary; the server re-validates every
// claim.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Failure kinds surfaced by the API, one per guard.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNoTenantSelected = errors.New("no tenant selected")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("authorization store unavailable")
)

const headerTenantID = "X-Tenant-ID"

// globalRoleAdmin is the platform-wide role the server grants cross-tenant
// management to. The gate mirrors its see-everything behavior.
const globalRoleAdmin = "admin"

// Account is the caller's own identity as returned by the server.
type Account struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GlobalRole string `json:"global_role"`
	Enabled    bool   `json:"enabled"`
}

// LoginResult carries the access token and identity returned on login.
type LoginResult struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   int64   `json:"expires_in"`
	User        Account `json:"identity"`
}

// Client talks to a predialis server. It injects the bearer token and the
// selector's current tenant claim into every request.
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	admin    bool
	Selector *Selector
	Gate     *Gate
	Cache    *QueryCache // may be nil
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithQueryCache attaches a response cache used by the cached read paths.
func WithQueryCache(qc *QueryCache) Option {
	return func(c *Client) { c.Cache = qc }
}

// New creates a Client against baseURL, persisting tenant selection to store.
func New(baseURL string, store SelectionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		Gate:    NewGate(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Selector = NewSelector(store, c.Cache)
	return c
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Login authenticates and stores the returned access token, then initializes
// the tenant selector from the account's tenant list.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.token = result.AccessToken
	c.admin = result.User.GlobalRole == globalRoleAdmin

	tenants, err := c.MyTenants(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Selector.Init(tenants); err != nil {
		return nil, err
	}
	return &result, nil
}

// MyTenants fetches the caller's accessible tenants. The response is cached
// under the global namespace: it stays valid across tenant switches.
func (c *Client) MyTenants(ctx context.Context) ([]TenantInfo, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, "/api/v1/my/tenants")
	}
	data, err := c.cached(ctx, "", GlobalKey("my-tenants"), fetch)
	if err != nil {
		return nil, err
	}
	var tenants []TenantInfo
	if err := json.Unmarshal(data, &tenants); err != nil {
		return nil, fmt.Errorf("decode tenant list: %w", err)
	}
	return tenants, nil
}

// Me fetches the caller's own account, cached under the global namespace.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, "/api/v1/auth/me")
	}
	data, err := c.cached(ctx, "", GlobalKey("my-account"), fetch)
	if err != nil {
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	c.admin = acct.GlobalRole == globalRoleAdmin
	return &acct, nil
}

// Modules fetches the current tenant's module flags and refreshes the Gate.
// Flags are never cached: a toggle must be visible on the next fetch, not
// after a TTL.
func (c *Client) Modules(ctx context.Context) ([]ModuleFlag, error) {
	data, err := c.get(ctx, "/api/v1/modules")
	if err != nil {
		return nil, err
	}
	var flags []ModuleFlag
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("decode module flags: %w", err)
	}

	// Global admins administer every tenant; managers only their own.
	canManage := c.admin
	if !canManage {
		current := c.Selector.Current()
		for _, t := range c.Selector.Tenants() {
			if t.TenantID == current && t.Role == "manager" {
				canManage = true
				break
			}
		}
	}
	c.Gate.Update(flags, canManage)
	return flags, nil
}

// SelectTenant switches the active tenant and refreshes the permission gate
// under the new tenant.
func (c *Client) SelectTenant(ctx context.Context, tenantID string) error {
	if err := c.Selector.Select(tenantID); err != nil {
		return err
	}
	_, err := c.Modules(ctx)
	return err
}

func (c *Client) cached(ctx context.Context, tenantID, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.Cache == nil {
		return fetch(ctx)
	}
	return c.Cache.GetOrFetch(ctx, tenantID, key, fetch)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.Selector != nil {
		if tenantID := c.Selector.Current(); tenantID != "" {
			req.Header.Set(headerTenantID, tenantID)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, msg)
	case http.StatusBadRequest:
		// Only the tenant guard's 400 means "select a tenant"; any other
		// 400 is a request validation failure and must not prompt the UI
		// into the tenant picker.
		if msg == "no tenant selected" {
			return fmt.Errorf("%w: %s", ErrNoTenantSelected, msg)
		}
		return fmt.Errorf("invalid request: %s", msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}
