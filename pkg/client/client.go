// Package client is a Go client for the TaskFlow API.  It keeps the access
// token in memory, persists the refresh token and profile through a Store,
// and silently refreshes an expired access token once per request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	pathRegister = "/api/auth/register"
	pathLogin    = "/api/auth/login"
	pathRefresh  = "/api/auth/refresh"
	pathLogout   = "/api/auth/logout"
	pathMe       = "/api/auth/me"
)

// exempt paths never trigger refresh-and-retry: a 401 there means bad
// credentials, not an expired session.
var exempt = map[string]bool{
	pathRegister: true,
	pathLogin:    true,
	pathRefresh:  true,
	pathLogout:   true,
}

// Client talks to one TaskFlow server on behalf of one Session.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session

	// OnSessionExpired runs after a rejected refresh cleared the session.
	OnSessionExpired func()

	refreshes singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithSessionExpired sets the callback run when the session is lost.
func WithSessionExpired(fn func()) Option { return func(c *Client) { c.OnSessionExpired = fn } }

func New(baseURL string, s *Session, opts ...Option) *Client {
	if s == nil {
		s = NewSession(nil)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: s,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

type authResponse struct {
	User         Profile `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and starts a session for it.  An empty role
// registers a member.
func (c *Client) Register(ctx context.Context, name, email, password, role string) (Profile, error) {
	if role == "" {
		role = "member"
	}
	body := map[string]string{"name": name, "email": email, "password": password, "role": role}
	return c.startSession(ctx, pathRegister, body)
}

// Login starts a session with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (Profile, error) {
	return c.startSession(ctx, pathLogin, map[string]string{"email": email, "password": password})
}

func (c *Client) startSession(ctx context.Context, path string, body any) (Profile, error) {
	var out authResponse
	if err := c.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return Profile{}, err
	}
	if err := c.session.begin(out.AccessToken, out.RefreshToken, out.User); err != nil {
		return Profile{}, fmt.Errorf("save session: %w", err)
	}
	return out.User, nil
}

// Logout revokes the stored refresh token on the server and clears the
// local session.  Local state is cleared even when the server call fails;
// that failure is still returned for reporting.
func (c *Client) Logout(ctx context.Context) error {
	rt, loadErr := c.session.RefreshToken()
	var callErr error
	if rt != "" {
		callErr = c.Do(ctx, http.MethodPost, pathLogout, map[string]string{"refreshToken": rt}, nil)
	}
	if err := c.session.Clear(); err != nil {
		return err
	}
	if loadErr != nil {
		return loadErr
	}
	return callErr
}

// Me fetches the current user.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.Do(ctx, http.MethodGet, pathMe, nil, &p)
	return p, err
}

// Do sends a JSON request and decodes a 2xx JSON response into out (which
// may be nil).  Non-2xx responses become *APIError.  A 401 from a non-auth
// path triggers one refresh and one replay of the request.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	sent := c.session.AccessToken()
	resp, err := c.send(ctx, method, path, payload, sent)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && !exempt[path] {
		drain(resp)
		token, err := c.refresh(ctx, sent)
		if err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, payload, token); err != nil {
			return err
		}
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !exempt[path] {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// refresh returns an access token newer than stale.  Concurrent callers
// share one refresh request; a caller whose token was already replaced by
// another refresh reuses the new token without calling the server.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	if cur := c.session.AccessToken(); cur != "" && cur != stale {
		return cur, nil
	}
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		if cur := c.session.AccessToken(); cur != "" && cur != stale {
			return cur, nil
		}
		// detached so one caller's cancellation does not fail the others
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return c.doRefresh(rctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	rt, err := c.session.RefreshToken()
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if rt == "" {
		c.expire()
		return "", ErrSessionExpired
	}

	var out refreshResponse
	err = c.Do(ctx, http.MethodPost, pathRefresh, map[string]string{"refreshToken": rt}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.rejectsSession() {
		c.expire()
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", err
	}

	c.session.setAccessToken(out.AccessToken)
	if out.RefreshToken != "" {
		if err := c.session.rotate(out.RefreshToken); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
	}
	return out.AccessToken, nil
}

func (c *Client) expire() {
	_ = c.session.Clear()
	if c.OnSessionExpired != nil {
		c.OnSessionExpired()
	}
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error  string       `json:"error"`
			Errors []FieldError `json:"errors"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error, Fields: body.Errors}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
