// Package auth talks to the demo auth API and keeps the stored session in
// sync with it.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ihza212325/trashpin/internal/model"
)

// ErrUnauthorized is returned when the server rejects the stored token.
// The stored session is wiped before it is returned.
var ErrUnauthorized = errors.New("session expired")

// Credentials is the slice of the credential store the client needs.
type Credentials interface {
	Tokens() (access, refresh string, err error)
	Save(sess model.Session) error
	SaveProfile(user model.User) error
	Clear() error
}

// SignupRequest is the payload for creating a new account.
type SignupRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Client handles communication with the auth server.
type Client struct {
	baseURL       string
	expiresInMins int
	creds         Credentials
	httpClient    *http.Client
}

// New creates a new auth client.
func New(baseURL string, expiresInMins int, creds Credentials) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		expiresInMins: expiresInMins,
		creds:         creds,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Login exchanges credentials for a session and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	body := map[string]any{
		"username":      username,
		"password":      password,
		"expiresInMins": c.expiresInMins,
	}

	var sess model.Session
	if err := c.post(ctx, "/auth/login", "", body, &sess); err != nil {
		return model.Session{}, err
	}

	if err := c.creds.Save(sess); err != nil {
		return model.Session{}, fmt.Errorf("storing session: %w", err)
	}
	return sess, nil
}

// Signup registers a new account. The demo server echoes the created user
// back without persisting it; no session is created.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (model.User, error) {
	var user model.User
	if err := c.post(ctx, "/users/add", "", req, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Refresh trades the stored refresh token for a fresh pair.
func (c *Client) Refresh(ctx context.Context) error {
	_, refresh, err := c.creds.Tokens()
	if err != nil {
		return fmt.Errorf("no stored session: %w", err)
	}
	if refresh == "" {
		return errors.New("no refresh token stored")
	}

	body := map[string]any{
		"refreshToken":  refresh,
		"expiresInMins": c.expiresInMins,
	}

	var sess model.Session
	if err := c.post(ctx, "/auth/refresh", "", body, &sess); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.creds.Clear()
		}
		return err
	}

	if err := c.creds.Save(sess); err != nil {
		return fmt.Errorf("storing refreshed session: %w", err)
	}
	return nil
}

// CurrentUser fetches the profile of the signed-in user and caches it.
// A rejected token wipes the stored session.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	access, _, err := c.creds.Tokens()
	if err != nil {
		return model.User{}, fmt.Errorf("no stored session: %w", err)
	}

	var user model.User
	if err := c.get(ctx, "/auth/me", access, &user); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.creds.Clear()
		}
		return model.User{}, err
	}

	if err := c.creds.SaveProfile(user); err != nil {
		return model.User{}, fmt.Errorf("caching profile: %w", err)
	}
	return user, nil
}

// UpdateProfile pushes profile changes for the given user id and caches
// the echoed result.
func (c *Client) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	access, _, err := c.creds.Tokens()
	if err != nil {
		return model.User{}, fmt.Errorf("no stored session: %w", err)
	}

	var updated model.User
	path := fmt.Sprintf("/users/%d", user.ID)
	if err := c.put(ctx, path, access, user, &updated); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.creds.Clear()
		}
		return model.User{}, err
	}

	if err := c.creds.SaveProfile(updated); err != nil {
		return model.User{}, fmt.Errorf("caching profile: %w", err)
	}
	return updated, nil
}

// Logout wipes the stored session. The demo server is stateless, nothing
// to revoke remotely.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) put(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, token, body, out)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s returned status %d: %w", path, resp.StatusCode, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
