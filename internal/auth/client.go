package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// Client talks to the StreamWeave auth endpoints:
// POST /auth/refresh, GET /auth/me, POST /auth/logout.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an auth API client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Refresh exchanges a refresh token for a new token pair.
// A 401/403 response means the server rejected the token; that is
// surfaced as ErrRefreshRejected and is fatal to the session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", "", fmt.Errorf("marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", "", fmt.Errorf("%w: HTTP %d", ErrRefreshRejected, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", "", fmt.Errorf("refresh: HTTP %d from %s", resp.StatusCode, req.URL.String())
	}

	var out struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return "", "", fmt.Errorf("refresh response missing tokens")
	}
	return out.AccessToken, out.RefreshToken, nil
}

// Me fetches the authenticated user's profile. Pass legacy=true to send
// the credential as a legacy session header instead of a bearer token.
func (c *Client) Me(ctx context.Context, token string, legacy bool) (*models.AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}
	if legacy {
		req.Header.Set("X-Session-Token", token)
	} else {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("me call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("me: HTTP %d from %s", resp.StatusCode, req.URL.String())
	}

	var user models.AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode me response: %w", err)
	}
	return &user, nil
}

// Logout invalidates the session server-side. Best effort: callers clear
// local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout call: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("Server-side logout failed")
		return fmt.Errorf("logout: HTTP %d", resp.StatusCode)
	}
	return nil
}
