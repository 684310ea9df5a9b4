package dapptober

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/layer-3/dapptober/core"
)

// Nonce is the server's sign-in challenge
type Nonce struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me is the authenticated wallet and its profile
type Me struct {
	Address string       `json:"address"`
	Profile core.Profile `json:"profile"`
}

// Client talks to the Dapptober HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a client for baseURL. A nil httpClient uses a 15s timeout client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// RequestNonce asks for a fresh sign-in nonce for address
func (c *Client) RequestNonce(ctx context.Context, address string) (*Nonce, error) {
	var out Nonce
	if err := c.do(ctx, http.MethodPost, "/auth/nonce", "", map[string]string{"address": address}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type sessionEnvelope struct {
	Session Session `json:"session"`
}

// Verify exchanges the signed message for a session
func (c *Client) Verify(ctx context.Context, address, signature, message string) (*Session, error) {
	var out sessionEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/verify", "", map[string]string{
		"address":   address,
		"signature": signature,
		"message":   message,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// Refresh rotates refreshToken
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// Logout invalidates refreshToken
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", map[string]string{"refresh_token": refreshToken}, nil)
}

// Me returns the wallet behind accessToken
func (c *Client) Me(ctx context.Context, accessToken string) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
