// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver,
	// for example "https://matrix.grindhall.gg".
	HomeserverURL string

	// HTTPClient overrides the HTTP client. Nil means a default
	// client with a 60-second timeout; /sync requests override the
	// timeout per request.
	HTTPClient *http.Client
}

// Client talks to a Matrix homeserver. It handles the unauthenticated
// surface (login) and produces DirectSession values for the
// authenticated surface.
type Client struct {
	homeserverURL string
	httpClient    *http.Client
}

// NewClient creates a client for the given homeserver.
func NewClient(config ClientConfig) (*Client, error) {
	base, err := url.Parse(config.HomeserverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid homeserver URL %q: %w", config.HomeserverURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("homeserver URL %q: scheme must be http or https", config.HomeserverURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		homeserverURL: strings.TrimRight(base.String(), "/"),
		httpClient:    httpClient,
	}, nil
}

// HomeserverURL returns the normalized base URL.
func (c *Client) HomeserverURL() string {
	return c.homeserverURL
}

// Login authenticates with a username (localpart or full user ID) and
// password, returning an authenticated session.
func (c *Client) Login(ctx context.Context, username, password, deviceName string) (*DirectSession, error) {
	request := LoginRequest{
		Type:       "m.login.password",
		Identifier: LoginIdentifier{Type: "m.id.user", User: username},
		Password:   password,
		DeviceName: deviceName,
	}
	var response AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/login", "", request, &response); err != nil {
		return nil, fmt.Errorf("login failed for %q: %w", username, err)
	}
	return newDirectSession(c, response.UserID, response.AccessToken), nil
}

// SessionFromToken constructs a session from a previously obtained
// access token. The token is verified against /whoami so a stale or
// revoked token fails here rather than on first use.
func (c *Client) SessionFromToken(ctx context.Context, accessToken string) (*DirectSession, error) {
	var response WhoAmIResponse
	if err := c.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", accessToken, nil, &response); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return newDirectSession(c, response.UserID, accessToken), nil
}

// doRequest performs an HTTP request against the homeserver. Non-2xx
// responses are decoded into *MatrixError. A non-nil body is JSON
// encoded; a non-nil result receives the decoded response body.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.homeserverURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		matrixErr := &MatrixError{StatusCode: response.StatusCode}
		if err := json.Unmarshal(responseBody, matrixErr); err != nil || matrixErr.Code == "" {
			matrixErr.Code = ErrCodeUnknown
			matrixErr.Message = strings.TrimSpace(string(responseBody))
		}
		return matrixErr
	}

	if result != nil {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return nil
}
