// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors.
type ErrorType int

const (
	ErrTypeConnection ErrorType = iota
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeNotFound
	ErrTypeInvalidResponse
	ErrTypeStream
)

// ClientError is a typed error with an optional underlying cause.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for common failure modes.
var (
	ErrUnreachable  = &ClientError{Type: ErrTypeConnection, Message: "chat server is not reachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, Message: "authentication required"}
	ErrNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "resource not found"}
)

// IsUnauthorized checks if an error is an authentication failure.
func IsUnauthorized(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnauthorized
	}
	return false
}

// IsUnreachable checks if an error indicates the server cannot be reached.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return false
}

// IsTimeout checks if an error is a timeout.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration for the chat server client.
type ClientConfig struct {
	// BaseURL of the server (default: http://localhost:5000)
	BaseURL string

	// Token is the bearer token for authenticated requests. Empty means
	// unauthenticated; the server decides whether that is acceptable.
	Token string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// DefaultModel used when a request specifies none
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://localhost:5000",
		Timeout:      30 * time.Second,
		DefaultModel: "gemini-2.5-flash",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the HTTP client for the chat server.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client, filling zero-value config fields with
// defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:5000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gemini-2.5-flash"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// SetToken updates the bearer token.
func (c *Client) SetToken(token string) {
	c.config.Token = token
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	return req, nil
}

// checkStatus maps a non-2xx response to a typed error. The caller keeps
// ownership of the body.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		var srvErr serverError
		if err := json.NewDecoder(resp.Body).Decode(&srvErr); err == nil && srvErr.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: srvErr.Error}
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "request failed: " + resp.Status}
	}
}

func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ClientError{Type: ErrTypeConnection, Message: "chat server is not reachable", Cause: err}
}

// =============================================================================
// HEALTH
// =============================================================================

// CheckReachable verifies the server answers at all.
func (c *Client) CheckReachable(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/conversations", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// ListConversations returns all conversations, most recent first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/conversations", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result []ConversationSummary
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode conversation list", Cause: err}
	}
	return result, nil
}

// CreateConversation creates a new empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (*ConversationSummary, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/conversations", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result ConversationSummary
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode conversation", Cause: err}
	}
	return &result, nil
}

// GetConversation fetches a conversation with its full history.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/conversations/"+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result ConversationDetail
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode conversation", Cause: err}
	}
	return &result, nil
}

// RefreshTitle fetches the current server-side title of a conversation.
// Used after stream completion, when the server may have generated one.
func (c *Client) RefreshTitle(ctx context.Context, id string) (string, error) {
	detail, err := c.GetConversation(ctx, id)
	if err != nil {
		return "", err
	}
	return detail.Title, nil
}

// RenameConversation sets a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) error {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/api/conversations/"+id, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// DeleteConversation deletes a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/conversations/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}
