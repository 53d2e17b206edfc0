// Package backend holds the pieces shared by all backend adapters: the
// Chatter contract, the Stream type responses arrive on, and an embeddable
// Adapter base with HTTP helpers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/parley-cli/parley/pkg/chats/chat"
	"go.uber.org/zap"
)

// Chatter sends a conversation to a model runtime and returns the reply as a
// stream of text chunks. Each call produces a fresh Stream; there is no
// hidden cursor shared between calls.
type Chatter interface {
	Chat(ctx context.Context, c *chat.Chat) (*Stream, error)
	ModelName() string
}

// Adapter holds shared state for backend implementations. Embed it in
// concrete backend structs to get HTTP helpers and a logger. Concrete types
// define their own Chat method to shadow the default stub.
type Adapter struct {
	Name         string       // Model identifier.
	SystemPrompt string       // Resolved system prompt text, may be empty.
	BaseURL      string       // Runtime base URL (no trailing slash).
	Client       *http.Client // HTTP client; falls back to a long-timeout default.
	Logger       *zap.Logger  // Debug logger; falls back to a nop logger.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// ModelName returns the model identifier the adapter was constructed with.
func (a *Adapter) ModelName() string { return a.Name }

// Chat is a stub that returns an error. Concrete backends that embed Adapter
// define their own Chat method to shadow this one.
func (a *Adapter) Chat(_ context.Context, _ *chat.Chat) (*Stream, error) {
	return nil, errors.New("backend: Chat not implemented")
}

// Log returns the configured logger or a nop logger.
func (a *Adapter) Log() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

// httpClient returns the configured client or a cached default with a
// 10-minute timeout — local inference can be slow.
func (a *Adapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// NewRequest builds an *http.Request against the adapter's base URL.
func (a *Adapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *Adapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input
}

// GetJSON sends a GET to path, checks for a 2xx status, and unmarshals the
// response body into dest.
func (a *Adapter) GetJSON(ctx context.Context, path string, dest any) error {
	req, err := a.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := a.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// PostStream marshals payload as JSON, sends a POST to path, checks for a
// 2xx status, and returns the open response body for incremental reading.
// The caller owns closing the body.
func (a *Adapter) PostStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return resp.Body, nil
}
