// Package server implements the server-based backend: an adapter for an
// ollama-compatible model runtime reached over HTTP. Responses stream as
// newline-delimited JSON.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"
	"go.uber.org/zap"
)

// Backend talks to an ollama-compatible server.
type Backend struct {
	backend.Adapter
}

// New constructs a Backend and verifies the server is reachable. An
// unreachable server is a construction error; there is no lazy retry.
func New(ctx context.Context, host, model, systemPrompt string, client *http.Client, logger *zap.Logger) (*Backend, error) {
	b := &Backend{
		Adapter: backend.Adapter{
			Name:         model,
			SystemPrompt: systemPrompt,
			BaseURL:      host,
			Client:       client,
			Logger:       logger,
		},
	}

	if err := b.GetJSON(ctx, "/api/version", nil); err != nil {
		return nil, fmt.Errorf("server at %s not reachable: %w", host, err)
	}

	return b, nil
}

// wireMessage is the runtime's chat message shape. Images carry
// base64-encoded raw bytes.
type wireMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Chat sends the conversation to /api/chat and streams the reply. The
// returned stream ends when the runtime reports done or the context is
// cancelled; cancellation closes the underlying response body.
func (b *Backend) Chat(ctx context.Context, c *chat.Chat) (*backend.Stream, error) {
	msgs, err := b.wireMessages(c)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	body, err := b.PostStream(ctx, "/api/chat", chatRequest{
		Model:    b.Name,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("server: chat request: %w", err)
	}

	ch := make(chan backend.Chunk)

	go func() {
		defer close(ch)
		defer func() { _ = body.Close() }()

		dec := json.NewDecoder(body)
		for {
			var chunk chatChunk
			if err := dec.Decode(&chunk); err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				ch <- backend.Chunk{Err: fmt.Errorf("server: decode chunk: %w", err)}
				return
			}

			if chunk.Error != "" {
				ch <- backend.Chunk{Err: fmt.Errorf("server: %s", chunk.Error)}
				return
			}

			if chunk.Message.Content != "" {
				select {
				case ch <- backend.Chunk{Text: chunk.Message.Content}:
				case <-ctx.Done():
					return
				}
			}

			if chunk.Done {
				return
			}
		}
	}()

	return backend.NewStream(ch, func() { _ = body.Close() }), nil
}

// ListModels returns the names of the models the server has available.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	var resp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := b.GetJSON(ctx, "/api/tags", &resp); err != nil {
		return nil, fmt.Errorf("server: list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}

	return names, nil
}

// wireMessages converts the history to the runtime's shape, prepending the
// system prompt when one is configured. Image parts are read from disk and
// base64-encoded.
func (b *Backend) wireMessages(c *chat.Chat) ([]wireMessage, error) {
	msgs := make([]wireMessage, 0, c.Len()+1)

	if b.SystemPrompt != "" {
		msgs = append(msgs, wireMessage{Role: string(role.System), Content: b.SystemPrompt})
	}

	var convErr error
	c.Each(func(_ int, m message.Message) bool {
		wm := wireMessage{Role: string(m.Role), Content: m.TextContent()}

		for _, path := range m.Images() {
			data, err := os.ReadFile(path) //nolint:gosec // user-supplied image path
			if err != nil {
				convErr = fmt.Errorf("read image %s: %w", path, err)
				return false
			}
			wm.Images = append(wm.Images, base64.StdEncoding.EncodeToString(data))
		}

		msgs = append(msgs, wm)
		return true
	})
	if convErr != nil {
		return nil, convErr
	}

	return msgs, nil
}
