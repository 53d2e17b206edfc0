// Package library implements the in-process-library backend. The transformer
// runtime serves its loaded model over an OpenAI-compatible HTTP endpoint;
// this adapter streams chat completions from it via server-sent events. The
// forward pass itself stays inside the runtime — the adapter only owns the
// transport.
package library

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"
	"go.uber.org/zap"
)

// Backend talks to an OpenAI-compatible serving endpoint.
type Backend struct {
	backend.Adapter
}

// New constructs a Backend and verifies the serving endpoint is reachable.
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

	if err := b.GetJSON(ctx, "/v1/models", nil); err != nil {
		return nil, fmt.Errorf("library runtime at %s not reachable: %w", host, err)
	}

	return b, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Chat sends the conversation to /v1/chat/completions and streams the reply.
// The SSE stream terminates on a "[DONE]" sentinel.
func (b *Backend) Chat(ctx context.Context, c *chat.Chat) (*backend.Stream, error) {
	msgs := make([]wireMessage, 0, c.Len()+1)

	if b.SystemPrompt != "" {
		msgs = append(msgs, wireMessage{Role: string(role.System), Content: b.SystemPrompt})
	}

	c.Each(func(_ int, m message.Message) bool {
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: m.TextContent()})
		return true
	})

	body, err := b.PostStream(ctx, "/v1/chat/completions", completionRequest{
		Model:    b.Name,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("library: chat request: %w", err)
	}

	ch := make(chan backend.Chunk)

	go func() {
		defer close(ch)
		defer func() { _ = body.Close() }()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}

			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk completionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				ch <- backend.Chunk{Err: fmt.Errorf("library: decode chunk: %w", err)}
				return
			}

			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case ch <- backend.Chunk{Text: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			ch <- backend.Chunk{Err: fmt.Errorf("library: read stream: %w", err)}
		}
	}()

	return backend.NewStream(ch, func() { _ = body.Close() }), nil
}
