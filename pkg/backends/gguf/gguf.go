// Package gguf implements the local-quantized-file backend: it runs a
// llama.cpp-style runner binary over a .gguf model file and streams the
// runner's stdout. Loading and inference stay inside the runner process.
package gguf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"
	"go.uber.org/zap"
)

// Backend runs a quantized model file through a runner binary.
type Backend struct {
	backend.Adapter

	Runner    string // Runner binary, resolved through PATH.
	ModelPath string // Path to the .gguf file.
}

// New constructs a Backend. A missing model file or runner binary is a
// construction error; nothing is deferred to the first turn.
func New(runner, modelPath, model, systemPrompt string, logger *zap.Logger) (*Backend, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("no model file configured (set gguf_path)")
	}

	if info, err := os.Stat(modelPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("model file %s not found", modelPath)
	}

	resolved, err := exec.LookPath(runner)
	if err != nil {
		return nil, fmt.Errorf("runner %q not found in PATH: %w", runner, err)
	}

	return &Backend{
		Adapter: backend.Adapter{
			Name:         model,
			SystemPrompt: systemPrompt,
			Logger:       logger,
		},
		Runner:    resolved,
		ModelPath: modelPath,
	}, nil
}

// Chat renders the conversation to a single prompt, runs the runner, and
// streams its stdout. Cancelling the context kills the runner process; the
// text emitted up to that point has already been delivered.
func (b *Backend) Chat(ctx context.Context, c *chat.Chat) (*backend.Stream, error) {
	prompt := b.renderPrompt(c)

	cmd := exec.CommandContext(ctx, b.Runner,
		"-m", b.ModelPath,
		"--no-display-prompt",
		"-p", prompt,
	) //nolint:gosec // runner and model path come from configuration

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("gguf: stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("gguf: start %s: %w", b.Runner, err)
	}

	b.Log().Debug("runner started",
		zap.String("runner", b.Runner),
		zap.String("model", b.ModelPath),
	)

	ch := make(chan backend.Chunk)

	go func() {
		defer close(ch)

		buf := make([]byte, 512)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				select {
				case ch <- backend.Chunk{Text: string(buf[:n])}:
				case <-ctx.Done():
					_ = cmd.Wait()
					return
				}
			}
			if readErr != nil {
				break
			}
		}

		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			ch <- backend.Chunk{Err: fmt.Errorf("gguf: runner failed: %w: %s", err, tail(stderr.String()))}
		}
	}()

	return backend.NewStream(ch, func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_, _ = io.Copy(io.Discard, stdout)
	}), nil
}

// renderPrompt flattens the history into the runner's plain-text prompt
// format.
func (b *Backend) renderPrompt(c *chat.Chat) string {
	var sb strings.Builder

	if b.SystemPrompt != "" {
		sb.WriteString("System: ")
		sb.WriteString(b.SystemPrompt)
		sb.WriteString("\n\n")
	}

	c.Each(func(_ int, m message.Message) bool {
		switch m.Role {
		case role.User:
			sb.WriteString("User: ")
		case role.Assistant:
			sb.WriteString("Assistant: ")
		default:
			return true
		}
		sb.WriteString(m.TextContent())
		sb.WriteString("\n")
		return true
	})

	sb.WriteString("Assistant:")

	return sb.String()
}

// tail returns the last few lines of runner stderr for error reporting.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
