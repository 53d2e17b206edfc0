// Package session orchestrates the request/response loop: it assembles
// outgoing messages, dispatches them to the backend adapter, renders the
// streamed response, and maintains the conversation history for the lifetime
// of one process invocation.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"
	"github.com/parley-cli/parley/pkg/config"
	"github.com/parley-cli/parley/pkg/ingest"
	"go.uber.org/zap"
)

// TurnError reports a backend failure during one turn. It is recoverable in
// interactive mode (the loop re-prompts) and fatal in one-shot mode.
type TurnError struct {
	Err error
}

func (e *TurnError) Error() string { return "session: turn failed: " + e.Err.Error() }

func (e *TurnError) Unwrap() error { return e.Err }

// errInterrupted marks a turn cut short by the user. The partial response is
// already in history and on screen when it is returned.
var errInterrupted = errors.New("session: turn interrupted")

// Options configures a Session.
type Options struct {
	Config      config.Effective
	Backend     backend.Chatter
	TaskContent string // Resolved task template content, empty for none.
	Input       io.Reader
	Out         io.Writer
	ErrOut      io.Writer
	ChatLogDir  string // Where session histories are written; empty disables.
	Logger      *zap.Logger
}

// Session owns one conversation: the effective configuration, exactly one
// backend adapter, and the append-only history. It lives for one process
// invocation.
type Session struct {
	id      string
	cfg     config.Effective
	backend backend.Chatter
	task    string

	history    *chat.Chat
	r          *Renderer
	in         io.Reader
	chatLogDir string
	logger     *zap.Logger
	started    time.Time
}

// New creates a Session. The backend must already be constructed; the
// session takes exclusive ownership of it.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	in := opts.Input
	if in == nil {
		in = os.Stdin
	}

	return &Session{
		id:      uuid.NewString(),
		cfg:     opts.Config,
		backend: opts.Backend,
		task:    opts.TaskContent,
		history: chat.New(),
		r: NewRenderer(opts.Out, opts.ErrOut,
			opts.Config.Console, opts.Config.OutputFile, opts.Config.RenderMarkdown),
		in:         in,
		chatLogDir: opts.ChatLogDir,
		logger:     logger,
		started:    time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns the conversation history for observation.
func (s *Session) History() *chat.Chat { return s.history }

// Run drives the session to completion: one turn for one-shot invocations,
// a prompt loop otherwise. The chat log is written on the way out when
// enabled.
func (s *Session) Run(ctx context.Context) error {
	defer s.writeChatLog()

	s.logger.Debug("session started",
		zap.String("session", s.id),
		zap.String("model", s.backend.ModelName()),
		zap.Bool("one_shot", s.cfg.OneShot()),
	)

	if s.cfg.OneShot() {
		msgs, err := ingest.Assemble(s.cfg, s.task, s.r.Warn)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return errors.New("session: no input to send")
		}

		return s.turn(ctx, msgs)
	}

	return s.interactive(ctx)
}

// interactive reads turns from the input until EOF or an exit command. A
// failed turn is reported and the loop re-prompts; only a cancelled parent
// context ends the session early.
func (s *Session) interactive(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.r.Prompt()

		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			return nil
		}

		err := s.turn(ctx, []message.Message{message.NewText(role.User, line)})
		switch {
		case err == nil:
		case errors.Is(err, errInterrupted) && ctx.Err() == nil:
			// Partial response is preserved; keep the session alive.
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			s.r.Error(err)
		}
	}
}

// turn appends the outgoing messages, dispatches to the backend, and renders
// the streamed response. An interrupt between chunks preserves the partial
// response in history and rendering.
func (s *Session) turn(ctx context.Context, msgs []message.Message) error {
	s.history.Append(msgs...)

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A SIGINT during generation cancels only this turn.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	turnDone := make(chan struct{})
	defer close(turnDone)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-turnDone:
		}
	}()

	stream, err := s.backend.Chat(turnCtx, s.history)
	if err != nil {
		return &TurnError{Err: err}
	}
	defer stream.Close()

	s.r.BeginResponse()

	var sb strings.Builder
	for {
		text, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			s.keepPartial(sb.String())
			if turnCtx.Err() != nil {
				s.r.Interrupted(sb.String())
				return errInterrupted
			}
			return &TurnError{Err: recvErr}
		}

		sb.WriteString(text)
		s.r.Chunk(text)

		// Cancellation is checked between chunks, not only at call entry.
		if turnCtx.Err() != nil {
			break
		}
	}

	if turnCtx.Err() != nil {
		s.keepPartial(sb.String())
		s.r.Interrupted(sb.String())
		return errInterrupted
	}

	s.history.Append(message.NewText(role.Assistant, sb.String()))

	s.logger.Debug("turn complete",
		zap.String("session", s.id),
		zap.Int("history_len", s.history.Len()),
		zap.Int("response_bytes", sb.Len()),
	)

	return s.r.Complete(sb.String())
}

// keepPartial records a partial assistant response so an interrupted or
// failed stream still leaves the history consistent.
func (s *Session) keepPartial(partial string) {
	if partial != "" {
		s.history.Append(message.NewText(role.Assistant, partial))
	}
}

// writeChatLog persists the session history when chat logging is enabled.
// Failures are warnings, not errors — the conversation already happened.
func (s *Session) writeChatLog() {
	if !s.cfg.ChatLog || s.chatLogDir == "" || s.history.Len() == 0 {
		return
	}

	if err := writeLog(s.chatLogDir, s.id, s.backend.ModelName(), s.cfg.ModelType, s.started, s.history); err != nil {
		s.r.Warn(fmt.Sprintf("could not write chat log: %v", err))
	}
}
