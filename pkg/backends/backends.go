// Package backends selects and constructs the backend adapter matching an
// effective configuration's model type. The type set is closed: unknown
// types are rejected, and a failed construction never falls back to a
// different backend.
package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/backends/gguf"
	"github.com/parley-cli/parley/pkg/backends/library"
	"github.com/parley-cli/parley/pkg/backends/server"
	"github.com/parley-cli/parley/pkg/config"
	"go.uber.org/zap"
)

// UnsupportedTypeError reports a model type outside the closed set.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("backends: unsupported model type %q (supported: %s)",
		e.Type, strings.Join(config.ModelTypes(), ", "))
}

// UnavailableError reports a backend whose construction failed, e.g. an
// unreachable server or a missing model file. Hint suggests a remediation.
type UnavailableError struct {
	Type string
	Hint string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backends: %s backend unavailable: %v (%s)", e.Type, e.Err, e.Hint)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Factory constructs a backend adapter from an effective configuration and
// resolved system prompt.
type Factory func(ctx context.Context, cfg config.Effective, systemPrompt string, logger *zap.Logger) (backend.Chatter, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]Factory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[config.TypeServer] = newServer
		factories[config.TypeLibrary] = newLibrary
		factories[config.TypeGGUF] = newGGUF
	})
}

// Register registers a custom backend factory under the given model type.
// It can be called before New to extend the closed set in tests.
func Register(modelType string, factory Factory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[modelType] = factory
}

func getFactory(modelType string) (Factory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[modelType]
	return f, ok
}

func newServer(ctx context.Context, cfg config.Effective, systemPrompt string, logger *zap.Logger) (backend.Chatter, error) {
	return server.New(ctx, cfg.ServerHost, cfg.Model, systemPrompt, nil, logger)
}

func newLibrary(ctx context.Context, cfg config.Effective, systemPrompt string, logger *zap.Logger) (backend.Chatter, error) {
	return library.New(ctx, cfg.LibraryHost, cfg.Model, systemPrompt, nil, logger)
}

func newGGUF(_ context.Context, cfg config.Effective, systemPrompt string, logger *zap.Logger) (backend.Chatter, error) {
	return gguf.New(cfg.GGUFRunner, cfg.GGUFPath, cfg.Model, systemPrompt, logger)
}

// New constructs the backend adapter for the configured model type. An
// unknown type is an UnsupportedTypeError; a failed construction is an
// UnavailableError. Both are configuration errors reported immediately.
func New(ctx context.Context, cfg config.Effective, systemPrompt string, logger *zap.Logger) (backend.Chatter, error) {
	factory, ok := getFactory(cfg.ModelType)
	if !ok {
		return nil, &UnsupportedTypeError{Type: cfg.ModelType}
	}

	b, err := factory(ctx, cfg, systemPrompt, logger)
	if err != nil {
		return nil, &UnavailableError{
			Type: cfg.ModelType,
			Hint: hintFor(cfg.ModelType),
			Err:  err,
		}
	}

	return b, nil
}

func hintFor(modelType string) string {
	switch modelType {
	case config.TypeServer:
		return "check that the model server is running and server_host / " + config.ServerHostEnv + " point at it"
	case config.TypeLibrary:
		return "check that the library runtime is serving and library_host points at it"
	case config.TypeGGUF:
		return "check gguf_path and that the runner binary is installed"
	default:
		return "check the backend configuration"
	}
}
