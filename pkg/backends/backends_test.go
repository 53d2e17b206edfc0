package backends

import (
	"context"
	"errors"
	"testing"

	"github.com/parley-cli/parley/pkg/backends/backend"
	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/config"
	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	model  string
	system string
}

func (f *fakeChatter) Chat(_ context.Context, _ *chat.Chat) (*backend.Stream, error) {
	return backend.FromText("ok"), nil
}

func (f *fakeChatter) ModelName() string { return f.model }

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(context.Background(), config.Effective{ModelType: "quantum"}, "", nil)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "quantum", unsupported.Type)
	assert.Contains(t, err.Error(), config.TypeServer)
}

func TestNew_EmptyTypeIsUnsupported(t *testing.T) {
	_, err := New(context.Background(), config.Effective{}, "", nil)

	var unsupported *UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestNew_ConstructionFailureIsUnavailable(t *testing.T) {
	boom := errors.New("connection refused")

	Register("test-failing", func(_ context.Context, _ config.Effective, _ string, _ *zap.Logger) (backend.Chatter, error) {
		return nil, boom
	})

	_, err := New(context.Background(), config.Effective{ModelType: "test-failing"}, "", nil)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "test-failing", unavailable.Type)
	assert.ErrorIs(t, err, boom)
}

func TestNew_DispatchesRegisteredFactory(t *testing.T) {
	Register("test-fake", func(_ context.Context, cfg config.Effective, systemPrompt string, _ *zap.Logger) (backend.Chatter, error) {
		return &fakeChatter{model: cfg.Model, system: systemPrompt}, nil
	})

	b, err := New(context.Background(),
		config.Effective{ModelType: "test-fake", Model: "m1"}, "be brief", nil)
	require.NoError(t, err)

	fake, ok := b.(*fakeChatter)
	require.True(t, ok)
	assert.Equal(t, "m1", fake.model)
	assert.Equal(t, "be brief", fake.system)
}

func TestNew_GGUFWithoutPathIsUnavailable(t *testing.T) {
	cfg := config.Effective{
		ModelType:  config.TypeGGUF,
		GGUFRunner: "llama-cli",
	}

	_, err := New(context.Background(), cfg, "", nil)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Hint, "gguf_path")
}
