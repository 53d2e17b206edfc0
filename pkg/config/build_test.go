package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func loadStore(t *testing.T, yaml string) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if yaml != "" {
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	}

	s, err := Load(path, nil)
	require.NoError(t, err)

	return s
}

func TestBuild_AllDefaults(t *testing.T) {
	eff, err := Build(Overrides{}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, TypeServer, eff.ModelType)
	assert.Equal(t, "llama3.2", eff.Model)
	assert.True(t, eff.Console)
	assert.True(t, eff.ChatLog)
	assert.Empty(t, eff.OutputFile)
	assert.False(t, eff.OneShot())
}

func TestBuild_CLIBeatsStoredFile(t *testing.T) {
	store := loadStore(t, "model: modelX\n")

	eff, err := Build(Overrides{Model: "modelY"}, noEnv, store, nil)
	require.NoError(t, err)

	assert.Equal(t, "modelY", eff.Model)
}

func TestBuild_CLIBeatsEnvironment(t *testing.T) {
	env := func(key string) (string, bool) {
		if key == ServerHostEnv {
			return "http://env-host:11434", true
		}
		return "", false
	}

	store := loadStore(t, "server_host: http://file-host:11434\n")

	// Environment beats the stored file.
	eff, err := Build(Overrides{}, env, store, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env-host:11434", eff.ServerHost)

	// But the stored file still applies when the env var is unset.
	eff, err = Build(Overrides{}, noEnv, store, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://file-host:11434", eff.ServerHost)
}

func TestBuild_ModelTypeMergesIndependently(t *testing.T) {
	store := loadStore(t, "model_type: local-quantized-file\n")

	// Only --model given: type comes from the stored file.
	eff, err := Build(Overrides{Model: "phi3"}, noEnv, store, nil)
	require.NoError(t, err)
	assert.Equal(t, "phi3", eff.Model)
	assert.Equal(t, TypeGGUF, eff.ModelType)

	// Both given: both recorded.
	eff, err = Build(Overrides{Model: "phi3", ModelType: TypeLibrary}, noEnv, store, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeLibrary, eff.ModelType)
}

func TestBuild_TemplateReferencesStayUnresolved(t *testing.T) {
	eff, err := Build(Overrides{System: "pirate", Task: "summarize"}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, "pirate", eff.SystemRef)
	assert.Equal(t, "summarize", eff.TaskRef)
}

func TestBuild_FileFormWinsOverName(t *testing.T) {
	eff, err := Build(Overrides{
		System:     "pirate",
		SystemFile: "/tmp/sys.md",
		Task:       "summarize",
		TaskFile:   "/tmp/task.md",
	}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sys.md", eff.SystemRef)
	assert.Equal(t, "/tmp/task.md", eff.TaskRef)
}

func TestBuild_InputSourcesCompose(t *testing.T) {
	eff, err := Build(Overrides{
		Msg:    "hello",
		File:   "report.txt",
		Folder: "docs",
		Image:  "chart.png",
	}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)

	// All sources are recorded; none silently overrides another.
	assert.Equal(t, "hello", eff.Msg)
	assert.Equal(t, "report.txt", eff.File)
	assert.Equal(t, "docs", eff.Folder)
	assert.Equal(t, "chart.png", eff.Image)
	assert.True(t, eff.OneShot())
}

func TestBuild_OutputRoutingIndependent(t *testing.T) {
	// Both set.
	eff, err := Build(Overrides{NoOut: true, OutputFile: "out.md"}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)
	assert.False(t, eff.Console)
	assert.Equal(t, "out.md", eff.OutputFile)

	// Both clear: console output only, still valid.
	eff, err = Build(Overrides{}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)
	assert.True(t, eff.Console)
	assert.Empty(t, eff.OutputFile)
}

func TestBuild_NoLogDisablesChatLog(t *testing.T) {
	eff, err := Build(Overrides{NoLog: true}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)
	assert.False(t, eff.ChatLog)

	// Stored file may disable it too.
	eff, err = Build(Overrides{}, noEnv, loadStore(t, "chat_log: \"false\"\n"), nil)
	require.NoError(t, err)
	assert.False(t, eff.ChatLog)
}

func TestBuild_TaskAloneIsOneShot(t *testing.T) {
	eff, err := Build(Overrides{Task: "summarize"}, noEnv, loadStore(t, ""), nil)
	require.NoError(t, err)
	assert.True(t, eff.OneShot())
}
