package config

import (
	"go.uber.org/zap"
)

// ServerHostEnv overrides the stored server host, mirroring the environment
// variable the server-based model runtime itself honours.
const ServerHostEnv = "OLLAMA_HOST"

// Overrides carries the parsed command-line flags. String fields are empty
// and bool fields are false when the flag was not supplied; the bool flags
// are pure switches, so absent and off mean the same thing.
type Overrides struct {
	Msg        string
	Model      string
	ModelType  string
	System     string
	SystemFile string
	File       string
	Image      string
	Folder     string
	Ext        string
	Task       string
	TaskFile   string
	OutputFile string

	NoLog bool
	NoOut bool
	Debug bool
}

// Effective is the fully merged, precedence-resolved configuration for one
// process invocation. It is immutable for the session: nothing mutates it
// after Build returns. Template settings hold unresolved references; the
// template resolver turns them into content later so a missing template
// surfaces as one well-located error.
type Effective struct {
	Model     string
	ModelType string

	// SystemRef and TaskRef are template references (bare name or path).
	SystemRef string
	TaskRef   string

	// One-shot input sources. All may be set at once; the input assembler
	// composes them in a fixed order.
	Msg    string
	File   string
	Folder string
	Ext    string
	Image  string

	// Output routing. Console and OutputFile are independent: both may be
	// active, and console-only is the default.
	Console    bool
	OutputFile string

	ChatLog        bool
	RenderMarkdown bool
	Debug          bool

	// Backend connection parameters.
	ServerHost  string
	LibraryHost string
	GGUFPath    string
	GGUFRunner  string
}

// OneShot reports whether the configuration drives a single turn without
// prompting: any CLI-supplied input source makes the run one-shot.
func (e Effective) OneShot() bool {
	return e.Msg != "" || e.File != "" || e.Folder != "" || e.Image != "" || e.TaskRef != ""
}

// Build merges CLI overrides, environment variables, and the stored
// configuration into an Effective configuration. Precedence per setting,
// highest first: explicit CLI flag, environment variable (where one is
// defined for the setting), stored file value, documented default.
func Build(ov Overrides, env func(string) (string, bool), store *Store, logger *zap.Logger) (Effective, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		eff Effective
		err error
	)

	if eff.Model, err = pick(ov.Model, store, KeyModel); err != nil {
		return Effective{}, err
	}
	if eff.ModelType, err = pick(ov.ModelType, store, KeyModelType); err != nil {
		return Effective{}, err
	}

	// --system-file and --task-file are explicit-path spellings of the same
	// settings; when both forms are given the file form wins since it is the
	// more specific one.
	systemRef := ov.System
	if ov.SystemFile != "" {
		systemRef = ov.SystemFile
	}
	if eff.SystemRef, err = pick(systemRef, store, KeySystemPrompt); err != nil {
		return Effective{}, err
	}

	taskRef := ov.Task
	if ov.TaskFile != "" {
		taskRef = ov.TaskFile
	}
	if eff.TaskRef, err = pick(taskRef, store, KeyTask); err != nil {
		return Effective{}, err
	}

	eff.Msg = ov.Msg
	eff.File = ov.File
	eff.Folder = ov.Folder
	eff.Image = ov.Image

	if eff.Ext, err = pick(ov.Ext, store, KeyFolderExt); err != nil {
		return Effective{}, err
	}

	if eff.OutputFile, err = pick(ov.OutputFile, store, KeyOutputFile); err != nil {
		return Effective{}, err
	}

	// --no-out suppresses the console; --no-log suppresses the chat log.
	// Both are pure CLI switches, so "flag absent" falls through to the
	// stored value only for the chat log (the console has no stored setting
	// and always defaults to on).
	eff.Console = !ov.NoOut

	eff.ChatLog, err = store.GetBool(KeyChatLog)
	if err != nil {
		return Effective{}, err
	}
	if ov.NoLog {
		eff.ChatLog = false
	}

	if eff.RenderMarkdown, err = store.GetBool(KeyRenderMarkdown); err != nil {
		return Effective{}, err
	}

	eff.Debug = ov.Debug

	// Backend connection parameters. The server host honours the runtime's
	// own environment variable between the CLI and the stored file.
	if eff.ServerHost, err = pickEnv("", env, ServerHostEnv, store, KeyServerHost); err != nil {
		return Effective{}, err
	}
	if eff.LibraryHost, err = pick("", store, KeyLibraryHost); err != nil {
		return Effective{}, err
	}
	if eff.GGUFPath, err = pick("", store, KeyGGUFPath); err != nil {
		return Effective{}, err
	}
	if eff.GGUFRunner, err = pick("", store, KeyGGUFRunner); err != nil {
		return Effective{}, err
	}

	logger.Debug("effective configuration built",
		zap.String("model", eff.Model),
		zap.String("model_type", eff.ModelType),
		zap.Bool("one_shot", eff.OneShot()),
	)

	return eff, nil
}

// pick returns the CLI value when supplied, otherwise the stored value (which
// itself falls back to the key's documented default).
func pick(cli string, store *Store, key string) (string, error) {
	if cli != "" {
		return cli, nil
	}
	return store.Get(key)
}

// pickEnv is pick with an environment variable between the CLI flag and the
// stored value.
func pickEnv(cli string, env func(string) (string, bool), envKey string, store *Store, key string) (string, error) {
	if cli != "" {
		return cli, nil
	}
	if env != nil {
		if v, ok := env(envKey); ok && v != "" {
			return v, nil
		}
	}
	return store.Get(key)
}
