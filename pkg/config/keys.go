// Package config implements the assistant's layered configuration: a
// persisted key/value store with a closed key set, and a builder that merges
// CLI overrides, environment variables, and stored values into one effective
// session configuration.
package config

import (
	"fmt"
	"sort"
	"strings"
)

// Model types form a closed set. The backend selector rejects anything
// outside it; nothing ever falls back to a different type silently.
const (
	TypeServer  = "server-based"
	TypeLibrary = "in-process-library"
	TypeGGUF    = "local-quantized-file"
)

// ModelTypes returns the closed set of recognized model types.
func ModelTypes() []string {
	return []string{TypeServer, TypeLibrary, TypeGGUF}
}

// Recognized setting keys. Keys are case-normalized to lower_snake_case; the
// set is closed and every key has a documented default.
const (
	KeyModel          = "model"           // Model identifier passed to the backend.
	KeyModelType      = "model_type"      // One of the closed model type set.
	KeySystemPrompt   = "system_prompt"   // System prompt template reference (name or path), unresolved.
	KeyTask           = "task"            // Task template reference (name or path), unresolved.
	KeyServerHost     = "server_host"     // Base URL of the server-based model runtime.
	KeyLibraryHost    = "library_host"    // Base URL of the library runtime's serving endpoint.
	KeyGGUFPath       = "gguf_path"       // Path to the local quantized model file.
	KeyGGUFRunner     = "gguf_runner"     // Runner binary used for quantized model files.
	KeyOutputFile     = "output_file"     // File responses are appended to, empty for none.
	KeyChatLog        = "chat_log"        // Whether session histories are written to the logs dir.
	KeyRenderMarkdown = "render_markdown" // Render completed responses as terminal markdown instead of streaming raw text.
	KeyFolderExt      = "folder_ext"      // Extension filter for folder ingestion, empty for all files.
)

// defaults maps every recognized key to its documented default value.
var defaults = map[string]string{
	KeyModel:          "llama3.2",
	KeyModelType:      TypeServer,
	KeySystemPrompt:   "",
	KeyTask:           "",
	KeyServerHost:     "http://127.0.0.1:11434",
	KeyLibraryHost:    "http://127.0.0.1:8000",
	KeyGGUFPath:       "",
	KeyGGUFRunner:     "llama-cli",
	KeyOutputFile:     "",
	KeyChatLog:        "true",
	KeyRenderMarkdown: "false",
	KeyFolderExt:      "",
}

// UnknownSettingError is returned when a setting outside the recognized key
// set is requested or assigned.
type UnknownSettingError struct {
	Key string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("config: unknown setting %q", e.Key)
}

// Normalize lowercases a key and converts dashes to underscores so stored
// files may spell keys either way.
func Normalize(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// Known reports whether key (after normalization) is in the recognized set.
func Known(key string) bool {
	_, ok := defaults[Normalize(key)]
	return ok
}

// Keys returns all recognized keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Default returns the documented default for key, or an UnknownSettingError.
func Default(key string) (string, error) {
	v, ok := defaults[Normalize(key)]
	if !ok {
		return "", &UnknownSettingError{Key: key}
	}
	return v, nil
}
