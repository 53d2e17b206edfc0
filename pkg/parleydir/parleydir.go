// Package parleydir encapsulates all path knowledge for the assistant home
// directory. It provides a Dir value object with accessors for the config
// file, template override directories, and log paths.
//
// The home directory defaults to ~/.parley and can be overridden with the
// PARLEY_HOME environment variable. The config file path inside it can be
// overridden independently with PARLEY_CONFIG.
package parleydir

import (
	"os"
	"path/filepath"
)

// Environment variables honoured by Resolve.
const (
	HomeEnv   = "PARLEY_HOME"
	ConfigEnv = "PARLEY_CONFIG"
)

// Dir is a value object that resolves paths within the assistant home
// directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Resolve returns the Dir selected by the environment: PARLEY_HOME when set,
// otherwise ~/.parley. env is a lookup function, usually os.LookupEnv.
func Resolve(env func(string) (string, bool)) Dir {
	if root, ok := env(HomeEnv); ok && root != "" {
		return New(root)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return New(".parley")
	}

	return New(filepath.Join(home, ".parley"))
}

// Root returns the absolute path to the home directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the config file, honouring PARLEY_CONFIG
// when env reports it set. env is a lookup function, usually os.LookupEnv.
func (d Dir) ConfigPath(env func(string) (string, bool)) string {
	if env != nil {
		if path, ok := env(ConfigEnv); ok && path != "" {
			return path
		}
	}

	return filepath.Join(d.root, "config.yaml")
}

// SystemTemplatesDir returns the user-override directory for system prompts.
func (d Dir) SystemTemplatesDir() string { return filepath.Join(d.root, "templates", "system") }

// TaskTemplatesDir returns the user-override directory for task templates.
func (d Dir) TaskTemplatesDir() string { return filepath.Join(d.root, "templates", "tasks") }

// LogsDir returns the path to the logs directory.
func (d Dir) LogsDir() string { return filepath.Join(d.root, "logs") }

// ChatLogsDir returns the directory where session chat histories are written.
func (d Dir) ChatLogsDir() string { return filepath.Join(d.root, "logs", "chats") }

// Exists reports whether the home directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}
