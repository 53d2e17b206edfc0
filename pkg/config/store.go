package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store holds the persisted configuration for one process. Values live in
// memory after Load; Set never touches disk and Save is the only operation
// that writes the file back. A Store is not safe for concurrent use.
type Store struct {
	path   string
	values map[string]string
	logger *zap.Logger
}

// Load reads the YAML mapping at path. A missing file yields an empty store
// so first runs are well-defined; any other read or parse failure is an
// error. Environment variables referenced as ${VAR} or $VAR in the file are
// expanded before parsing. Unknown keys in the file are ignored with a debug
// log line — the recognized key set is enforced at the accessor level.
func Load(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:   path,
		values: make(map[string]string),
		logger: logger,
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("config file absent, using defaults", zap.String("path", path))
			return s, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw map[string]string
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for k, v := range raw {
		key := Normalize(k)
		if !Known(key) {
			logger.Debug("ignoring unknown setting in config file",
				zap.String("key", k), zap.String("path", path))
			continue
		}
		s.values[key] = v
	}

	return s, nil
}

// Path returns the file path the store was loaded from and will save to.
func (s *Store) Path() string { return s.path }

// Has reports whether key holds an explicitly provided value (from the file
// or Set), as opposed to falling back to its documented default.
func (s *Store) Has(key string) bool {
	_, ok := s.values[Normalize(key)]
	return ok
}

// Get returns the value for key: the stored value when the file provided
// one, otherwise the key's documented default. Unknown keys are an
// UnknownSettingError, never a silent default.
func (s *Store) Get(key string) (string, error) {
	k := Normalize(key)
	if !Known(k) {
		return "", &UnknownSettingError{Key: key}
	}

	if v, ok := s.values[k]; ok {
		return v, nil
	}

	return defaults[k], nil
}

// GetBool returns the value for key parsed as a boolean. Unparseable values
// are a configuration error naming the offending key.
func (s *Store) GetBool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: setting %q: %q is not a boolean", Normalize(key), v)
	}

	return b, nil
}

// Set records a value in memory. It never writes to disk.
func (s *Store) Set(key, value string) error {
	k := Normalize(key)
	if !Known(k) {
		return &UnknownSettingError{Key: key}
	}

	s.values[k] = value

	return nil
}

// Save serializes the in-memory mapping back to the store's path,
// overwriting it. This is the only disk-mutating operation on a Store and is
// only ever invoked by the explicit generate-config action.
func (s *Store) Save() error {
	out := make(map[string]string, len(defaults))
	for k, def := range defaults {
		if v, ok := s.values[k]; ok {
			out[k] = v
			continue
		}
		out[k] = def
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("config: create config dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}

	s.logger.Debug("config saved", zap.String("path", s.path))

	return nil
}
