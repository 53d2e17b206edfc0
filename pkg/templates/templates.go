// Package templates locates named system prompts and task templates. A
// reference is either an explicit file path or a bare name; bare names are
// searched in the user-override directory first, then in the bundled
// defaults. Resolution fails closed: a reference that resolves nowhere is a
// NotFoundError, never a silent substitute.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parley-cli/parley/pkg/parleydir"
)

//go:embed defaults/system/*.md defaults/tasks/*.md
var defaultFS embed.FS

// Kind selects which directory pair a reference is resolved against.
type Kind string

const (
	KindSystem Kind = "system"
	KindTask   Kind = "task"
)

// NotFoundError reports a reference that resolved in neither the user
// override directory nor the bundled defaults.
type NotFoundError struct {
	Kind     Kind
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("templates: %s template %q not found (searched: %s)",
		e.Kind, e.Name, strings.Join(e.Searched, ", "))
}

// Resolver resolves template references against a home directory's override
// directories and the bundled defaults. Resolution is idempotent and
// performs no writes.
type Resolver struct {
	userSystemDir string
	userTaskDir   string
}

// NewResolver creates a Resolver over the given home directory.
func NewResolver(d parleydir.Dir) *Resolver {
	return &Resolver{
		userSystemDir: d.SystemTemplatesDir(),
		userTaskDir:   d.TaskTemplatesDir(),
	}
}

// Resolve returns the content for a template reference. An explicit path
// that exists on disk is read verbatim with no directory search. Otherwise
// the reference is a bare name: ".md" is appended when absent, the user
// override directory is checked first, then the bundled defaults.
func (r *Resolver) Resolve(kind Kind, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	// Explicit path form.
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref) //nolint:gosec // user-supplied template path
		if err != nil {
			return "", fmt.Errorf("templates: read %s: %w", ref, err)
		}
		return string(data), nil
	}

	name := ref
	if filepath.Ext(name) != ".md" {
		name += ".md"
	}

	userDir, embedDir := r.dirs(kind)

	// An override that exists but cannot be read is an error, not a cue to
	// fall through to the bundled default.
	userPath := filepath.Join(userDir, name)
	data, err := os.ReadFile(userPath) //nolint:gosec // path rooted in the override dir
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("templates: read %s: %w", userPath, err)
	}

	if data, err := defaultFS.ReadFile(embedDir + "/" + name); err == nil {
		return string(data), nil
	}

	return "", &NotFoundError{
		Kind:     kind,
		Name:     ref,
		Searched: []string{userPath, "builtin:" + embedDir + "/" + name},
	}
}

// Names returns the bare names available for a kind: the union of the user
// override directory and the bundled defaults, sorted.
func (r *Resolver) Names(kind Kind) []string {
	userDir, embedDir := r.dirs(kind)

	seen := map[string]struct{}{}

	if entries, err := os.ReadDir(userDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".md")] = struct{}{}
		}
	}

	if entries, err := defaultFS.ReadDir(embedDir); err == nil {
		for _, e := range entries {
			seen[strings.TrimSuffix(e.Name(), ".md")] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

func (r *Resolver) dirs(kind Kind) (userDir, embedDir string) {
	if kind == KindTask {
		return r.userTaskDir, "defaults/tasks"
	}
	return r.userSystemDir, "defaults/system"
}

// WriteDefaults materializes the bundled default templates into the home
// directory's override directories so users can edit them. Existing files
// are never overwritten.
func WriteDefaults(d parleydir.Dir) error {
	pairs := []struct {
		embedDir string
		destDir  string
	}{
		{"defaults/system", d.SystemTemplatesDir()},
		{"defaults/tasks", d.TaskTemplatesDir()},
	}

	for _, p := range pairs {
		entries, err := defaultFS.ReadDir(p.embedDir)
		if err != nil {
			return fmt.Errorf("templates: read embedded %s: %w", p.embedDir, err)
		}

		for _, e := range entries {
			dest := filepath.Join(p.destDir, e.Name())
			if _, err := os.Stat(dest); err == nil {
				continue
			}

			data, err := defaultFS.ReadFile(p.embedDir + "/" + e.Name())
			if err != nil {
				return fmt.Errorf("templates: read embedded %s: %w", e.Name(), err)
			}

			if err := os.WriteFile(dest, data, 0o644); err != nil { //nolint:gosec // template content, not secret
				return fmt.Errorf("templates: write %s: %w", dest, err)
			}
		}
	}

	return nil
}
