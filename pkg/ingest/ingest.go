// Package ingest turns the CLI-specified input sources into outgoing
// messages. Composition order is fixed and documented: task instructions,
// then the direct message, then single-file content, then folder contents in
// lexicographic path order, then the image reference. Assembly is a pure
// function of the effective configuration, so the same configuration always
// yields the same message sequence.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/parley-cli/parley/pkg/chats/content"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"
	"github.com/parley-cli/parley/pkg/config"
)

// UnreadableInputError reports an input item that could not be read or
// decoded as text.
type UnreadableInputError struct {
	Path   string
	Reason string
}

func (e *UnreadableInputError) Error() string {
	return fmt.Sprintf("ingest: unreadable input %s: %s", e.Path, e.Reason)
}

// Assemble builds the outgoing user messages for a one-shot invocation.
// task is the resolved task template content (empty for none). warn receives
// user-facing messages for items skipped during folder ingestion; it may be
// nil. An empty result means there is nothing one-shot to send.
func Assemble(cfg config.Effective, task string, warn func(string)) ([]message.Message, error) {
	if warn == nil {
		warn = func(string) {}
	}

	var msgs []message.Message

	// Leading message: task instructions, then the direct message, then the
	// single file. Sources never override each other; they compose.
	var parts []content.Part

	if task != "" {
		parts = append(parts, content.Text{Text: task})
	}

	if cfg.Msg != "" {
		if len(parts) > 0 {
			parts = append(parts, content.Text{Text: "\n\n"})
		}
		parts = append(parts, content.Text{Text: cfg.Msg})
	}

	if cfg.File != "" {
		text, err := readText(cfg.File)
		if err != nil {
			return nil, err
		}
		parts = append(parts, content.File{Path: cfg.File, Text: text})
	}

	if len(parts) > 0 {
		msgs = append(msgs, message.New(role.User, parts...))
	}

	if cfg.Folder != "" {
		folderMsgs, err := assembleFolder(cfg.Folder, cfg.Ext, warn)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, folderMsgs...)
	}

	if cfg.Image != "" {
		if _, err := os.Stat(cfg.Image); err != nil {
			return nil, &UnreadableInputError{Path: cfg.Image, Reason: "image file not found"}
		}

		img := content.Image{Path: cfg.Image}
		if len(msgs) == 0 {
			msgs = append(msgs, message.New(role.User, img))
		} else {
			last := &msgs[len(msgs)-1]
			last.Parts = append(last.Parts, img)
		}
	}

	return msgs, nil
}

// assembleFolder produces one message per readable file under root, tagged
// with its path relative to root, in stable lexicographic order. A single
// unreadable file is skipped with a warning rather than aborting the batch.
func assembleFolder(root, ext string, warn func(string)) ([]message.Message, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &UnreadableInputError{Path: root, Reason: "folder not found"}
	}

	ext = normalizeExt(ext)

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warn(fmt.Sprintf("skipping %s: %v", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ext != "" && filepath.Ext(path) != ext {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, walkErr)
	}

	sort.Strings(paths)

	msgs := make([]message.Message, 0, len(paths))
	for _, rel := range paths {
		text, err := readText(filepath.Join(root, rel))
		if err != nil {
			warn(fmt.Sprintf("skipping %s: %v", rel, err))
			continue
		}
		msgs = append(msgs, message.New(role.User, content.File{Path: rel, Text: text}))
	}

	return msgs, nil
}

// readText reads a file and verifies it decodes as text. Binary content is
// an UnreadableInputError — images go through the multimodal path instead.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied input path
	if err != nil {
		return "", &UnreadableInputError{Path: path, Reason: err.Error()}
	}

	if !utf8.Valid(data) {
		return "", &UnreadableInputError{Path: path, Reason: "not valid text"}
	}

	return string(data), nil
}

// normalizeExt accepts "md" and ".md" spellings; empty means all files.
func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
