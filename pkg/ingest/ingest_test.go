package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parley-cli/parley/pkg/chats/content"
	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	return path
}

func textOf(t *testing.T, msgs []message.Message) []string {
	t.Helper()

	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.TextContent()
	}
	return out
}

func TestAssemble_Empty(t *testing.T) {
	msgs, err := Assemble(config.Effective{}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAssemble_DirectMessage(t *testing.T) {
	msgs, err := Assemble(config.Effective{Msg: "hello"}, "", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].TextContent())
}

func TestAssemble_TaskPrecedesUserContent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.txt", "quarterly numbers")

	msgs, err := Assemble(config.Effective{File: path}, "Summarize the following.", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	got := msgs[0].TextContent()
	assert.Contains(t, got, "Summarize the following.")
	assert.Contains(t, got, "quarterly numbers")
	assert.Less(t,
		strings.Index(got, "Summarize the following."),
		strings.Index(got, "quarterly numbers"))
}

func TestAssemble_UnreadableSingleFileFatal(t *testing.T) {
	_, err := Assemble(config.Effective{File: filepath.Join(t.TempDir(), "absent.txt")}, "", nil)

	var unreadable *UnreadableInputError
	assert.ErrorAs(t, err, &unreadable)
}

func TestAssemble_BinarySingleFileFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x80}, 0o600))

	_, err := Assemble(config.Effective{File: path}, "", nil)

	var unreadable *UnreadableInputError
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, path, unreadable.Path)
}

func TestAssemble_FolderStableOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "bee")
	writeFile(t, dir, "a.md", "ay")

	cfg := config.Effective{Folder: dir, Ext: "md"}

	first, err := Assemble(cfg, "", nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "File: a.md\nay", first[0].TextContent())
	assert.Equal(t, "File: b.md\nbee", first[1].TextContent())

	// Repeated runs over an unchanged folder are byte-identical.
	second, err := Assemble(cfg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, textOf(t, first), textOf(t, second))
}

func TestAssemble_FolderExtFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.md", "md content")
	writeFile(t, dir, "skip.txt", "txt content")

	msgs, err := Assemble(config.Effective{Folder: dir, Ext: ".md"}, "", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].TextContent(), "keep.md")
}

func TestAssemble_FolderRecursesWithRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("sub", "inner.md"), "inner")
	writeFile(t, dir, "outer.md", "outer")

	msgs, err := Assemble(config.Effective{Folder: dir}, "", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].TextContent(), "outer.md")
	assert.Contains(t, msgs[1].TextContent(), filepath.Join("sub", "inner.md"))
}

func TestAssemble_FolderSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "fine")
	binary := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(binary, []byte{0xff, 0xfe, 0x00}, 0o600))

	var warnings []string
	msgs, err := Assemble(config.Effective{Folder: dir}, "", func(w string) {
		warnings = append(warnings, w)
	})
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].TextContent(), "good.md")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "bad.md")
}

func TestAssemble_MissingFolderFatal(t *testing.T) {
	_, err := Assemble(config.Effective{Folder: filepath.Join(t.TempDir(), "nope")}, "", nil)

	var unreadable *UnreadableInputError
	assert.ErrorAs(t, err, &unreadable)
}

func TestAssemble_ImageAttachesToLastMessage(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "chart.png", "\x89PNG fake")

	msgs, err := Assemble(config.Effective{Msg: "what is this", Image: img}, "", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{img}, msgs[0].Images())

	// Image is the final part, after all text.
	last := msgs[0].Parts[len(msgs[0].Parts)-1]
	_, ok := last.(content.Image)
	assert.True(t, ok)
}

func TestAssemble_ImageAlone(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "chart.png", "\x89PNG fake")

	msgs, err := Assemble(config.Effective{Image: img}, "", nil)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, []string{img}, msgs[0].Images())
}

func TestAssemble_MissingImageFatal(t *testing.T) {
	_, err := Assemble(config.Effective{Image: filepath.Join(t.TempDir(), "nope.png")}, "", nil)

	var unreadable *UnreadableInputError
	assert.ErrorAs(t, err, &unreadable)
}
