package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_StreamsChunksToConsole(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, true, "", false)

	r.BeginResponse()
	r.Chunk("hel")
	r.Chunk("lo")
	require.NoError(t, r.Complete("hello"))

	assert.Contains(t, out.String(), "hello")
}

func TestRenderer_ConsoleOffFileOn(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "out.txt")
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, false, outFile, false)

	r.BeginResponse()
	r.Chunk("quiet")
	require.NoError(t, r.Complete("quiet"))

	assert.Empty(t, out.String())

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "quiet\n", string(data))
}

func TestRenderer_CompleteAppends(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "out.txt")
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, false, outFile, false)

	require.NoError(t, r.Complete("one"))
	require.NoError(t, r.Complete("two"))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRenderer_InterruptedSkipsFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "out.txt")
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, true, outFile, false)

	r.BeginResponse()
	r.Chunk("part")
	r.Interrupted("part")

	_, err := os.Stat(outFile)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, out.String(), "interrupted")
}

func TestRenderer_MarkdownBuffersUntilComplete(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, true, "", true)

	r.BeginResponse()
	r.Chunk("# Title")
	assert.Empty(t, out.String(), "markdown mode must not stream raw chunks")

	require.NoError(t, r.Complete("# Title"))
	assert.Contains(t, out.String(), "Title")
}
