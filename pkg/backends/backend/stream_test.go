package backend

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_RecvUntilEOF(t *testing.T) {
	ch := make(chan Chunk, 3)
	ch <- Chunk{Text: "hel"}
	ch <- Chunk{Text: "lo"}
	close(ch)

	s := NewStream(ch, nil)

	text, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hel", text)

	text, err = s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "lo", text)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_MidStreamError(t *testing.T) {
	boom := errors.New("boom")

	ch := make(chan Chunk, 2)
	ch <- Chunk{Text: "partial"}
	ch <- Chunk{Err: boom}
	close(ch)

	s := NewStream(ch, nil)

	text, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", text)

	_, err = s.Recv()
	assert.ErrorIs(t, err, boom)
}

func TestStream_Collect(t *testing.T) {
	ch := make(chan Chunk, 2)
	ch <- Chunk{Text: "foo"}
	ch <- Chunk{Text: "bar"}
	close(ch)

	got, err := NewStream(ch, nil).Collect()
	require.NoError(t, err)
	assert.Equal(t, "foobar", got)
}

func TestStream_CollectKeepsPartialOnError(t *testing.T) {
	boom := errors.New("boom")

	ch := make(chan Chunk, 2)
	ch <- Chunk{Text: "partial"}
	ch <- Chunk{Err: boom}
	close(ch)

	got, err := NewStream(ch, nil).Collect()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", got)
}

func TestStream_CloseIdempotent(t *testing.T) {
	var stops int
	s := NewStream(make(chan Chunk), func() { stops++ })

	s.Close()
	s.Close()

	assert.Equal(t, 1, stops)
}

func TestFromText(t *testing.T) {
	got, err := FromText("done already").Collect()
	require.NoError(t, err)
	assert.Equal(t, "done already", got)
}
