package backend

import (
	"io"
	"strings"
)

// Chunk is one increment of a streamed response: a piece of text or a
// terminal error. A Chunk never carries both.
type Chunk struct {
	Text string
	Err  error
}

// Stream is a finite sequence of response chunks produced by one Chat call.
// Consumers pull chunks with Recv until io.EOF and must call Close when
// abandoning the stream early so the producer can release its transport.
type Stream struct {
	ch   <-chan Chunk
	stop func()
}

// NewStream wraps a chunk channel. The producer signals the end of the
// response by closing the channel; stop is invoked by Close and may be nil.
func NewStream(ch <-chan Chunk, stop func()) *Stream {
	return &Stream{ch: ch, stop: stop}
}

// FromText returns an already-complete Stream carrying the given text as a
// single chunk. Useful for backends and tests that do not stream.
func FromText(text string) *Stream {
	ch := make(chan Chunk, 1)
	ch <- Chunk{Text: text}
	close(ch)

	return NewStream(ch, nil)
}

// Recv returns the next text chunk. It returns io.EOF when the response is
// complete, or the producer's error when the stream failed mid-response.
func (s *Stream) Recv() (string, error) {
	chunk, ok := <-s.ch
	if !ok {
		return "", io.EOF
	}
	if chunk.Err != nil {
		return "", chunk.Err
	}

	return chunk.Text, nil
}

// Close releases the stream's transport. Safe to call multiple times and
// after the stream is drained.
func (s *Stream) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Collect drains the stream and returns the full response text. The partial
// text read so far is returned alongside any mid-stream error.
func (s *Stream) Collect() (string, error) {
	defer s.Close()

	var sb strings.Builder
	for {
		text, err := s.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(text)
	}
}
