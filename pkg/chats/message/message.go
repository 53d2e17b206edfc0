// Package message defines the message type exchanged with backends.
package message

import (
	"strings"

	"github.com/parley-cli/parley/pkg/chats/content"
	"github.com/parley-cli/parley/pkg/chats/role"
)

// Message is a single conversation entry: a role plus ordered content parts.
type Message struct {
	Role  role.Role
	Parts []content.Part
}

// New creates a message with the given role and parts.
func New(r role.Role, parts ...content.Part) Message {
	return Message{Role: r, Parts: parts}
}

// NewText creates a message with a single text part.
func NewText(r role.Role, text string) Message {
	return Message{Role: r, Parts: []content.Part{content.Text{Text: text}}}
}

// TextContent returns the concatenated text of all textual parts, in order.
// File parts contribute a path-tagged block so backends that only speak plain
// text still see where each piece came from.
func (m Message) TextContent() string {
	var sb strings.Builder

	for _, p := range m.Parts {
		switch part := p.(type) {
		case content.Text:
			sb.WriteString(part.Text)
		case content.File:
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("File: ")
			sb.WriteString(part.Path)
			sb.WriteString("\n")
			sb.WriteString(part.Text)
		}
	}

	return sb.String()
}

// Images returns the paths of all image parts, in order.
func (m Message) Images() []string {
	var paths []string
	for _, p := range m.Parts {
		if img, ok := p.(content.Image); ok {
			paths = append(paths, img.Path)
		}
	}
	return paths
}
