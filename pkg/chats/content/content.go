// Package content defines content parts for conversation messages.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// File is a text content part read from a file. Path is the path the content
// was loaded from, relative to the ingestion root when one exists.
type File struct {
	Path string
	Text string
}

func (f File) PartKind() string { return "file" }

// Image is an image content part referenced by its on-disk path. Images are
// never decoded as text; backends that support them encode the raw bytes in
// their own wire format.
type Image struct {
	Path string
}

func (i Image) PartKind() string { return "image" }
