package session

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer routes response text to the console and/or an output file.
// Console and file are independent: either, both, or neither may be active.
// The output file only ever receives complete responses — a failed turn
// never leaves partial text in it.
type Renderer struct {
	out      io.Writer
	errOut   io.Writer
	console  bool
	filePath string
	markdown bool

	md *glamour.TermRenderer
}

// NewRenderer creates a Renderer. out and errOut default to stdout/stderr.
// When markdown is enabled the response is buffered and printed rendered on
// completion instead of streaming raw chunks.
func NewRenderer(out, errOut io.Writer, console bool, filePath string, markdown bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	r := &Renderer{
		out:      out,
		errOut:   errOut,
		console:  console,
		filePath: filePath,
		markdown: markdown,
	}

	if markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			r.md = md
		}
	}

	return r
}

// Prompt prints the interactive input prompt.
func (r *Renderer) Prompt() {
	if r.console {
		fmt.Fprint(r.out, userPrefixStyle.Render("You > "))
	}
}

// BeginResponse prints the assistant prefix before the first chunk.
func (r *Renderer) BeginResponse() {
	if r.console && !r.markdown {
		fmt.Fprint(r.out, assistantPrefixStyle.Render("Assistant > "))
	}
}

// Chunk streams one increment of the response to the console. In markdown
// mode chunks are held back until Complete.
func (r *Renderer) Chunk(text string) {
	if r.console && !r.markdown {
		fmt.Fprint(r.out, text)
	}
}

// Complete finishes a successful response: terminates the console line (or
// prints the markdown-rendered text in markdown mode) and appends the full
// text to the output file when one is configured.
func (r *Renderer) Complete(full string) error {
	if r.console {
		if r.markdown {
			fmt.Fprintln(r.out, assistantPrefixStyle.Render("Assistant >"))
			fmt.Fprintln(r.out, r.renderMarkdown(full))
		} else {
			fmt.Fprintln(r.out)
		}
	}

	return r.appendToFile(full)
}

// Interrupted finishes a cancelled response: the partial text stays on the
// console (printed now in markdown mode) but is not written to the file.
func (r *Renderer) Interrupted(partial string) {
	if !r.console {
		return
	}

	if r.markdown && partial != "" {
		fmt.Fprintln(r.out, partial)
	}
	fmt.Fprintln(r.out, dimStyle.Render("(interrupted)"))
}

// Warn prints a user-facing warning to the error stream.
func (r *Renderer) Warn(msg string) {
	fmt.Fprintln(r.errOut, warningStyle.Render("warning: "+msg))
}

// Error prints a user-facing turn error to the error stream.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.errOut, errorStyle.Render("error: "+err.Error()))
}

func (r *Renderer) renderMarkdown(text string) string {
	if r.md == nil {
		return text
	}

	out, err := r.md.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}

func (r *Renderer) appendToFile(full string) error {
	if r.filePath == "" || full == "" {
		return nil
	}

	f, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // user-configured output path
	if err != nil {
		return fmt.Errorf("session: open output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(full + "\n"); err != nil {
		return fmt.Errorf("session: write output file: %w", err)
	}

	return nil
}
