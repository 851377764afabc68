// Package output renders command results. The renderer adapts to the
// environment: styled text on a terminal, markdown when piped, JSON on
// request.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Mode selects the rendering style.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles Styles
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode}
	if r.EffectiveMode() == ModeText && isTerminal(out) {
		r.styles = DefaultStyles()
	} else {
		r.styles = PlainStyles()
	}
	return r
}

// EffectiveMode resolves ModeAuto: text on a terminal, markdown when piped.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if isTerminal(r.out) {
		return ModeText
	}
	return ModeMarkdown
}

// Out returns the underlying output writer, for table rendering.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Styles returns the active style set.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.out, r.styles.Success.Render(msg))
}

// Warning writes a warning line to standard error.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintln(r.errOut, r.styles.Warning.Render(msg))
}

// Error writes an error line to standard error.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.errOut, r.styles.Error.Render(msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}
