// SPDX-License-Identifier: MPL-2.0

package invoke

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type (
	// Tracer prints the operator-facing lines that precede each execution.
	Tracer interface {
		Comment(text string)
		DatabaseURL(url string)
		Service(name string)
		Command(argv []string)
	}

	// TraceStyles styles each kind of trace line.
	TraceStyles struct {
		Comment lipgloss.Style
		URL     lipgloss.Style
		Command lipgloss.Style
	}

	// TextTracer writes one styled line per trace event.
	TextTracer struct {
		w      io.Writer
		styles TraceStyles
	}
)

// PlainTraceStyles renders every line unstyled.
func PlainTraceStyles() TraceStyles {
	return TraceStyles{
		Comment: lipgloss.NewStyle(),
		URL:     lipgloss.NewStyle(),
		Command: lipgloss.NewStyle(),
	}
}

// NewTextTracer creates a TextTracer writing to w.
func NewTextTracer(w io.Writer, styles TraceStyles) *TextTracer {
	return &TextTracer{w: w, styles: styles}
}

// Comment prints " # text".
func (t *TextTracer) Comment(text string) {
	t.line(t.styles.Comment, " # "+text)
}

// DatabaseURL prints " @ url".
func (t *TextTracer) DatabaseURL(url string) {
	t.line(t.styles.URL, " @ "+url)
}

// Service prints " @ service" for dry runs, where no URL exists yet.
func (t *TextTracer) Service(name string) {
	t.line(t.styles.URL, " @ <"+name+">")
}

// Command prints " $ argv".
func (t *TextTracer) Command(argv []string) {
	t.line(t.styles.Command, " $ "+FormatArgv(argv))
}

func (t *TextTracer) line(style lipgloss.Style, text string) {
	fmt.Fprintln(t.w, style.Render(text))
}

// discardTracer drops every event.
type discardTracer struct{}

func (discardTracer) Comment(string)     {}
func (discardTracer) DatabaseURL(string) {}
func (discardTracer) Service(string)     {}
func (discardTracer) Command([]string)   {}
