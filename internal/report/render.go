package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/vk/buildgrid/internal/orchestrator"
)

// Format selects the renderer output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q: must be 'text' or 'json'", s)
}

// Renderer writes build reports.
type Renderer struct {
	Format Format
	// Color enables ANSI colors in the text format.
	Color bool
}

// New returns a renderer for the given format.
func New(format Format, color bool) *Renderer {
	return &Renderer{Format: format, Color: color}
}

// Render writes rep to w.
func (r *Renderer) Render(w io.Writer, rep *orchestrator.Report) error {
	switch r.Format {
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatText, "":
		return renderText(w, rep, r.Color)
	}
	return fmt.Errorf("unknown report format %q", r.Format)
}
