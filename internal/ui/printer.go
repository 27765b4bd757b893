package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bamsammich/ffd/internal/index"
)

// Prompt is the interactive prompt text.
const Prompt = "[ffd]> "

// Printer writes search results, one path per line, with the matched part
// of the name highlighted.
type Printer struct {
	w      io.Writer
	path   lipgloss.Style
	match  lipgloss.Style
	dim    lipgloss.Style
	prompt lipgloss.Style
}

// NewPrinter returns a printer writing to w. With color false all output
// is plain text; with color true it is styled even when w is not a
// terminal.
func NewPrinter(w io.Writer, theme Theme, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	switch {
	case !color:
		r.SetColorProfile(termenv.Ascii)
	case r.ColorProfile() == termenv.Ascii:
		r.SetColorProfile(termenv.ANSI256)
	}
	return &Printer{
		w:      w,
		path:   r.NewStyle().Foreground(theme.Path),
		match:  r.NewStyle().Foreground(theme.Match).Bold(true).Underline(true),
		dim:    r.NewStyle().Foreground(theme.Dim),
		prompt: r.NewStyle().Foreground(theme.Prompt).Bold(true),
	}
}

// Match prints one result line.
func (p *Printer) Match(m index.Match) error {
	_, err := fmt.Fprintln(p.w, p.Highlight(m))
	return err
}

// Highlight renders m's path with the matched run emphasized.
func (p *Printer) Highlight(m index.Match) string {
	before, matched, after := m.Split()
	return p.render(p.path, before) + p.render(p.match, matched) + p.render(p.path, after)
}

// Prompt writes the interactive prompt.
func (p *Printer) Prompt() error {
	_, err := io.WriteString(p.w, p.prompt.Render(Prompt))
	return err
}

// Note prints a de-emphasized informational line.
func (p *Printer) Note(format string, args ...any) error {
	_, err := fmt.Fprintln(p.w, p.render(p.dim, fmt.Sprintf(format, args...)))
	return err
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if text == "" {
		return ""
	}
	return s.Render(text)
}
