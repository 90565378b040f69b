// Package ui renders status lines for the terminal. Colour is used only
// when the destination is a terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// CLI style colors using lipgloss
var (
	StatusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	StatusWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	Muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	Bold        = lipgloss.NewStyle().Bold(true)
)

// Symbols for status indicators
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer writes status lines to one destination
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter returns a printer that styles output only for terminals
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: IsTerminal(out)}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// OK prints a success line
func (p *Printer) OK(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(StatusOK, SymbolOK), fmt.Sprintf(format, args...))
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(StatusWarn, SymbolWarn), fmt.Sprintf(format, args...))
}

// Error prints a failure line
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(StatusError, SymbolError), fmt.Sprintf(format, args...))
}

// Field prints an indented "label: value" pair
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.render(Muted, label+":"), p.render(Bold, value))
}

// Line prints unstyled text
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}
