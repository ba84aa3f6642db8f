// Package ui formats notelink's terminal output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// Printer writes status lines, styled when the output is a color terminal.
type Printer struct {
	out         io.Writer
	styles      Styles
	interactive bool
}

// NewPrinter creates a Printer. Color is used only for terminals without
// NO_COLOR set.
func NewPrinter(out io.Writer) *Printer {
	tty := IsTTY(out)
	return &Printer{
		out:         out,
		styles:      GetStyles(!tty || DetectNoColor()),
		interactive: tty && !DetectCI(),
	}
}

// Out returns the underlying writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Interactive reports whether in-place progress updates are appropriate.
func (p *Printer) Interactive() bool {
	return p.interactive
}

// Header prints a bold title line.
func (p *Printer) Header(msg string) {
	_, _ = fmt.Fprintln(p.out, p.styles.Header.Render(msg))
}

// Success prints a success message with checkmark.
func (p *Printer) Success(msg string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (p *Printer) Successf(format string, args ...any) {
	p.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (p *Printer) Warning(msg string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.Warning.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (p *Printer) Warningf(format string, args ...any) {
	p.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.Error.Render("✗"), msg)
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label string, value any) {
	padded := fmt.Sprintf("%-14s", label+":")
	_, _ = fmt.Fprintf(p.out, "  %s %s\n", p.styles.Label.Render(padded), p.styles.Value.Render(fmt.Sprint(value)))
}

// Dim prints de-emphasized text.
func (p *Printer) Dim(msg string) {
	_, _ = fmt.Fprintln(p.out, p.styles.Dim.Render(msg))
}

// Code prints an indented block.
func (p *Printer) Code(content string) {
	_, _ = fmt.Fprintln(p.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(p.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(p.out)
}

// Newline prints an empty line.
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}
