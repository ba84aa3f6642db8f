package ui

import (
	"fmt"
	"strings"
	"sync"
)

// Stage is a pipeline phase shown in progress output.
type Stage int

const (
	// StageScanning reads notes and extracts signatures.
	StageScanning Stage = iota
	// StageLinking writes annotations.
	StageLinking
)

// Icon returns the short stage label.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageLinking:
		return "LINK"
	default:
		return "???"
	}
}

// Progress renders per-note progress: an in-place bar on interactive
// terminals, nothing otherwise (the final summary is printed either way).
type Progress struct {
	mu      sync.Mutex
	printer *Printer
	width   int
	open    bool
}

// NewProgress creates a Progress writing through printer.
func NewProgress(printer *Printer) *Progress {
	return &Progress{printer: printer, width: 30}
}

// Update reports that current of total notes of stage are done.
func (p *Progress) Update(stage Stage, current, total int, name string) {
	if !p.printer.Interactive() || total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := float64(current) / float64(total) * 100
	label := p.printer.styles.Stage.Render(fmt.Sprintf("[%s]", stage.Icon()))
	_, _ = fmt.Fprintf(p.printer.out, "\r\033[K%s %s %3.0f%% %s", label, renderBar(current, total, p.width), pct, truncate(name, 40))
	p.open = true
	if current >= total {
		_, _ = fmt.Fprintln(p.printer.out)
		p.open = false
	}
}

// Done terminates an unfinished progress line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		_, _ = fmt.Fprintln(p.printer.out)
		p.open = false
	}
}

func renderBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := current * width / total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
