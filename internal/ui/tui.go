package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Reporter receives per-note progress from a pipeline run.
type Reporter interface {
	Update(stage Stage, current, total int, name string)
	Done()
}

// NewReporter returns the bubbletea view for interactive terminals and the
// plain Progress for pipes, CI, or when forcePlain is set.
func NewReporter(printer *Printer, forcePlain bool) Reporter {
	if forcePlain || !printer.Interactive() {
		return NewProgress(printer)
	}
	return NewTUIProgress(printer.out, printer.styles)
}

// TUIProgress renders progress with a spinner and bar. The program starts
// on the first Update.
type TUIProgress struct {
	mu      sync.Mutex
	out     io.Writer
	styles  Styles
	program *tea.Program
	done    chan struct{}
	stopped bool
}

// NewTUIProgress creates a TUIProgress writing to out.
func NewTUIProgress(out io.Writer, styles Styles) *TUIProgress {
	return &TUIProgress{out: out, styles: styles, done: make(chan struct{})}
}

// Update implements Reporter.
func (t *TUIProgress) Update(stage Stage, current, total int, name string) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.program == nil {
		t.program = tea.NewProgram(newProgressModel(t.styles),
			tea.WithOutput(t.out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler())
		go func() {
			defer close(t.done)
			_, _ = t.program.Run()
		}()
	}
	program := t.program
	t.mu.Unlock()

	program.Send(progressMsg{stage: stage, current: current, total: total, name: name})
}

// Done implements Reporter. It clears the view and waits briefly for the
// program to exit.
func (t *TUIProgress) Done() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return
	}
	program.Send(finishMsg{})
	select {
	case <-t.done:
	case <-time.After(2 * time.Second):
		program.Kill()
	}
}

type progressMsg struct {
	stage   Stage
	current int
	total   int
	name    string
}

type finishMsg struct{}

type progressModel struct {
	styles   Styles
	spinner  spinner.Model
	bar      progress.Model
	stage    Stage
	current  int
	total    int
	name     string
	finished bool
}

func newProgressModel(styles Styles) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Stage

	return progressModel{
		styles:  styles,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorLime),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.stage, m.current, m.total, m.name = msg.stage, msg.current, msg.total, msg.name
		return m, nil

	case finishMsg:
		m.finished = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-60, 10), 50)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished || m.total <= 0 {
		return ""
	}
	pct := min(float64(m.current)/float64(m.total), 1)
	label := m.styles.Stage.Render(fmt.Sprintf("[%s]", m.stage.Icon()))
	return fmt.Sprintf("%s %s %s %3.0f%% %s\n",
		m.spinner.View(), label, m.bar.ViewAs(pct), pct*100, m.styles.Dim.Render(truncate(m.name, 40)))
}
