package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/N1nj4lxl/Modly/pkg/modly/engine"
)

// Work is a phase run behind the progress view. It must return once ctx
// is canceled.
type Work func(ctx context.Context, report func(engine.Progress)) error

// ProgressMsg is sent when the running phase reports progress.
type ProgressMsg engine.Progress

// DoneMsg is sent when the work returns.
type DoneMsg struct {
	Err error
}

var phaseLabels = map[engine.Phase]string{
	engine.PhaseScan:     "Scanning",
	engine.PhaseClassify: "Classifying",
	engine.PhasePlan:     "Planning",
	engine.PhaseExecute:  "Sorting",
	engine.PhaseUndo:     "Undoing",
	engine.PhaseWatch:    "Watching",
}

// ProgressModel shows a spinner, a progress bar once the total is known,
// and the item being processed.
type ProgressModel struct {
	title     string
	root      string
	spinner   spinner.Model
	bar       progress.Model
	current   engine.Progress
	startTime time.Time
	width     int

	cancel   context.CancelFunc
	updates  chan engine.Progress
	finished chan struct{}

	stopping bool
	done     bool
	err      error
}

// NewProgressModel creates a progress model for a phase over root.
func NewProgressModel(title, root string, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	return ProgressModel{
		title:     title,
		root:      root,
		spinner:   s,
		bar:       bar,
		startTime: time.Now(),
		width:     80,
		cancel:    cancel,
		updates:   make(chan engine.Progress, 64),
		finished:  make(chan struct{}),
	}
}

// Report queues a progress update. Updates are dropped while the view is
// behind; the next one catches it up.
func (m ProgressModel) Report(p engine.Progress) {
	select {
	case m.updates <- p:
	default:
	}
}

// listen waits for the next progress update.
func (m ProgressModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-m.updates:
			return ProgressMsg(p)
		case <-m.finished:
			return nil
		}
	}
}

// Init initializes the model.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// Update handles messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(m.width-12, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.stopping && m.cancel != nil {
				m.stopping = true
				m.cancel()
			}
		}
		return m, nil

	case ProgressMsg:
		m.current = engine.Progress(msg)
		return m, m.listen()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the model. The finished view is empty so the command's
// own output follows directly.
func (m ProgressModel) View() string {
	if m.done {
		return ""
	}
	contentWidth := max(m.width-4, 40)

	var b strings.Builder
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	label := phaseLabels[m.current.Phase]
	if label == "" {
		label = "Starting"
	}
	if m.stopping {
		b.WriteString(warningTextStyle.Render("  Stopping after the current file..."))
	} else {
		fmt.Fprintf(&b, "  %s %s", m.spinner.View(), label)
		if m.current.Current != "" {
			b.WriteString(" ")
			b.WriteString(pathTextStyle.Render(truncatePath(m.current.Current, contentWidth-len(label)-8)))
		}
	}
	b.WriteString("\n\n")

	if m.current.Total > 0 {
		b.WriteString("  ")
		b.WriteString(m.bar.ViewAs(m.Percent()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("  ctrl+c"))
	b.WriteString(keyDescStyle.Render(" stop"))

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// Percent returns the completed fraction of the current phase.
func (m ProgressModel) Percent() float64 {
	if m.current.Total <= 0 {
		return 0
	}
	return min(float64(m.current.Done)/float64(m.current.Total), 1)
}

// Err returns the work's error once it is done.
func (m ProgressModel) Err() error {
	return m.err
}

func (m ProgressModel) renderHeader(width int) string {
	title := titleStyle.Render("  " + m.title)
	root := mutedTextStyle.Render(truncatePath(m.root, max(width/2, 10)))
	spacing := max(width-lipgloss.Width(title)-lipgloss.Width(root), 1)
	return title + strings.Repeat(" ", spacing) + root
}

func (m ProgressModel) renderStats() string {
	done := "-"
	if m.current.Total > 0 {
		done = fmt.Sprintf("%s / %s", humanize.Comma(int64(m.current.Done)), humanize.Comma(int64(m.current.Total)))
	} else if m.current.Done > 0 {
		done = humanize.Comma(int64(m.current.Done))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		"  ", renderStatBox("Done", done, 24), " ", renderStatBox("Time", formatDuration(time.Since(m.startTime)), 12))
}

func renderStatBox(label, value string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		center(statsLabelStyle.Render(label), width-4),
		center(statsValueStyle.Render(value), width-4))
	return statsBoxStyle.Width(width).Render(content)
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}

// RunProgress runs work behind the progress view drawn on out, and
// returns the work's error. Pressing ctrl+c cancels the work's context;
// the view stays up until the work returns.
func RunProgress(ctx context.Context, out io.Writer, title, root string, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgressModel(title, root, cancel)
	p := tea.NewProgram(m, tea.WithOutput(out))

	var workErr error
	go func() {
		workErr = work(ctx, m.Report)
		close(m.finished)
		p.Send(DoneMsg{Err: workErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-m.finished
		return errors.Join(workErr, fmt.Errorf("progress view: %w", err))
	}
	<-m.finished
	return workErr
}
