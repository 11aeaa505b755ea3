package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxDialogLines caps the items listed in a confirmation dialog.
const maxDialogLines = 10

// ConfirmModel asks a yes/no question. Cancel is focused first.
type ConfirmModel struct {
	title   string
	lines   []string
	action  string
	focused int // 0 = cancel, 1 = action
	chosen  bool
	done    bool
}

// NewConfirmModel creates a dialog listing lines under title, with a
// button labelled action.
func NewConfirmModel(title string, lines []string, action string) ConfirmModel {
	return ConfirmModel{title: title, lines: lines, action: action}
}

// Init initializes the model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		m.focused = 1 - m.focused
	case "y", "Y":
		m.chosen, m.done = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.chosen, m.done = false, true
		return m, tea.Quit
	case "enter", " ":
		m.chosen, m.done = m.focused == 1, true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the dialog.
func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(dialogTitleStyle.Width(56).Render(m.title))
	b.WriteString("\n\n")

	shown := m.lines
	if len(shown) > maxDialogLines {
		shown = shown[:maxDialogLines]
	}
	for _, line := range shown {
		b.WriteString(dialogTextStyle.Render(truncatePath(line, 56)))
		b.WriteString("\n")
	}
	if extra := len(m.lines) - len(shown); extra > 0 {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("... and %d more", extra)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cancel, action := inactiveButtonStyle, inactiveButtonStyle
	if m.focused == 0 {
		cancel = activeButtonStyle.Background(subtleColor)
	} else {
		action = activeButtonStyle
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		cancel.Render("Cancel"), action.Render(m.action))
	b.WriteString(center(buttons, 56))

	return dialogBoxStyle.Render(b.String())
}

// Confirmed reports whether the action was chosen.
func (m ConfirmModel) Confirmed() bool {
	return m.chosen
}

// Confirm shows the dialog on out, reading keys from in, and reports
// whether the user chose the action.
func Confirm(in io.Reader, out io.Writer, title string, lines []string, action string) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(title, lines, action), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation dialog: %w", err)
	}
	m, ok := final.(ConfirmModel)
	return ok && m.Confirmed(), nil
}

// RenderSuccess styles a one-line success message.
func RenderSuccess(s string) string { return successTextStyle.Render(s) }

// RenderError styles an error line.
func RenderError(s string) string { return errorTextStyle.Render(s) }
