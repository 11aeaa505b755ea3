package output

import "github.com/charmbracelet/lipgloss"

// Color constants using ANSI 256-color palette.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

// Box styles for containing grouped content.
var (
	// HeaderBox holds the source and phase information.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox holds the summary counts.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)

	// ErrorBox is the style for error messages.
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1)
)

// Text styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted)
)

// confidenceStyle colors a type by how sure the classifier was.
func confidenceStyle(level string) lipgloss.Style {
	switch level {
	case "high":
		return SuccessStyle
	case "medium":
		return ValueStyle
	default:
		return WarningStyle
	}
}

// kindStyle colors an operation kind by how destructive it is.
func kindStyle(kind string) lipgloss.Style {
	switch kind {
	case "delete":
		return ErrorStyle.Bold(true)
	case "relocate":
		return WarningStyle
	case "move":
		return SuccessStyle
	default:
		return MutedStyle
	}
}

// outcomeStyle colors an undo outcome.
func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "restored", "dir-removed":
		return SuccessStyle
	case "failed":
		return ErrorStyle.Bold(true)
	case "irreversible", "dir-kept":
		return WarningStyle
	default:
		return MutedStyle
	}
}
