package output

import "github.com/charmbracelet/lipgloss"

// Palette shared by the text renderer and the interactive commands
var (
	ColorPrimary   = lipgloss.Color("#0EA5E9") // Sky blue
	ColorSuccess   = lipgloss.Color("#22C55E") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorHighlight = lipgloss.Color("#A855F7") // Purple
	ColorDark      = lipgloss.Color("#1F2937")
	ColorLight     = lipgloss.Color("#F9FAFB")
)

var (
	// TitleStyle renders headings
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	// MutedStyle renders labels and secondary text
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	okStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	errStyle  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	codeStyle = lipgloss.NewStyle().Background(ColorDark).Foreground(ColorLight).Padding(0, 1)
)

// Success renders a status line for a completed step
func Success(msg string) string {
	return okStyle.Bold(true).Render("✓ " + msg)
}

// Error renders a status line for a failed step
func Error(msg string) string {
	return errStyle.Render("✗ " + msg)
}

// Warning renders a status line that needs attention
func Warning(msg string) string {
	return warnStyle.Render("! " + msg)
}

// Info renders a hint
func Info(msg string) string {
	return MutedStyle.Render("→ " + msg)
}

// Code renders a command the user can copy
func Code(cmd string) string {
	return codeStyle.Render(cmd)
}
