package initcmd

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/certwatch-app/cw-certshow/internal/output"
)

// sectionWidth is the width of a rendered section divider
const sectionWidth = 44

var sectionStyle = output.MutedStyle.MarginTop(1).MarginBottom(1)

// CreateTheme returns the huh theme used by every wizard form.
func CreateTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(output.ColorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(output.ColorMuted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(output.ColorHighlight)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(output.ColorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(output.ColorPrimary)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(output.ColorError)
	t.Blurred.Title = t.Blurred.Title.Foreground(output.ColorMuted)

	return t
}

// RenderHeader renders the wizard banner.
func RenderHeader() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(output.ColorLight).
		Background(output.ColorPrimary).
		Padding(0, 2).
		Render(" cw-certshow setup ")
}

// RenderSection renders a divider padded to sectionWidth.
func RenderSection(title string) string {
	fill := sectionWidth - len(title)
	if fill < 3 {
		fill = 3
	}
	return sectionStyle.Render("─── " + title + " " + strings.Repeat("─", fill))
}
