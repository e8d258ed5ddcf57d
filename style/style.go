// Package style composes lipgloss styles for CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/reel-cli/reel/color"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer applying the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

// Tag returns a renderer drawing s as a padded block.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(fg).Background(bg).Padding(0, 1).Render(s) }
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

// Box frames a block of text, used for diagnostics.
func Box(border lipgloss.Color) lipgloss.Style {
	return New().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Margin(1, 0)
}

// Verdict renders a yes/no classification outcome.
func Verdict(ok bool) string {
	if ok {
		return Fg(color.Green)("yes")
	}
	return Fg(color.Muted)("no")
}
