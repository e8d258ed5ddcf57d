// Package color is the terminal palette of the CLI.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI code or hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

var (
	HiBlue   = New("12")
	HiPurple = New("13")
	HiCyan   = New("14")
)

var (
	Orange = New("#ffb703")
	Gray   = New("#808080")
)

// Kind colors, one per resolver strategy.
var (
	Sniff  = Orange
	JSON   = HiCyan
	Super  = HiPurple
	Muted  = Gray
	Accent = New("#cba6f7")
)
