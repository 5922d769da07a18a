// Package theme defines the lipgloss styles used across the UI.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/keyvc/vix/internal/vcs"
)

// Theme groups the styles for the header, prompt, and result lines.
type Theme struct {
	Header       lipgloss.Style
	HeaderMode   lipgloss.Style
	StatusOK     lipgloss.Style
	StatusErr    lipgloss.Style
	StatusBusy   lipgloss.Style
	Prompt       lipgloss.Style
	Placeholder  lipgloss.Style
	FilterPrefix lipgloss.Style
	Help         lipgloss.Style

	LineContext  lipgloss.Style
	LineAdded    lipgloss.Style
	LineRemoved  lipgloss.Style
	LineHeader   lipgloss.Style
	LineSelected lipgloss.Style
	LineCursor   lipgloss.Style
}

// Default returns the standard theme.
func Default() *Theme {
	return &Theme{
		Header:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		HeaderMode:   lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")).Padding(0, 1),
		StatusOK:     lipgloss.NewStyle().Background(lipgloss.Color("2")).Foreground(lipgloss.Color("0")).Padding(0, 1),
		StatusErr:    lipgloss.NewStyle().Background(lipgloss.Color("1")).Foreground(lipgloss.Color("15")).Padding(0, 1),
		StatusBusy:   lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15")).Padding(0, 1),
		Prompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Placeholder:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		FilterPrefix: lipgloss.NewStyle().Background(lipgloss.Color("1")).Foreground(lipgloss.Color("15")),
		Help:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		LineContext:  lipgloss.NewStyle(),
		LineAdded:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LineRemoved:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		LineHeader:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		LineSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LineCursor:   lipgloss.NewStyle().Background(lipgloss.Color("5")).Foreground(lipgloss.Color("0")),
	}
}

// LineStyle maps a result line kind to its style.
func (t *Theme) LineStyle(kind vcs.LineKind) lipgloss.Style {
	switch kind {
	case vcs.KindAdded:
		return t.LineAdded
	case vcs.KindRemoved:
		return t.LineRemoved
	case vcs.KindHeader:
		return t.LineHeader
	default:
		return t.LineContext
	}
}
