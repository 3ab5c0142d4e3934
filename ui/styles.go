package ui

import (
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"
)

type styles struct {
	title       lipgloss.Style
	label       lipgloss.Style
	key         lipgloss.Style
	activeKey   lipgloss.Style
	missingKey  lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	footer      lipgloss.Style
}

func newStyles(highlight string) styles {
	neutral := lipgloss.Color("250")
	border := lipgloss.Color("240")
	if !te.HasDarkBackground() {
		neutral = lipgloss.Color("236")
		border = lipgloss.Color("250")
	}

	key := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Foreground(neutral).
		Padding(0, 1).
		Align(lipgloss.Center)

	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#6124DF")).
			Padding(0, 1),
		label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		key:   key,
		activeKey: key.
			BorderForeground(lipgloss.Color(highlight)).
			Background(lipgloss.Color(highlight)).
			Foreground(lipgloss.Color("0")).
			Bold(true),
		missingKey:  key.Faint(true).Strikethrough(true),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		errorStatus: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		footer:      lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}
