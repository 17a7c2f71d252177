package console

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Faint     lipgloss.Style
	Success   lipgloss.Style
	Danger    lipgloss.Style
	Busy      lipgloss.Style
	Section   lipgloss.Style
	Prompt    lipgloss.Style
	Highlight lipgloss.Style
}

var DefaultTheme = Theme{
	Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1),
	Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	Faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("28")).Padding(0, 1),
	Danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
	Busy:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214")),
	Section:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Underline(true),
	Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
}
