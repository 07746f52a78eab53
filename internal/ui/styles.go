package ui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the chat shell.
type Styles struct {
	Header    lipgloss.Style
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Pending   lipgloss.Style
	Error     lipgloss.Style
	Timestamp lipgloss.Style
	Typing    lipgloss.Style
	Prompt    lipgloss.Style
	Session   lipgloss.Style
	Preview   lipgloss.Style
	Status    lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1),
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35")),
		System:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Typing:    lipgloss.NewStyle().Foreground(lipgloss.Color("35")).Italic(true),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Session:   lipgloss.NewStyle().Bold(true),
		Preview:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
