package ui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the lipgloss styles used by the list rows and chrome.
type Theme struct {
	Title    lipgloss.Style
	Meta     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Critical lipgloss.Style
	Warning  lipgloss.Style
	Resolved lipgloss.Style
	Chip     lipgloss.Style
	Error    lipgloss.Style
	Header   lipgloss.Style
	Status   lipgloss.Style
}

// DarkTheme is the default theme.
func DarkTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Critical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Resolved: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Chip: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// LightTheme adjusts colors for light terminal backgrounds.
func LightTheme() Theme {
	t := DarkTheme()
	t.Meta = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	t.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	t.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("93")).Bold(true)
	t.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("93"))
	return t
}

// ThemeByName returns the named theme, defaulting to dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}
