package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Warm herb green accent, ANSI 256 codes.
const (
	ColorAccent   = "113" // #87D75F
	ColorAccentDm = "65"  // dimmed accent for borders and chips
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
	ColorPink     = "205" // favorites
)

// Styles holds the lipgloss styles shared by the picker and CLI output.
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Label    lipgloss.Style
	Active   lipgloss.Style
	Chip     lipgloss.Style
	Favorite lipgloss.Style
	Panel    lipgloss.Style
}

// DefaultStyles returns the coloured style set.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Chip: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWhite)).
			Background(lipgloss.Color(ColorAccentDm)).
			Padding(0, 1),
		Favorite: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPink)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain output. Chips keep
// brackets so they stay distinguishable.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Title:    plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Dim:      plain,
		Label:    plain,
		Active:   plain,
		Chip:     plain,
		Favorite: plain,
		Panel:    plain,
	}
}

// GetStyles returns the style set for the colour preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
