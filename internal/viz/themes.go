package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette shared by the report renderers and the explorer.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Pass    lipgloss.Color
	Warn    lipgloss.Color
	Fail    lipgloss.Color
}

var (
	ThemeSlate = Theme{
		Name:    "slate",
		Primary: lipgloss.Color("#00ccff"),
		Accent:  lipgloss.Color("#ff88ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888899"),
		Border:  lipgloss.Color("#444466"),
		Pass:    lipgloss.Color("#00ff88"),
		Warn:    lipgloss.Color("#ffcc00"),
		Fail:    lipgloss.Color("#ff4444"),
	}

	ThemePhosphor = Theme{
		Name:    "phosphor",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Border:  lipgloss.Color("#00cc00"),
		Pass:    lipgloss.Color("#88ff88"),
		Warn:    lipgloss.Color("#ffff00"),
		Fail:    lipgloss.Color("#ff0000"),
	}

	ThemePaper = Theme{
		Name:    "paper",
		Primary: lipgloss.Color("#0055aa"),
		Accent:  lipgloss.Color("#aa3377"),
		Text:    lipgloss.Color("#222222"),
		Muted:   lipgloss.Color("#777777"),
		Border:  lipgloss.Color("#bbbbbb"),
		Pass:    lipgloss.Color("#118833"),
		Warn:    lipgloss.Color("#aa7700"),
		Fail:    lipgloss.Color("#cc0000"),
	}

	Themes = []Theme{ThemeSlate, ThemePhosphor, ThemePaper}
)

// GetTheme returns a theme by name, falling back to slate.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSlate
}

// NextTheme cycles through Themes.
func NextTheme(cur Theme) Theme {
	for i, t := range Themes {
		if t.Name == cur.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
