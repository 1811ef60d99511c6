package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours lattice values. Cold is used below the background, Hot
// above it; each ramp runs from faint to saturated.
type Theme struct {
	Name   string
	Cold   []lipgloss.Color
	Hot    []lipgloss.Color
	Zero   lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
}

var (
	ThemeEmber = Theme{
		Name:   "ember",
		Cold:   []lipgloss.Color{"#1b3a5c", "#2b6a9e", "#3fa7d6", "#7fdbff"},
		Hot:    []lipgloss.Color{"#5c1b1b", "#a33a1f", "#e0761f", "#ffd23f"},
		Zero:   lipgloss.Color("#303040"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666688"),
		Accent: lipgloss.Color("#00ffff"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Cold:   []lipgloss.Color{"#003300", "#005500", "#007700", "#009900"},
		Hot:    []lipgloss.Color{"#00aa00", "#00cc00", "#44ff44", "#aaffaa"},
		Zero:   lipgloss.Color("#001a00"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Accent: lipgloss.Color("#88ff88"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Cold:   []lipgloss.Color{"#444444", "#666666", "#888888", "#aaaaaa"},
		Hot:    []lipgloss.Color{"#bbbbbb", "#cccccc", "#eeeeee", "#ffffff"},
		Zero:   lipgloss.Color("#222222"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Cold:   []lipgloss.Color{"#2d1b2e", "#5a2d5c", "#8b4b8c", "#c88fc9"},
		Hot:    []lipgloss.Color{"#003355", "#0077be", "#00a8cc", "#7fe7ff"},
		Zero:   lipgloss.Color("#001a33"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Accent: lipgloss.Color("#ffd700"),
	}

	CurrentTheme = ThemeEmber

	Themes = []Theme{
		ThemeEmber,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeEmber
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
