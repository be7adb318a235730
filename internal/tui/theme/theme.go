// Package theme defines color themes for the cashcast dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/model"
)

// palette is the raw color set a theme is built from.
type palette struct {
	bg, surface, hover    string
	border, borderBright  string
	dim, muted, text      string
	accent, accentBright  string
	green, orange, red    string
	blue, blueBright      string
	yellow, magenta, cyan string
}

// Theme holds the color roles used throughout the TUI. The cash-flow roles
// (Income through Exceeded) are derived from the palette.
type Theme struct {
	Name string

	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and panels
	SurfaceHover lipgloss.Color // active tab, selected row
	Border       lipgloss.Color
	BorderBright lipgloss.Color
	BorderAccent lipgloss.Color
	TextDim      lipgloss.Color // hints, tail-only rows
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Green, Orange, Red, Blue, BlueBright lipgloss.Color
	Yellow, Magenta, Cyan                lipgloss.Color

	Income     lipgloss.Color
	Expense    lipgloss.Color
	Investment lipgloss.Color
	OnTrack    lipgloss.Color
	AtRisk     lipgloss.Color
	Exceeded   lipgloss.Color
}

func newTheme(name string, p palette) Theme {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Theme{
		Name:         name,
		Background:   c(p.bg),
		Surface:      c(p.surface),
		SurfaceHover: c(p.hover),
		Border:       c(p.border),
		BorderBright: c(p.borderBright),
		BorderAccent: c(p.accent),
		TextDim:      c(p.dim),
		TextMuted:    c(p.muted),
		TextPrimary:  c(p.text),
		Accent:       c(p.accent),
		AccentBright: c(p.accentBright),
		Green:        c(p.green),
		Orange:       c(p.orange),
		Red:          c(p.red),
		Blue:         c(p.blue),
		BlueBright:   c(p.blueBright),
		Yellow:       c(p.yellow),
		Magenta:      c(p.magenta),
		Cyan:         c(p.cyan),
		Income:       c(p.green),
		Expense:      c(p.red),
		Investment:   c(p.blue),
		OnTrack:      c(p.green),
		AtRisk:       c(p.orange),
		Exceeded:     c(p.red),
	}
}

// FlexokiDark is the default: a warm, paper-inspired dark theme.
var FlexokiDark = newTheme("flexoki-dark", palette{
	bg: "#100F0F", surface: "#1C1B1A", hover: "#282726",
	border: "#403E3C", borderBright: "#575653",
	dim: "#575653", muted: "#878580", text: "#FFFCF0",
	accent: "#3AA99F", accentBright: "#5BC8BE",
	green: "#879A39", orange: "#DA702C", red: "#D14D41",
	blue: "#4385BE", blueBright: "#6BA3D6",
	yellow: "#D0A215", magenta: "#CE5D97", cyan: "#24837B",
})

var CatppuccinMocha = newTheme("catppuccin-mocha", palette{
	bg: "#1E1E2E", surface: "#313244", hover: "#45475A",
	border: "#585B70", borderBright: "#7F849C",
	dim: "#6C7086", muted: "#A6ADC8", text: "#CDD6F4",
	accent: "#89B4FA", accentBright: "#B4D0FB",
	green: "#A6E3A1", orange: "#FAB387", red: "#F38BA8",
	blue: "#89B4FA", blueBright: "#B4D0FB",
	yellow: "#F9E2AF", magenta: "#F5C2E7", cyan: "#94E2D5",
})

var TokyoNight = newTheme("tokyo-night", palette{
	bg: "#1A1B26", surface: "#24283B", hover: "#343A52",
	border: "#565F89", borderBright: "#7982A9",
	dim: "#565F89", muted: "#A9B1D6", text: "#C0CAF5",
	accent: "#7AA2F7", accentBright: "#A9C1FF",
	green: "#9ECE6A", orange: "#FF9E64", red: "#F7768E",
	blue: "#7AA2F7", blueBright: "#A9C1FF",
	yellow: "#E0AF68", magenta: "#BB9AF7", cyan: "#7DCFFF",
})

// Terminal sticks to the ANSI 16 colors.
var Terminal = newTheme("terminal", palette{
	bg: "0", surface: "0", hover: "8",
	border: "8", borderBright: "7",
	dim: "8", muted: "7", text: "15",
	accent: "6", accentBright: "14",
	green: "2", orange: "3", red: "1",
	blue: "4", blueBright: "12",
	yellow: "3", magenta: "5", cyan: "6",
})

// All lists the themes in display order.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Active is the currently selected theme.
var Active = FlexokiDark

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Flow returns the color for a signed cash amount.
func (t Theme) Flow(v float64) lipgloss.Color {
	switch {
	case v > 0:
		return t.Income
	case v < 0:
		return t.Expense
	}
	return t.TextMuted
}

// Status maps a budget status to its color.
func (t Theme) Status(s model.BudgetStatus) lipgloss.Color {
	switch s {
	case model.Exceeded:
		return t.Exceeded
	case model.AtRisk:
		return t.AtRisk
	}
	return t.OnTrack
}

// Pattern maps a pattern class to its color.
func (t Theme) Pattern(p model.PatternType) lipgloss.Color {
	switch p {
	case model.Monthly:
		return t.BlueBright
	case model.Weekly:
		return t.Cyan
	case model.Daily:
		return t.Magenta
	}
	return t.Yellow
}
