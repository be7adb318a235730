package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// the forecast window and age on the right.
func RenderStatusBar(width int, window, age string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.SurfaceHover)

	left := " [?]help  [r]efresh  [q]uit"
	var right []string
	if window != "" {
		right = append(right, window)
	}
	if age != "" {
		right = append(right, "updated "+age)
	}
	rightText := strings.Join(right, "  ·  ") + " "

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(rightText), 0)
	return style.Width(width).Render(left + strings.Repeat(" ", padding) + rightText)
}
