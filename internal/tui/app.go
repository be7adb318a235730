// Package tui provides the interactive Bubble Tea dashboard for cashcast.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

// Source produces forecasts for the dashboard.
type Source interface {
	GetForecast(ctx context.Context, opts forecast.Options) (*model.FullForecast, error)
	Invalidate()
}

type forecastLoadedMsg struct {
	full    *model.FullForecast
	err     error
	elapsed time.Duration
}

// Options configures a new App.
type Options struct {
	Config    config.Config
	Forecast  forecast.Options
	NeedSetup bool
	TxnCount  int
	Logger    logrus.FieldLogger
}

// App is the root Bubble Tea model.
type App struct {
	src  Source
	opts forecast.Options
	cfg  config.Config
	log  logrus.FieldLogger

	full        *model.FullForecast
	err         error
	loaded      bool
	refreshing  bool
	loadTime    time.Duration
	lastRefresh time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    [5]int

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	setupErr  error
	needSetup bool
	txnCount  int

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 6 // header + status bar
	minHalfPageScroll = 1
	minContentHeight  = 5
)

// NewApp creates a new TUI app model.
func NewApp(src Source, o Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	logger := o.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return App{
		src:       src,
		opts:      o.Forecast,
		cfg:       o.Config,
		log:       logger,
		needSetup: o.NeedSetup,
		txnCount:  o.TxnCount,
		setupVals: SetupValuesFrom(o.Config),
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadForecastCmd(a.src, a.opts),
		a.spinner.Tick,
	)
}

// loadForecastCmd runs the forecast off the UI goroutine.
func loadForecastCmd(src Source, opts forecast.Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		full, err := src.GetForecast(context.Background(), opts)
		return forecastLoadedMsg{full: full, err: err, elapsed: time.Since(start)}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-1)
		case tea.MouseButtonWheelDown:
			a.scrollBy(1)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case forecastLoadedMsg:
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.elapsed
		a.lastRefresh = time.Now()
		a.err = msg.err
		if msg.err == nil {
			a.full = msg.full
			if a.txnCount == 0 {
				a.txnCount = msg.full.AnalysisInfo.TransactionsAnalyzed
			}
		} else if !errors.Is(msg.err, forecast.ErrNoTransactions) {
			a.log.WithError(msg.err).Error("forecast failed")
		}

		if a.needSetup && a.setupForm == nil {
			a.setupForm = NewSetupForm(a.txnCount, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	halfPage := max((a.height-scrollOverhead)/2, minHalfPageScroll)

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if a.refreshing {
			return a, nil
		}
		a.refreshing = true
		a.src.Invalidate()
		return a, tea.Batch(loadForecastCmd(a.src, a.opts), a.spinner.Tick)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "j", "down":
		a.scrollBy(1)
	case "k", "up":
		a.scrollBy(-1)
	case "ctrl+d", "pgdown":
		a.scrollBy(halfPage)
	case "ctrl+u", "pgup":
		a.scrollBy(-halfPage)
	case "g", "home":
		a.scroll[a.activeTab] = 0
	case "1", "2", "3", "4", "5":
		a.activeTab = int(key[0] - '1')
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

// scrollBy moves the active tab's offset. The upper bound is applied at
// render time, where the content height is known.
func (a *App) scrollBy(n int) {
	a.scroll[a.activeTab] = max(a.scroll[a.activeTab]+n, 0)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupVals.Apply(&a.cfg)
		a.setupVals.ApplyDisplay()
		a.setupErr = config.Save(a.cfg)
		if a.setupErr != nil {
			a.log.WithError(a.setupErr).Warn("saving config")
		}
		a.needSetup = false
		a.setupForm = nil

		// Reload with the chosen window and history.
		a.opts.HistoryMonths = forecast.Ptr(a.cfg.General.HistoryMonths)
		a.opts.MonteCarloRuns = forecast.Ptr(a.cfg.General.MonteCarloRuns)
		a.opts.ForecastMonths = a.cfg.General.ForecastMonths
		a.refreshing = true
		return a, tea.Batch(loadForecastCmd(a.src, a.opts), a.spinner.Tick)

	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cashcast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cashcast"))
	b.WriteString(subtitleStyle.Render(" · Cash-Flow Forecast"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Analyzing transaction history..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o d p b s", "Jump to tab"},
			{"1-5", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Scroll"},
			{"^d ^u", "Half-page scroll"},
			{"g", "Back to top"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"r", "Recompute forecast"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)

	age := ""
	if a.refreshing {
		age = a.spinner.View() + " refreshing"
	} else if !a.lastRefresh.IsZero() {
		age = fmt.Sprintf("%s ago (%.1fs)", humanizeAge(time.Since(a.lastRefresh)), a.loadTime.Seconds())
	}
	statusBar := components.RenderStatusBar(w, a.windowLabel(), age)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.err != nil:
		content = a.renderError(cw)
	default:
		switch a.activeTab {
		case 0:
			content = a.renderOverviewTab(cw)
		case 1:
			content = a.renderDailyTab(cw)
		case 2:
			content = a.renderPatternsTab(cw)
		case 3:
			content = a.renderBudgetsTab(cw)
		case 4:
			content = a.renderScenariosTab(cw)
		}
	}

	content = scrollLines(content, a.scroll[a.activeTab], contentH)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderFilterRow shows the request parameters under the tab bar.
func (a App) renderFilterRow(w int) string {
	t := theme.Active
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	parts := []string{}
	if a.full != nil {
		info := a.full.AnalysisInfo
		hist := "all history"
		if info.HistoryMonths > 0 && !info.UsedFullHistoryFallback {
			hist = fmt.Sprintf("%dmo history", info.HistoryMonths)
		}
		parts = append(parts,
			accent.Render(fmt.Sprintf("%dd", len(a.full.Days)))+pill.Render(" window"),
			accent.Render(hist),
			accent.Render(cli.FormatNumber(int64(info.MonteCarloRuns)))+pill.Render(" runs"),
		)
	}
	if a.opts.Seed != 0 {
		parts = append(parts, pill.Render("seed ")+accent.Render(fmt.Sprintf("%d", a.opts.Seed)))
	}
	if a.setupErr != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render("config not saved"))
	}

	row := pill.Render(" ") + strings.Join(parts, pill.Render(" │ ")) + pill.Render(" ")
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(row)
}

func (a App) windowLabel() string {
	if a.full == nil {
		return ""
	}
	if a.full.EndDate.Before(a.full.StartDate) {
		return "empty window"
	}
	return a.full.StartDate.Format("02 Jan") + " - " + a.full.EndDate.Format("02 Jan 2006")
}

func (a App) renderError(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	if errors.Is(a.err, forecast.ErrNoTransactions) {
		body := muted.Render("No transactions found.") + "\n\n" +
			muted.Render("Import bank exports first: ") + warn.Render("cashcast import <dir>")
		return components.ContentCard("Nothing to forecast", body, cw)
	}
	body := warn.Render(a.err.Error()) + "\n\n" + muted.Render("Press r to retry.")
	return components.ContentCard("Forecast failed", body, cw)
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow RenderTabBar: each tab is TabWidth wide, separated by one
// divider column.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		tabW := components.TabWidth(i)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}

// ─── Helpers ────────────────────────────────────────────────────

// dayLabels builds compact X-axis labels: month abbreviation on the first
// day and on month boundaries, the day number elsewhere.
func dayLabels(days []model.DailyForecast) []string {
	labels := make([]string, len(days))
	for i, d := range days {
		if i == 0 || d.Date.Day() == 1 {
			labels[i] = d.Date.Format("Jan")
			continue
		}
		labels[i] = fmt.Sprintf("%d", d.Date.Day())
	}
	return labels
}

func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// scrollLines drops the first offset lines, clamped so the last page stays full.
func scrollLines(s string, offset, height int) string {
	lines := strings.Split(s, "\n")
	offset = min(offset, max(len(lines)-height, 0))
	if offset <= 0 {
		return s
	}
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
