package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

type fakeSource struct {
	full        *model.FullForecast
	err         error
	calls       int
	invalidated int
}

func (f *fakeSource) GetForecast(context.Context, forecast.Options) (*model.FullForecast, error) {
	f.calls++
	return f.full, f.err
}

func (f *fakeSource) Invalidate() { f.invalidated++ }

func testForecast() *model.FullForecast {
	start := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	var days []model.DailyForecast
	var base []model.ScenarioDay
	running := 0.0
	for i := 0; i < 5; i++ {
		d := model.DailyForecast{Date: start.AddDate(0, 0, i), ExpectedExpenses: 40, NetCashFlow: -40}
		if i == 2 {
			d.ExpectedIncome = 3000
			d.NetCashFlow = 2960
			d.TopPredictions = []model.Prediction{{Name: "Payroll", IsChosenOccurrence: true}}
		}
		running += d.NetCashFlow
		days = append(days, d)
		base = append(base, model.ScenarioDay{Date: d.Date, Net: d.NetCashFlow, Cumulative: running})
	}
	limit := 300.0
	res := &model.ForecastResult{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 4),
		Days:      days,
		Totals:    model.ScenarioTotals{Income: 3000, Expenses: 200, Net: 2800},
		Scenarios: map[string]*model.ScenarioResult{
			forecast.ScenarioBase: {Label: "base", Days: base, Totals: model.ScenarioTotals{Net: 2800}},
		},
		MonteCarlo: model.MonteCarloSummary{NumSimulations: 3, AllScenarios: []model.ScenarioTotals{{Net: 2500}, {Net: 2900}, {Net: 2700}}},
		Patterns: map[string]*model.Pattern{
			"income:payroll": {Signature: "income:payroll", TransactionName: "Payroll", CategoryName: "Salary", PatternType: model.Monthly, AvgAmount: 3000, AvgOccurrencesPerMonth: 1, Direction: 1, Occurrences: 12},
		},
		Skipped:      []model.SkippedPattern{{Name: "Broker transfer", Reason: model.SkipNonRecurrentInvestment, Occurrences: 1}},
		AnalysisInfo: model.AnalysisInfo{TransactionsAnalyzed: 240, PatternsFound: 1, MonteCarloRuns: 3},
	}
	return &model.FullForecast{
		ForecastResult: res,
		BudgetOutlook: []model.BudgetOutlookRow{
			{CategoryName: "Groceries", Budgeted: true, Limit: &limit, Spent: 200, ProjectedTotal: 360, Status: model.Exceeded},
			{CategoryName: "Coffee", ProjectedTotal: 45},
		},
		BudgetSummary: model.BudgetSummary{Exceeded: 1, TotalProjectedOverrun: 60, HasBudgetData: true},
	}
}

// loadedApp returns an app that has received its first forecast and a
// window size.
func loadedApp(t *testing.T, src *fakeSource) App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a := NewApp(src, Options{Config: config.DefaultConfig(), Logger: logger})

	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	m, _ = m.Update(forecastLoadedMsg{full: src.full, err: src.err, elapsed: time.Millisecond})
	return m.(App)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t, &fakeSource{full: testForecast()})

	steps := []struct {
		key  string
		want int
	}{
		{"b", 3},
		{"right", 4},
		{"right", 0},
		{"left", 4},
		{"2", 1},
		{"p", 2},
		{"z", 2},
	}
	var m tea.Model = a
	for _, s := range steps {
		m, _ = m.Update(key(s.key))
		if got := m.(App).activeTab; got != s.want {
			t.Fatalf("after %q activeTab = %d, want %d", s.key, got, s.want)
		}
	}
}

func TestRefreshInvalidatesOnce(t *testing.T) {
	src := &fakeSource{full: testForecast()}
	a := loadedApp(t, src)

	m, cmd := a.Update(key("r"))
	if cmd == nil {
		t.Fatal("refresh should return a load command")
	}
	if src.invalidated != 1 || !m.(App).refreshing {
		t.Fatalf("invalidated=%d refreshing=%v", src.invalidated, m.(App).refreshing)
	}

	// A second press while the reload is in flight is ignored.
	m, _ = m.Update(key("r"))
	if src.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", src.invalidated)
	}

	m, _ = m.Update(forecastLoadedMsg{full: src.full})
	if m.(App).refreshing {
		t.Error("refreshing should clear when the forecast arrives")
	}
}

func TestViewRendersEachTab(t *testing.T) {
	a := loadedApp(t, &fakeSource{full: testForecast()})

	wants := []string{
		"Expected Daily Net",
		"Daily Forecast (5 days)",
		"Patterns (1, 0 tail-only)",
		"Budgets · July 2024",
		"Running Balance",
	}
	for i, want := range wants {
		a.activeTab = i
		view := a.View()
		if !strings.Contains(view, want) {
			t.Errorf("tab %d view is missing %q", i, want)
		}
		if got := strings.Count(view, "\n") + 1; got != a.height {
			t.Errorf("tab %d view has %d lines, want %d", i, got, a.height)
		}
	}
}

func TestViewWithoutTransactions(t *testing.T) {
	a := loadedApp(t, &fakeSource{err: forecast.ErrNoTransactions})
	if view := a.View(); !strings.Contains(view, "cashcast import") {
		t.Error("empty-history view should point at the import command")
	}

	a = loadedApp(t, &fakeSource{err: errors.New("database is locked")})
	if view := a.View(); !strings.Contains(view, "database is locked") {
		t.Error("failure view should show the error")
	}
}

func TestSetupFormShownAfterFirstLoad(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := &fakeSource{full: testForecast()}
	a := NewApp(src, Options{Config: config.DefaultConfig(), NeedSetup: true, Logger: logger})

	m, _ := a.Update(forecastLoadedMsg{full: src.full})
	app := m.(App)
	if app.setupForm == nil {
		t.Fatal("setup form should open after the first load")
	}
	if app.txnCount != 240 {
		t.Errorf("txnCount = %d, want 240", app.txnCount)
	}

	// Tab keys go to the form, not the dashboard.
	m, _ = app.Update(key("b"))
	if m.(App).activeTab != 0 {
		t.Error("keys should be captured by the setup form")
	}
}

func TestScrollLinesClampsToLastPage(t *testing.T) {
	s := "a\nb\nc\nd\ne"
	if got := scrollLines(s, 1, 3); got != "b\nc\nd\ne" {
		t.Errorf("scroll 1 = %q", got)
	}
	if got := scrollLines(s, 10, 3); got != "c\nd\ne" {
		t.Errorf("scroll past end = %q, want last page", got)
	}
	if got := scrollLines(s, 2, 10); got != s {
		t.Errorf("short content should not scroll, got %q", got)
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := SetupValuesFrom(cfg)
	v.Theme = "tokyo-night"
	v.Currency = " € "
	v.HistoryMonths = 0
	v.MonteCarloRuns = 200
	v.DBPath = "/tmp/cash.db"
	v.Apply(&cfg)

	if cfg.Appearance.Theme != "tokyo-night" || cfg.Appearance.Currency != "€" {
		t.Errorf("appearance = %+v", cfg.Appearance)
	}
	if cfg.General.HistoryMonths != 0 || cfg.General.MonteCarloRuns != 200 {
		t.Errorf("general = %+v", cfg.General)
	}
	if cfg.Storage.Path != "/tmp/cash.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}

	pg := config.DefaultConfig()
	pg.Storage.Driver = "postgres"
	v.Apply(&pg)
	if pg.Storage.Path != "" {
		t.Error("db path should not apply to postgres")
	}
}

func TestValidateCurrency(t *testing.T) {
	if validateCurrency("  ") == nil {
		t.Error("blank currency should be rejected")
	}
	if validateCurrency("CHF") != nil {
		t.Error("CHF should be accepted")
	}
	if validateCurrency("DOLLARS") == nil {
		t.Error("long currency should be rejected")
	}
}
