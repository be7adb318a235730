package forecast

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

func TestGenerateDailyForecast_Rent(t *testing.T) {
	f := newTestForecaster(newMemory(rentHistory()...), "2025-07-01")

	res, err := f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(31)})
	require.NoError(t, err)
	require.Len(t, res.Days, 31)
	assert.True(t, res.StartDate.Equal(date("2025-07-01")))
	assert.True(t, res.EndDate.Equal(date("2025-07-31")))
	assert.NotEmpty(t, res.ID)

	var chosen []model.DailyForecast
	for _, d := range res.Days {
		if d.ExpectedExpenses > 0 {
			chosen = append(chosen, d)
		}
	}
	require.Len(t, chosen, 1)
	assert.True(t, chosen[0].Date.Equal(date("2025-07-05")))
	assert.InDelta(t, 1200, chosen[0].ExpectedExpenses, 1e-9)
	require.Len(t, chosen[0].TopPredictions, 1)
	assert.True(t, chosen[0].TopPredictions[0].IsChosenOccurrence)

	assert.InDelta(t, 1200, res.Totals.Expenses, 1e-9)
	assert.InDelta(t, -1200, res.Totals.Net, 1e-9)
	assert.Equal(t, 50, res.MonteCarlo.NumSimulations)
	assert.Contains(t, res.Scenarios, ScenarioBase)
	assert.Contains(t, res.Scenarios, ScenarioP90)
	assert.Equal(t, 6, res.AnalysisInfo.TransactionsAnalyzed)
	assert.Equal(t, 1, res.AnalysisInfo.PatternsFound)
	assert.False(t, res.AnalysisInfo.UsedFullHistoryFallback)
	require.NotNil(t, res.AnalysisInfo.HistorySince)
	assert.True(t, res.AnalysisInfo.HistorySince.Equal(date("2024-07-01")))
}

func TestGenerateDailyForecast_Windows(t *testing.T) {
	f := newTestForecaster(newMemory(rentHistory()...), "2025-07-01")

	res, err := f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(0), ForecastMonths: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Days)
	assert.True(t, res.EndDate.Equal(res.StartDate.AddDate(0, 0, -1)))

	res, err = f.GenerateDailyForecast(ctx(), Options{IncludeToday: Ptr(false), ForecastMonths: 2})
	require.NoError(t, err)
	assert.True(t, res.StartDate.Equal(date("2025-07-02")))
	assert.True(t, res.EndDate.Equal(date("2025-08-31")))
	assert.Len(t, res.Days, 61)

	res, err = f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(-4)})
	require.NoError(t, err)
	assert.True(t, res.EndDate.Equal(date("2025-07-31")), "negative day counts fall back to months")
}

func TestGenerateDailyForecast_ZeroRuns(t *testing.T) {
	f := newTestForecaster(newMemory(rentHistory()...), "2025-07-01")

	res, err := f.GenerateDailyForecast(ctx(), Options{MonteCarloRuns: Ptr(0)})
	require.NoError(t, err)
	assert.Empty(t, res.MonteCarlo.AllScenarios)
	assert.Nil(t, res.MonteCarlo.Worst)
	assert.Len(t, res.Scenarios, 1)
	assert.Contains(t, res.Scenarios, ScenarioBase)
}

func TestGenerateDailyForecast_NoTransactions(t *testing.T) {
	f := newTestForecaster(newMemory(), "2025-07-01")
	_, err := f.GenerateDailyForecast(ctx(), Options{})
	assert.True(t, errors.Is(err, ErrNoTransactions))
}

func TestGenerateDailyForecast_FallsBackToFullHistory(t *testing.T) {
	repo := &countingRepo{Memory: newMemory(rentHistory()...)}
	f := newTestForecaster(repo, "2026-09-01")

	res, err := f.GenerateDailyForecast(ctx(), Options{HistoryMonths: Ptr(3)})
	require.NoError(t, err)
	assert.True(t, res.AnalysisInfo.UsedFullHistoryFallback)
	assert.Nil(t, res.AnalysisInfo.HistorySince)
	assert.Equal(t, 6, res.AnalysisInfo.TransactionsAnalyzed)
	assert.Equal(t, 2, repo.loads)
}

func TestGenerateDailyForecast_Cache(t *testing.T) {
	now := date("2025-07-01").Add(9 * time.Hour)
	repo := &countingRepo{Memory: newMemory(rentHistory()...)}
	f := New(repo, Config{
		Tuning:         config.DefaultTuning(),
		HistoryMonths:  12,
		IncludeToday:   true,
		MonteCarloRuns: 10,
		Seed:           5,
		CacheTTL:       time.Minute,
		Now:            func() time.Time { return now },
	})
	opts := Options{ForecastDays: Ptr(10)}

	first, err := f.GenerateDailyForecast(ctx(), opts)
	require.NoError(t, err)
	second, err := f.GenerateDailyForecast(ctx(), opts)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.loads)

	other, err := f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(11)})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, repo.loads)

	bypass, err := f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(10), NoCache: true})
	require.NoError(t, err)
	assert.NotSame(t, first, bypass)

	zero := time.Duration(0)
	bypass, err = f.GenerateDailyForecast(ctx(), Options{ForecastDays: Ptr(10), CacheDuration: &zero})
	require.NoError(t, err)
	assert.NotSame(t, first, bypass)
	assert.Equal(t, 4, repo.loads)

	cached, err := f.GenerateDailyForecast(ctx(), opts)
	require.NoError(t, err)
	assert.Same(t, first, cached, "bypassed requests do not replace the cached entry")

	now = now.Add(2 * time.Minute)
	expired, err := f.GenerateDailyForecast(ctx(), opts)
	require.NoError(t, err)
	assert.NotSame(t, first, expired)

	f.Invalidate()
	fresh, err := f.GenerateDailyForecast(ctx(), opts)
	require.NoError(t, err)
	assert.NotSame(t, expired, fresh)
	assert.Equal(t, 6, repo.loads)
}

func TestGetForecast_CachesFullResult(t *testing.T) {
	mem := newMemory(rentHistory()...)
	mem.AddCategory(model.Category{Name: "Housing", Type: model.Expense, Icon: "home", Color: "#aa0000"})
	repo := &countingRepo{Memory: mem}
	f := newTestForecaster(repo, "2025-07-01")

	a, err := f.GetForecast(ctx(), Options{ForecastDays: Ptr(31)})
	require.NoError(t, err)
	b, err := f.GetForecast(ctx(), Options{ForecastDays: Ptr(31)})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, repo.loads)

	housing, ok := a.ForecastByCategory["Housing"]
	require.True(t, ok)
	assert.Equal(t, "home", housing.Icon)
	assert.Equal(t, 1, housing.PatternCount)
	assert.InDelta(t, 1200, housing.Expected, 1e-9)
	require.NotNil(t, housing.NextLikelyDay)
	assert.True(t, housing.NextLikelyDay.Equal(date("2025-07-05")))
}

type failingCategories struct {
	Repository
}

func (failingCategories) Categories(context.Context) ([]model.Category, error) {
	return nil, errors.New("categories unavailable")
}

func TestGetForecast_CategoryFailurePropagates(t *testing.T) {
	f := newTestForecaster(failingCategories{Repository: newMemory(rentHistory()...)}, "2025-07-01")
	_, err := f.GetForecast(ctx(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categories unavailable")
}

func TestParseOptions(t *testing.T) {
	o := ParseOptions(url.Values{
		"includeToday":    {"false"},
		"forecastDays":    {"14"},
		"forecastMonths":  {"2"},
		"historyMonths":   {"6"},
		"monteCarloRuns":  {"250"},
		"seed":            {"77"},
		"noCache":         {"1"},
		"cacheDurationMs": {"1500"},
	})
	require.NotNil(t, o.IncludeToday)
	assert.False(t, *o.IncludeToday)
	require.NotNil(t, o.ForecastDays)
	assert.Equal(t, 14, *o.ForecastDays)
	assert.Equal(t, 2, o.ForecastMonths)
	assert.Equal(t, 6, *o.HistoryMonths)
	assert.Equal(t, 250, *o.MonteCarloRuns)
	assert.Equal(t, int64(77), o.Seed)
	assert.True(t, o.NoCache)
	assert.Equal(t, 1500*time.Millisecond, *o.CacheDuration)

	o = ParseOptions(url.Values{
		"includeToday":   {"maybe"},
		"forecastDays":   {"-3"},
		"monteCarloRuns": {"lots"},
	})
	assert.Nil(t, o.IncludeToday)
	assert.Nil(t, o.ForecastDays)
	assert.Nil(t, o.MonteCarloRuns)
	assert.False(t, o.NoCache)
}

func TestResolve_CapsRuns(t *testing.T) {
	f := newTestForecaster(newMemory(), "2025-07-01")
	s := f.resolve(Options{MonteCarloRuns: Ptr(1_000_000)})
	assert.Equal(t, maxMonteCarloRuns, s.runs)

	s = f.resolve(Options{NoCache: true})
	assert.False(t, s.useCache)
	s = f.resolve(Options{})
	assert.True(t, s.useCache)
	assert.Equal(t, time.Minute, s.ttl)
}

func TestNew_ZeroTuningUsesStockConstants(t *testing.T) {
	f := New(newMemory(rentHistory()...), Config{Now: fixedClock("2025-07-01")})
	assert.Equal(t, config.DefaultTuning(), f.Tuning())

	// Spacing set to zero on purpose survives.
	custom := config.DefaultTuning()
	custom.MinSpacingMonthlyExpense = 0
	f = New(newMemory(), Config{Tuning: custom, Now: fixedClock("2025-07-01")})
	assert.Zero(t, f.Tuning().MinSpacingMonthlyExpense)
}

func TestResolve_ClampsWindow(t *testing.T) {
	f := newTestForecaster(newMemory(), "2025-07-01")

	s := f.resolve(ParseOptions(url.Values{"forecastDays": {"2000000000"}}))
	assert.Equal(t, maxForecastDays, s.forecastDays)
	start, end := s.window()
	assert.True(t, end.Equal(start.AddDate(0, 0, maxForecastDays-1)))

	s = f.resolve(ParseOptions(url.Values{"forecastMonths": {"99999"}}))
	assert.Equal(t, maxForecastMonths, s.forecastMonths)
	_, end = s.window()
	assert.True(t, end.Equal(date("2027-06-30")))
}

func TestGenerateDailyForecast_OversizedRequestIsBounded(t *testing.T) {
	f := newTestForecaster(newMemory(rentHistory()...), "2025-07-01")

	res, err := f.GenerateDailyForecast(ctx(), ParseOptions(url.Values{
		"forecastDays":   {"300000"},
		"monteCarloRuns": {"2000"},
	}))
	require.NoError(t, err)
	assert.Len(t, res.Days, maxForecastDays)
	assert.Equal(t, 2000, res.MonteCarlo.NumSimulations)
	require.NotNil(t, res.MonteCarlo.Median)
	assert.Len(t, res.MonteCarlo.Median.Days, maxForecastDays)
}
