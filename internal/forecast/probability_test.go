package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

func TestDayProbability_MonthlyPeaksOnItsDay(t *testing.T) {
	a := AnalyzePatterns(rentHistory(), date("2025-07-01"), config.DefaultTuning())
	sig := "expense|rent"
	require.Contains(t, a.Patterns, sig)

	assert.InDelta(t, 0.7, a.DayProbability(sig, date("2025-07-05"), Adjustments{}), 1e-9, "expense probability is capped")
	assert.Zero(t, a.DayProbability(sig, date("2025-07-04"), Adjustments{}))
	assert.Zero(t, a.DayProbability(sig, date("2025-07-06"), Adjustments{}))
	assert.Zero(t, a.DayProbability("expense|unknown", date("2025-07-05"), Adjustments{}))
}

func TestDayProbability_ShortMonthClampsLateDays(t *testing.T) {
	txns := monthlySeries("Insurance", -90, model.Expense, "Insurance", 31, date("2024-08-01"), 6)
	a := AnalyzePatterns(txns, date("2025-02-01"), config.DefaultTuning())
	sig := "expense|insurance"
	require.Contains(t, a.Patterns, sig)
	assert.Equal(t, []int{30, 31}, a.Patterns[sig].DominantDayCluster)

	adj := AdjustForCurrentMonth(a, nil, date("2025-02-01"))
	assert.Greater(t, a.DayProbability(sig, date("2025-02-28"), adj), 0.0)
	assert.Zero(t, a.DayProbability(sig, date("2025-02-27"), adj))
}

func TestDayProbability_LowFrequencySpacing(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "Car Service", date("2024-09-10"), -300, model.Expense, "Car"),
		txn("2", "Car Service", date("2025-01-12"), -300, model.Expense, "Car"),
		txn("3", "Car Service", date("2025-06-26"), -300, model.Expense, "Car"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	sig := "expense|car service"
	p := a.Patterns[sig]
	require.NotNil(t, p)
	require.Equal(t, model.Sporadic, p.PatternType)
	require.False(t, p.TailOnly)

	assert.Zero(t, a.DayProbability(sig, date("2025-07-02"), Adjustments{}), "inside minimum spacing")
	assert.Zero(t, a.DayProbability(sig, date("2025-08-01"), Adjustments{}), "inside half the mean interval")
	assert.Greater(t, a.DayProbability(sig, date("2025-08-30"), Adjustments{}), 0.0)
}

func TestDayProbability_RecentOccurrenceSuppressesNextCycle(t *testing.T) {
	txns := monthlySeries("Rent", -1200, model.Expense, "Housing", 5, date("2025-01-01"), 5)
	txns = append(txns, txn("late", "Rent", date("2025-06-28"), -1200, model.Expense, "Housing"))
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())

	assert.Zero(t, a.DayProbability("expense|rent", date("2025-07-05"), Adjustments{}))
	assert.Greater(t, a.DayProbability("expense|rent", date("2025-08-05"), Adjustments{}), 0.0)
}

func TestDayProbability_OutlierDayAfterClusterHit(t *testing.T) {
	txns := monthlySeries("Rent", -1200, model.Expense, "Housing", 5, date("2025-01-01"), 6)
	txns = append(txns, txn("odd", "Rent", date("2025-03-28"), -1200, model.Expense, "Housing"))
	today := date("2025-06-20")
	a := AnalyzePatterns(txns, today, config.DefaultTuning())
	sig := "expense|rent"
	require.Equal(t, []int{5}, a.Patterns[sig].DominantDayCluster)

	current := []model.Transaction{txns[5]}
	adj := AdjustForCurrentMonth(a, current, today)
	assert.True(t, adj.BySignature[sig].ClusterHit)
	assert.Zero(t, a.DayProbability(sig, date("2025-06-28"), adj))
}

func TestDayProbability_TailOnlyUsesFlatRate(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "Hardware store", date("2024-09-02"), -20, model.Expense, "Home"),
		txn("2", "Hardware store", date("2025-02-17"), -340, model.Expense, "Home"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	sig := "expense|hardware store"
	p := a.Patterns[sig]
	require.True(t, p.TailOnly)

	want := p.AvgOccurrencesPerMonth / daysPerMonth
	assert.InDelta(t, want, a.DayProbability(sig, date("2025-07-02"), Adjustments{}), 1e-12)
	assert.InDelta(t, want, a.DayProbability(sig, date("2025-07-06"), Adjustments{}), 1e-12)
}

func TestDayProbability_IncomeIsNotCapped(t *testing.T) {
	txns := monthlySeries("Salary", 5000, model.Income, "Salary", 25, date("2025-01-01"), 6)
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	assert.InDelta(t, 1, a.DayProbability("income|salary", date("2025-07-25"), Adjustments{}), 1e-9)
}

func TestDayProbability_StaleSubscriptionEnds(t *testing.T) {
	txns := monthlySeries("Netflix", -15.99, model.Expense, "Subscriptions", 12, date("2024-01-01"), 12)
	a := AnalyzePatterns(txns, date("2025-09-01"), config.DefaultTuning())
	sig := "expense|netflix"
	require.Contains(t, a.Patterns, sig)

	start := date("2025-09-01")
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		assert.Zero(t, a.DayProbability(sig, d, Adjustments{}), d.Format(model.DateLayout))
	}

	// Still billing: the same history read a month after the last charge.
	a = AnalyzePatterns(txns, date("2025-01-01"), config.DefaultTuning())
	assert.Greater(t, a.DayProbability(sig, date("2025-01-12"), Adjustments{}), 0.0)
}

func TestIsStale(t *testing.T) {
	tn := config.DefaultTuning()
	p := &model.Pattern{
		Occurrences:     5,
		FirstOccurrence: date("2025-01-01"),
		LastOccurrence:  date("2025-05-01"), // 120 days, 30-day interval
	}
	assert.False(t, isStale(p, 90, tn))
	assert.True(t, isStale(p, 91, tn))

	weekly := &model.Pattern{Occurrences: 9, FirstOccurrence: date("2025-01-01"), LastOccurrence: date("2025-02-26")}
	assert.False(t, isStale(weekly, 40, tn), "short intervals still get StaleMinDays")
	assert.True(t, isStale(weekly, 46, tn))

	assert.False(t, isStale(&model.Pattern{Occurrences: 1, LastOccurrence: date("2020-01-01")}, 2000, tn))
}

func TestMinSpacingDays(t *testing.T) {
	tn := config.DefaultTuning()
	cases := []struct {
		pt   model.PatternType
		ct   model.CategoryType
		want int
	}{
		{model.Daily, model.Expense, 0},
		{model.Weekly, model.Expense, 2},
		{model.Monthly, model.Expense, 10},
		{model.Monthly, model.Income, 20},
		{model.Sporadic, model.Expense, 14},
	}
	for _, c := range cases {
		p := &model.Pattern{PatternType: c.pt, CategoryType: c.ct}
		assert.Equal(t, c.want, minSpacingDays(p, tn), "%s %s", c.pt, c.ct)
	}
}
