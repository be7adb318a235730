package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"NETFLIX.COM 12345":        "netflix com",
		"  Coffee   Shop #0042 ":   "coffee shop",
		"Transfer 2025-03-01 ref9": "transfer",
		"12345":                    "12345",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeName(in), "normalizeName(%q)", in)
	}
}

func TestAnalyzePatterns_Classification(t *testing.T) {
	today := date("2025-07-01")
	var txns []model.Transaction
	txns = append(txns, rentHistory()...)
	txns = append(txns, dailySeries("Coffee", -4, "Food", date("2025-05-01"), today)...)
	txns = append(txns, monthlySeries("Salary", 5000, model.Income, "Salary", 1, date("2025-01-01"), 6)...)
	for i, d := range []string{"2025-05-03", "2025-05-10", "2025-05-17", "2025-05-24", "2025-05-31", "2025-06-07", "2025-06-14", "2025-06-21", "2025-06-28"} {
		txns = append(txns, txn("g"+string(rune('a'+i)), "Grocer", date(d), -80, model.Expense, "Food"))
	}

	a := AnalyzePatterns(txns, today, config.DefaultTuning())
	require.Len(t, a.Patterns, 4)

	byName := make(map[string]*model.Pattern)
	for _, p := range a.Patterns {
		byName[p.TransactionName] = p
	}

	assert.Equal(t, model.Monthly, byName["Rent"].PatternType)
	assert.Equal(t, model.Daily, byName["Coffee"].PatternType)
	assert.Equal(t, model.Weekly, byName["Grocer"].PatternType)
	assert.Equal(t, model.Monthly, byName["Salary"].PatternType)

	rent := byName["Rent"]
	assert.InDelta(t, 1200, rent.AvgAmount, 1e-9)
	assert.Equal(t, -1, rent.Direction)
	assert.Equal(t, []int{5}, rent.DominantDayCluster)
	require.NotEmpty(t, rent.MostLikelyDaysOfMonth)
	assert.Equal(t, 5, rent.MostLikelyDaysOfMonth[0].Day)
	assert.InDelta(t, 1, rent.DayOfMonthProb[5], 1e-9)
	assert.True(t, rent.LastOccurrence.Equal(date("2025-06-05")))
	assert.Equal(t, 6, rent.MonthsActive)
	assert.Equal(t, 1, byName["Salary"].Direction)

	var weekdayTotal float64
	for _, s := range byName["Grocer"].DayOfWeekProb {
		weekdayTotal += s
	}
	assert.InDelta(t, 1, weekdayTotal, 1e-9)
	assert.InDelta(t, 1, byName["Grocer"].DayOfWeekProb[6], 1e-9)

	for _, p := range a.Patterns {
		assert.Greater(t, p.AvgOccurrencesPerMonth, 0.0, p.Signature)
	}
}

func TestAnalyzePatterns_MergesNearDuplicateNames(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "Spotify Premium", date("2025-04-10"), -10, model.Expense, "Subscriptions"),
		txn("2", "Spotify Premium", date("2025-05-10"), -10, model.Expense, "Subscriptions"),
		txn("3", "Spotify Premum", date("2025-06-10"), -10, model.Expense, "Subscriptions"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	require.Len(t, a.Patterns, 1)

	p := a.Patterns["expense|spotify premium"]
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Occurrences)
	assert.Equal(t, "Spotify Premium", p.TransactionName)

	sig, ok := a.SignatureFor(txn("4", "SPOTIFY PREMUM 998", date("2025-07-10"), -10, model.Expense, "Subscriptions"))
	require.True(t, ok)
	assert.Equal(t, "expense|spotify premium", sig)
}

func TestAnalyzePatterns_SameNameDifferentTypeStaysSeparate(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "Broker", date("2025-05-10"), -500, model.Investment, "Stocks"),
		txn("2", "Broker", date("2025-06-10"), -500, model.Investment, "Stocks"),
		txn("3", "Broker", date("2025-06-12"), 40, model.Income, "Dividends"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	assert.Contains(t, a.Patterns, "investment|broker")
	assert.Contains(t, a.Patterns, "income|broker")
}

func TestAnalyzePatterns_Exclusions(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "One-off ETF purchase", date("2025-03-10"), -2000, model.Investment, "Investments"),
		txn("2", "Capital return fund A", date("2025-04-10"), 800, model.Income, "Investments"),
		txn("3", "Capital Return fund A", date("2025-05-10"), 800, model.Income, "Investments"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())

	assert.Empty(t, a.Patterns)
	require.Len(t, a.Skipped, 2)

	reasons := map[string]string{}
	for _, s := range a.Skipped {
		reasons[s.Signature] = s.Reason
	}
	assert.Equal(t, model.SkipCapitalReturn, reasons["income|capital return fund a"])
	assert.Equal(t, model.SkipNonRecurrentInvestment, reasons["investment|one off etf purchase"])
}

func TestAnalyzePatterns_TailOnly(t *testing.T) {
	txns := []model.Transaction{
		txn("1", "Hardware store", date("2024-09-02"), -20, model.Expense, "Home"),
		txn("2", "Hardware store", date("2025-02-17"), -340, model.Expense, "Home"),
	}
	a := AnalyzePatterns(txns, date("2025-07-01"), config.DefaultTuning())
	p := a.Patterns["expense|hardware store"]
	require.NotNil(t, p)
	assert.Equal(t, model.Sporadic, p.PatternType)
	assert.True(t, p.TailOnly)
	assert.Equal(t, 1, a.TailOnlyCount())
}

func TestDominantCluster_ToleratesDrift(t *testing.T) {
	shares := map[int]float64{1: 0.5, 3: 0.33, 20: 0.17}
	ranked := rankDays(shares)
	assert.Equal(t, []int{1, 3}, dominantCluster(shares, ranked, 3, 0.6))

	scattered := map[int]float64{1: 0.25, 10: 0.25, 20: 0.25, 28: 0.25}
	assert.Nil(t, dominantCluster(scattered, rankDays(scattered), 3, 0.6))
}

func TestBuildLookup_FoldsLongMonthsOntoLastDay(t *testing.T) {
	p := &model.Pattern{
		DayOfMonthProb: map[int]float64{30: 0.25, 31: 0.75},
		DayOfWeekProb:  map[int]float64{},
	}
	lk := buildLookup(p)
	assert.InDelta(t, 1, lk.domShare(28, 28), 1e-9)
	assert.InDelta(t, 1, lk.domShare(30, 30), 1e-9)
	assert.InDelta(t, 0.75, lk.domShare(31, 31), 1e-9)
	assert.Equal(t, 31, lk.peakDay[monthIndex(31)])
	assert.Equal(t, 28, lk.peakDay[monthIndex(28)])
}
