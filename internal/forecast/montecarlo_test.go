package forecast

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/model"
)

func coinFlipDays(n int) []model.DailyForecast {
	days := make([]model.DailyForecast, n)
	start := date("2025-07-01")
	for i := range days {
		days[i] = model.DailyForecast{
			Date: start.AddDate(0, 0, i),
			Predictions: []model.Prediction{{
				Signature:      "expense|lunch",
				CategoryType:   model.Expense,
				CategoryName:   "Food",
				Probability:    0.5,
				ExpectedAmount: 6,
				WeightedAmount: 6,
				AvgAmount:      12,
				StdDev:         3,
				Direction:      -1,
			}},
		}
		finalizeDay(&days[i], 5)
	}
	return days
}

func TestRunMonteCarlo_ZeroRuns(t *testing.T) {
	mc := RunMonteCarlo(coinFlipDays(3), 0, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0, mc.NumSimulations)
	assert.NotNil(t, mc.AllScenarios)
	assert.Empty(t, mc.AllScenarios)
	assert.Nil(t, mc.Worst)
	assert.Nil(t, mc.Median)
	assert.Nil(t, mc.Best)
	require.NotNil(t, mc.Base)
	assert.InDelta(t, 18, mc.Base.Totals.Expenses, 1e-9)
}

func TestRunMonteCarlo_PercentilesAreOrdered(t *testing.T) {
	mc := RunMonteCarlo(coinFlipDays(30), 200, rand.New(rand.NewSource(7)))
	require.Equal(t, 200, mc.NumSimulations)
	require.Len(t, mc.AllScenarios, 200)

	assert.True(t, sort.SliceIsSorted(mc.AllScenarios, func(i, j int) bool {
		return mc.AllScenarios[i].Net < mc.AllScenarios[j].Net
	}))
	assert.LessOrEqual(t, mc.Worst.Totals.Net, mc.Median.Totals.Net)
	assert.LessOrEqual(t, mc.Median.Totals.Net, mc.Best.Totals.Net)
	assert.Equal(t, ScenarioP10, mc.Worst.Label)
	assert.Equal(t, ScenarioP50, mc.Median.Label)
	assert.Equal(t, ScenarioP90, mc.Best.Label)
	assert.Len(t, mc.Median.Days, 30)

	last := mc.Median.Days[len(mc.Median.Days)-1]
	assert.InDelta(t, mc.Median.Totals.Net, last.Cumulative, 1e-9)
}

func TestRunMonteCarlo_SameSeedSameRuns(t *testing.T) {
	days := coinFlipDays(10)
	a := RunMonteCarlo(days, 25, rand.New(rand.NewSource(99)))
	b := RunMonteCarlo(days, 25, rand.New(rand.NewSource(99)))
	assert.Equal(t, a.AllScenarios, b.AllScenarios)
}

func TestRunMonteCarlo_PercentileRunsReplayTheirTotals(t *testing.T) {
	mc := RunMonteCarlo(coinFlipDays(20), 101, rand.New(rand.NewSource(5)))
	require.Equal(t, 101, mc.NumSimulations)

	assert.Equal(t, mc.AllScenarios[10], mc.Worst.Totals)
	assert.Equal(t, mc.AllScenarios[50], mc.Median.Totals)
	assert.Equal(t, mc.AllScenarios[90], mc.Best.Totals)
	for _, r := range []*model.ScenarioResult{mc.Worst, mc.Median, mc.Best} {
		require.Len(t, r.Days, 20)
		assert.InDelta(t, r.Totals.Net, r.Days[19].Cumulative, 1e-9)
	}
}

func TestSimulateScenario_ChosenOccurrenceAlwaysHappens(t *testing.T) {
	days := []model.DailyForecast{{
		Date: date("2025-07-05"),
		Predictions: []model.Prediction{{
			Signature:          "expense|rent",
			CategoryType:       model.Expense,
			Probability:        1,
			WeightedAmount:     1200,
			AvgAmount:          1200,
			Direction:          -1,
			IsChosenOccurrence: true,
		}},
	}}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		res := SimulateScenario(days, rng)
		assert.InDelta(t, 1200, res.Totals.Expenses, 1e-9)
		assert.InDelta(t, -1200, res.Totals.Net, 1e-9)
	}
}

func TestSampleAmount_Clamped(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		v := sampleAmount(10, 100, rng)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 310.0)
	}
	assert.Equal(t, 10.0, sampleAmount(10, 0, rng))
}

func TestExpenseSpread(t *testing.T) {
	assert.Zero(t, expenseSpread(model.MonteCarloSummary{}))

	mc := model.MonteCarloSummary{AllScenarios: []model.ScenarioTotals{
		{Expenses: 100}, {Expenses: 100}, {Expenses: 100}, {Expenses: 100}, {Expenses: 150},
	}}
	// p50 = 100, p90 = round(0.9*4) = index 4 = 150.
	assert.InDelta(t, 0.5, expenseSpread(mc), 1e-9)
}
