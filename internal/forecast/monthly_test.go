package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

func gymPrediction(prob float64) model.Prediction {
	return model.Prediction{
		Signature:      "expense|gym",
		Name:           "Gym",
		CategoryName:   "Health",
		CategoryType:   model.Expense,
		PatternType:    model.Monthly,
		Probability:    prob,
		ExpectedAmount: prob * 100,
		WeightedAmount: prob * 100,
		AvgAmount:      100,
		Direction:      -1,
	}
}

func gymDays() []model.DailyForecast {
	mk := func(d string, prob float64) model.DailyForecast {
		day := model.DailyForecast{Date: date(d), Predictions: []model.Prediction{gymPrediction(prob)}}
		finalizeDay(&day, 5)
		return day
	}
	return []model.DailyForecast{
		mk("2025-07-03", 0.3),
		mk("2025-07-05", 0.4),
		mk("2025-08-04", 0.2),
	}
}

var gymPatterns = map[string]*model.Pattern{
	"expense|gym": {Signature: "expense|gym", PatternType: model.Monthly, CategoryType: model.Expense, AvgAmount: 100},
}

func TestResolveMonthlyOccurrences(t *testing.T) {
	in := gymDays()
	out := ResolveMonthlyOccurrences(in, gymPatterns, Adjustments{}, config.DefaultTuning())
	require.Len(t, out, 3)

	assert.Zero(t, out[0].Predictions[0].WeightedAmount)
	assert.Zero(t, out[0].ExpectedExpenses)

	chosen := out[1].Predictions[0]
	assert.True(t, chosen.IsChosenOccurrence)
	assert.Equal(t, 1.0, chosen.Probability)
	assert.InDelta(t, 100, chosen.WeightedAmount, 1e-9)
	assert.InDelta(t, 100, out[1].ExpectedExpenses, 1e-9)
	assert.InDelta(t, -100, out[1].NetCashFlow, 1e-9)
	require.Len(t, out[1].TopPredictions, 1)

	// August's candidates carry too little mass to be promoted.
	aug := out[2].Predictions[0]
	assert.False(t, aug.IsChosenOccurrence)
	assert.InDelta(t, 0.2, aug.Probability, 1e-9)
	assert.InDelta(t, 20, aug.WeightedAmount, 1e-9)

	assert.InDelta(t, 0.3, in[0].Predictions[0].Probability, 1e-9, "input is not modified")
	assert.InDelta(t, 0.4, in[1].Predictions[0].Probability, 1e-9, "input is not modified")
}

func TestResolveMonthlyOccurrences_ObservedMonthIsNotPromoted(t *testing.T) {
	adj := Adjustments{
		Month:       "2025-07",
		BySignature: map[string]model.Adjustment{"expense|gym": {Multiplier: 0.2, ObservedThisMonth: 1}},
	}
	out := ResolveMonthlyOccurrences(gymDays(), gymPatterns, adj, config.DefaultTuning())

	assert.Zero(t, out[0].Predictions[0].WeightedAmount)
	assert.False(t, out[1].Predictions[0].IsChosenOccurrence)
	assert.InDelta(t, 40, out[1].Predictions[0].WeightedAmount, 1e-9)
}

func TestResolveMonthlyOccurrences_IgnoresOtherPatternTypes(t *testing.T) {
	days := gymDays()
	patterns := map[string]*model.Pattern{
		"expense|gym": {Signature: "expense|gym", PatternType: model.Weekly},
	}
	out := ResolveMonthlyOccurrences(days, patterns, Adjustments{}, config.DefaultTuning())
	for i := range days {
		assert.Equal(t, days[i].Predictions[0].WeightedAmount, out[i].Predictions[0].WeightedAmount)
	}
}

func TestForecast_OneMonthlyOccurrencePerMonth(t *testing.T) {
	repo := &countingRepo{Memory: newMemory(rentHistory()...)}
	f := newTestForecaster(repo, "2025-07-01")

	res, err := f.GenerateDailyForecast(ctx(), Options{ForecastMonths: 3})
	require.NoError(t, err)
	assert.True(t, res.EndDate.Equal(date("2025-09-30")))

	perMonth := make(map[string]float64)
	hits := make(map[string]int)
	for _, d := range res.Days {
		for _, pr := range d.Predictions {
			if pr.Signature != "expense|rent" || pr.WeightedAmount <= 0 {
				continue
			}
			m := d.Date.Format(model.MonthLayout)
			perMonth[m] += pr.WeightedAmount
			hits[m]++
			assert.Equal(t, 5, d.Date.Day())
		}
	}
	for _, m := range []string{"2025-07", "2025-08", "2025-09"} {
		assert.Equal(t, 1, hits[m], m)
		assert.InDelta(t, 1200, perMonth[m], 1e-9, m)
	}
}
