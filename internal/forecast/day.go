package forecast

import (
	"sort"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// ForecastDay evaluates every active pattern for date and returns the day's
// expected cash flow with its ranked predictions.
func ForecastDay(date time.Time, a *Analysis, adj Adjustments) model.DailyForecast {
	date = model.DateOf(date)
	day := model.DailyForecast{Date: date}

	for _, sig := range a.order {
		prob := a.DayProbability(sig, date, adj)
		if prob <= 0 {
			continue
		}
		p := a.Patterns[sig]
		amount := prob * p.AvgAmount
		day.Predictions = append(day.Predictions, model.Prediction{
			Signature:      sig,
			Name:           p.TransactionName,
			CategoryName:   p.CategoryName,
			CategoryType:   p.CategoryType,
			PatternType:    p.PatternType,
			Probability:    prob,
			ExpectedAmount: amount,
			WeightedAmount: amount,
			AvgAmount:      p.AvgAmount,
			StdDev:         p.StdDev,
			Direction:      p.Direction,
		})
	}

	finalizeDay(&day, a.tuning.TopPredictions)
	return day
}

// finalizeDay recomputes the day's totals from its predictions and ranks them.
func finalizeDay(d *model.DailyForecast, topN int) {
	d.ExpectedIncome, d.ExpectedExpenses, d.ExpectedInvestments, d.NetCashFlow = 0, 0, 0, 0
	for _, pr := range d.Predictions {
		switch pr.CategoryType {
		case model.Income:
			d.ExpectedIncome += pr.WeightedAmount
		case model.Expense:
			d.ExpectedExpenses += pr.WeightedAmount
		case model.Investment:
			d.ExpectedInvestments += pr.WeightedAmount
		}
		d.NetCashFlow += float64(pr.Direction) * pr.WeightedAmount
	}

	sort.SliceStable(d.Predictions, func(i, j int) bool {
		pi, pj := d.Predictions[i], d.Predictions[j]
		if pi.WeightedAmount != pj.WeightedAmount {
			return pi.WeightedAmount > pj.WeightedAmount
		}
		return pi.Signature < pj.Signature
	})

	d.TopPredictions = nil
	for _, pr := range d.Predictions {
		if len(d.TopPredictions) >= topN {
			break
		}
		if pr.WeightedAmount > 0 {
			d.TopPredictions = append(d.TopPredictions, pr)
		}
	}
}
