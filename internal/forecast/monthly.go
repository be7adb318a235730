package forecast

import (
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

type monthlyKey struct {
	sig   string
	month string
}

type predRef struct {
	day, pred int
}

type monthlyCandidates struct {
	refs    []predRef
	best    predRef
	bestAmt float64
	mass    float64
	hasBest bool
}

// ResolveMonthlyOccurrences collapses each monthly pattern to a single
// occurrence per calendar month. The day with the highest weighted amount
// becomes the chosen occurrence (probability 1, full average amount) and
// every other candidate day for that pattern and month is zeroed.
//
// A month in which the pattern was already observed, or whose candidate days
// sum to less than ChosenOccurrenceMinMass, keeps only its best day at its
// own probability instead of being promoted.
//
// The input is not modified; a new slice is returned.
func ResolveMonthlyOccurrences(days []model.DailyForecast, patterns map[string]*model.Pattern, adj Adjustments, t config.Tuning) []model.DailyForecast {
	t = t.WithDefaults()
	out := make([]model.DailyForecast, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Predictions = append([]model.Prediction(nil), d.Predictions...)
	}

	groups := make(map[monthlyKey]*monthlyCandidates)
	for di := range out {
		month := out[di].Date.Format(model.MonthLayout)
		for pi, pr := range out[di].Predictions {
			p, ok := patterns[pr.Signature]
			if !ok || p.PatternType != model.Monthly {
				continue
			}
			key := monthlyKey{sig: pr.Signature, month: month}
			g, ok := groups[key]
			if !ok {
				g = &monthlyCandidates{}
				groups[key] = g
			}
			ref := predRef{day: di, pred: pi}
			g.refs = append(g.refs, ref)
			g.mass += pr.Probability
			if !g.hasBest || pr.WeightedAmount > g.bestAmt {
				g.best, g.bestAmt, g.hasBest = ref, pr.WeightedAmount, true
			}
		}
	}

	for key, g := range groups {
		observed := false
		if key.month == adj.Month {
			observed = adj.BySignature[key.sig].ObservedThisMonth > 0
		}
		promote := !observed && g.mass >= t.ChosenOccurrenceMinMass

		for _, ref := range g.refs {
			pr := &out[ref.day].Predictions[ref.pred]
			if ref == g.best {
				if promote {
					pr.Probability = 1
					pr.ExpectedAmount = pr.AvgAmount
					pr.WeightedAmount = pr.AvgAmount
					pr.IsChosenOccurrence = true
				}
				continue
			}
			pr.Probability = 0
			pr.ExpectedAmount = 0
			pr.WeightedAmount = 0
		}
	}

	for i := range out {
		finalizeDay(&out[i], t.TopPredictions)
	}
	return out
}
