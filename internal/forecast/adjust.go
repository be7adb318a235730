package forecast

import (
	"math"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// Adjustments holds the current-month corrections, keyed by signature.
// They only apply to dates within Month.
type Adjustments struct {
	Month       string
	BySignature map[string]model.Adjustment
}

// For returns the adjustment for sig if date falls in the adjusted month.
func (a Adjustments) For(sig string, date time.Time) (model.Adjustment, bool) {
	if a.BySignature == nil || date.Format(model.MonthLayout) != a.Month {
		return model.Adjustment{}, false
	}
	adj, ok := a.BySignature[sig]
	return adj, ok
}

// AdjustForCurrentMonth compares this month's observed activity with each
// pattern's history and derives a probability multiplier and the expected
// remaining amount for the rest of the month.
func AdjustForCurrentMonth(a *Analysis, current []model.Transaction, today time.Time) Adjustments {
	t := a.tuning
	today = model.DateOf(today)
	monthKey := today.Format(model.MonthLayout)
	monthLen := model.DaysIn(today)
	todayDom := today.Day()
	daysLeft := float64(monthLen-todayDom+1) / float64(monthLen)

	observed := make(map[string]int)
	clusterHit := make(map[string]bool)
	for _, tx := range current {
		d := model.DateOf(tx.Date)
		if d.Format(model.MonthLayout) != monthKey || d.After(today) {
			continue
		}
		sig, ok := a.SignatureFor(tx)
		if !ok {
			continue
		}
		observed[sig]++
		if a.Patterns[sig].InCluster(d.Day()) {
			clusterHit[sig] = true
		}
	}

	out := Adjustments{Month: monthKey, BySignature: make(map[string]model.Adjustment, len(a.order))}
	for _, sig := range a.order {
		p := a.Patterns[sig]
		lk := a.lookups[sig]
		n := observed[sig]
		adj := model.Adjustment{Multiplier: 1, ObservedThisMonth: n, ClusterHit: clusterHit[sig]}
		rate := p.AvgOccurrencesPerMonth

		switch p.PatternType {
		case model.Monthly, model.Sporadic:
			switch {
			case n > 0:
				adj.Multiplier = t.ConfirmedOccurrenceDamping
			case p.PatternType == model.Monthly:
				latest := lk.latestExpectedDay(monthLen)
				passed := latest > 0 && latest+t.MissedDayGraceDays < todayDom
				if passed && (todayDom >= t.LateMonthDay || lk.hasCluster) {
					adj.Multiplier = 0
				}
			}
			if p.PatternType == model.Monthly {
				adj.ExpectedRemaining = math.Max(0, math.Min(rate, 1)-float64(n)) * p.AvgAmount
				if adj.Multiplier == 0 {
					adj.ExpectedRemaining = 0
				}
			} else {
				adj.ExpectedRemaining = rate * daysLeft * p.AvgAmount * adj.Multiplier
			}

		case model.Weekly, model.Daily:
			expectedSoFar := rate * float64(todayDom) / float64(monthLen)
			if expectedSoFar >= t.MinExpectedForRatio {
				ratio := float64(n) / expectedSoFar
				switch {
				case ratio < 1:
					adj.Multiplier = math.Min(t.MaxCatchUpMultiplier, 1+(1-ratio)*t.CatchUpWeight)
				case ratio > 1:
					adj.Multiplier = math.Max(t.MinOverObservedMultiplier, 1/ratio)
				}
			}
			adj.ExpectedRemaining = rate * daysLeft * p.AvgAmount * adj.Multiplier
		}

		out.BySignature[sig] = adj
	}
	return out
}
