package forecast

import (
	"math"
	"time"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

// DayProbability is the probability that the pattern with signature sig
// occurs on date. Rules apply in order: recency, low-frequency spacing and
// cluster-outlier suppression are hard zeros; otherwise a base probability
// is scaled by the current-month multiplier, capped, and floored for
// tail-only patterns.
func (a *Analysis) DayProbability(sig string, date time.Time, adj Adjustments) float64 {
	p, ok := a.Patterns[sig]
	if !ok {
		return 0
	}
	return dayProbability(p, a.lookups[sig], model.DateOf(date), adj, a.tuning)
}

func dayProbability(p *model.Pattern, lk *lookup, date time.Time, adj Adjustments, t config.Tuning) float64 {
	monthLen := model.DaysIn(date)
	day := date.Day()
	current, inMonth := adj.For(p.Signature, date)

	if !p.LastOccurrence.IsZero() {
		elapsed := model.DaysBetween(p.LastOccurrence, date)
		if elapsed >= 0 {
			if elapsed < minSpacingDays(p, t) {
				return 0
			}
			if isStale(p, elapsed, t) {
				return 0
			}
			if p.AvgOccurrencesPerMonth < 1 {
				required := t.LowFrequencySpacingFactor * daysPerMonth / p.AvgOccurrencesPerMonth
				if float64(elapsed) < required {
					return 0
				}
			}
			if p.PatternType == model.Monthly && lk.isOutlierDay(monthLen, day) &&
				p.InCluster(p.LastOccurrence.Day()) && elapsed <= t.ClusterCycleDays {
				return 0
			}
		}
	}
	if p.PatternType == model.Monthly && inMonth && current.ClusterHit && lk.isOutlierDay(monthLen, day) {
		return 0
	}

	prob := baseProbability(p, lk, date, monthLen, day)

	if inMonth {
		prob *= current.Multiplier
	}

	ceiling := 1.0
	if p.CategoryType == model.Expense {
		ceiling = t.ExpenseProbabilityCeiling
	}
	prob = math.Min(prob, ceiling)

	if p.TailOnly && prob <= 0 {
		prob = t.TailProbabilityFloor
	}
	if math.IsNaN(prob) || prob < 0 {
		return 0
	}
	return math.Min(prob, 1)
}

// baseProbability combines the weekday share, day-of-month share and rate.
// Shares are relative to the pattern's own occurrences, so a uniform weekday
// share of 1/7 contributes a neutral weight of 1.
func baseProbability(p *model.Pattern, lk *lookup, date time.Time, monthLen, day int) float64 {
	rate := p.AvgOccurrencesPerMonth
	perDay := rate / daysPerMonth
	wdWeight := 7 * lk.weekday[date.Weekday()]
	dom := lk.domShare(monthLen, day)

	if p.TailOnly {
		return perDay
	}
	switch p.PatternType {
	case model.Daily:
		return perDay * wdWeight
	case model.Weekly:
		return perDay * (0.85*wdWeight + 0.15*float64(monthLen)*dom)
	case model.Monthly:
		return dom * rate * (0.8 + 0.2*wdWeight)
	case model.Sporadic:
		return perDay * (0.5 + 0.5*wdWeight)
	}
	return 0
}

// minSpacingDays is the shortest plausible gap between two occurrences.
// Monthly income and expense intentionally use different thresholds.
func minSpacingDays(p *model.Pattern, t config.Tuning) int {
	switch p.PatternType {
	case model.Daily:
		return t.MinSpacingDaily
	case model.Weekly:
		return t.MinSpacingWeekly
	case model.Monthly:
		if p.CategoryType == model.Income {
			return t.MinSpacingMonthlyIncome
		}
		return t.MinSpacingMonthlyExpense
	case model.Sporadic:
		return t.MinSpacingSporadic
	}
	return 0
}

// isStale reports whether a pattern has been silent long enough to count as
// ended, measured in multiples of its own mean interval.
func isStale(p *model.Pattern, elapsed int, t config.Tuning) bool {
	if p.Occurrences < 2 || p.FirstOccurrence.IsZero() {
		return false
	}
	span := model.DaysBetween(p.FirstOccurrence, p.LastOccurrence)
	if span <= 0 {
		return false
	}
	interval := float64(span) / float64(p.Occurrences-1)
	limit := math.Max(t.StaleAfterIntervals*interval, float64(t.StaleMinDays))
	return float64(elapsed) > limit
}
