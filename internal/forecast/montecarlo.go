package forecast

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// Scenario labels.
const (
	ScenarioBase = "base"
	ScenarioP10  = "p10"
	ScenarioP50  = "p50"
	ScenarioP90  = "p90"
)

// RunMonteCarlo samples runs realizations of the resolved forecast. Runs are
// ordered by total net cash flow; the 10th, 50th and 90th percentiles become
// the worst, median and best envelopes. The base scenario is the
// deterministic expectation. runs <= 0 yields no sampled scenarios.
//
// Each run draws from its own source seeded from rng, so only run totals are
// kept in memory and the three percentile runs are replayed in full.
func RunMonteCarlo(days []model.DailyForecast, runs int, rng *rand.Rand) model.MonteCarloSummary {
	summary := model.MonteCarloSummary{
		Base:         BaseScenario(days),
		AllScenarios: []model.ScenarioTotals{},
	}
	if runs <= 0 {
		return summary
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	type run struct {
		seed   int64
		totals model.ScenarioTotals
	}
	results := make([]run, runs)
	sim := rand.New(rand.NewSource(1))
	for i := range results {
		seed := rng.Int63()
		sim.Seed(seed)
		results[i] = run{seed: seed, totals: simulate(days, sim, nil)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].totals.Net < results[j].totals.Net
	})

	summary.NumSimulations = runs
	summary.AllScenarios = make([]model.ScenarioTotals, runs)
	for i, r := range results {
		summary.AllScenarios[i] = r.totals
	}
	replay := func(p float64, label string) *model.ScenarioResult {
		r := results[percentileIndex(runs, p)]
		sim.Seed(r.seed)
		res := SimulateScenario(days, sim)
		res.Label = label
		return res
	}
	summary.Worst = replay(0.10, ScenarioP10)
	summary.Median = replay(0.50, ScenarioP50)
	summary.Best = replay(0.90, ScenarioP90)
	return summary
}

// SimulateScenario draws one realization. Chosen monthly occurrences always
// happen on their chosen day; every other prediction occurs with its own
// probability. Occurring amounts are sampled around the pattern average.
func SimulateScenario(days []model.DailyForecast, rng *rand.Rand) *model.ScenarioResult {
	res := &model.ScenarioResult{Days: make([]model.ScenarioDay, 0, len(days))}
	res.Totals = simulate(days, rng, &res.Days)
	return res
}

// simulate runs one realization and returns its totals. Per-day detail is
// appended to out when out is non-nil.
func simulate(days []model.DailyForecast, rng *rand.Rand, out *[]model.ScenarioDay) model.ScenarioTotals {
	var totals model.ScenarioTotals
	var cumulative float64

	for _, d := range days {
		sd := model.ScenarioDay{Date: d.Date}
		for _, pr := range d.Predictions {
			if pr.Probability <= 0 {
				continue
			}
			if !pr.IsChosenOccurrence && !willOccur(pr.Probability, rng) {
				continue
			}
			amt := sampleAmount(pr.AvgAmount, pr.StdDev, rng)
			addToDay(&sd, pr.CategoryType, pr.Direction, amt)
		}
		cumulative += sd.Net
		sd.Cumulative = cumulative
		if out != nil {
			*out = append(*out, sd)
		}
		addTotals(&totals, sd)
	}
	return totals
}

// BaseScenario is the deterministic scenario built from expected amounts.
func BaseScenario(days []model.DailyForecast) *model.ScenarioResult {
	res := &model.ScenarioResult{Label: ScenarioBase, Days: make([]model.ScenarioDay, 0, len(days))}
	var cumulative float64
	for _, d := range days {
		sd := model.ScenarioDay{
			Date:        d.Date,
			Income:      d.ExpectedIncome,
			Expenses:    d.ExpectedExpenses,
			Investments: d.ExpectedInvestments,
			Net:         d.NetCashFlow,
		}
		cumulative += sd.Net
		sd.Cumulative = cumulative
		res.Days = append(res.Days, sd)
		addTotals(&res.Totals, sd)
	}
	return res
}

func willOccur(p float64, rng *rand.Rand) bool {
	return rng.Float64() < p
}

// sampleAmount draws from a normal distribution around avg, clamped to
// [0, avg+3*std].
func sampleAmount(avg, std float64, rng *rand.Rand) float64 {
	if std <= 0 {
		return math.Max(0, avg)
	}
	v := avg + std*rng.NormFloat64()
	return math.Min(math.Max(0, v), avg+3*std)
}

func addToDay(sd *model.ScenarioDay, ct model.CategoryType, direction int, amt float64) {
	switch ct {
	case model.Income:
		sd.Income += amt
	case model.Expense:
		sd.Expenses += amt
	case model.Investment:
		sd.Investments += amt
	}
	sd.Net += float64(direction) * amt
}

func addTotals(t *model.ScenarioTotals, sd model.ScenarioDay) {
	t.Income += sd.Income
	t.Expenses += sd.Expenses
	t.Investments += sd.Investments
	t.Net += sd.Net
}

func percentileIndex(n int, p float64) int {
	return int(math.Round(p * float64(n-1)))
}

// expenseSpread is the relative gap between the 90th and 50th percentile of
// simulated expense totals.
func expenseSpread(mc model.MonteCarloSummary) float64 {
	if len(mc.AllScenarios) == 0 {
		return 0
	}
	expenses := make([]float64, len(mc.AllScenarios))
	for i, s := range mc.AllScenarios {
		expenses[i] = s.Expenses
	}
	sort.Float64s(expenses)
	at := func(p float64) float64 {
		return expenses[percentileIndex(len(expenses), p)]
	}
	p50, p90 := at(0.5), at(0.9)
	if p50 <= 0 {
		return 0
	}
	return (p90 - p50) / p50
}
