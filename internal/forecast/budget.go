package forecast

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

type datedAmount struct {
	date   time.Time
	amount float64
}

// BuildBudgetOutlook projects month-end spend per expense category and
// classifies it against its budget. Budget and spend loading failures are
// logged and the outlook falls back to forecast-only rows without limits.
func (f *Forecaster) BuildBudgetOutlook(ctx context.Context, res *model.ForecastResult) ([]model.BudgetOutlookRow, model.BudgetSummary) {
	today := f.today()
	month := model.MonthStart(today)
	var summary model.BudgetSummary

	budgets, err := f.repo.ActiveBudgets(ctx, month)
	var monthTxns []model.Transaction
	if err == nil {
		monthTxns, err = f.repo.MonthTransactions(ctx, month)
	}
	if err != nil {
		f.log.WithError(err).Warn("budget outlook: loading budgets failed, continuing without limits")
		summary.Warning = err.Error()
		budgets, monthTxns = nil, nil
	}

	rows := buildOutlookRows(res, budgets, monthTxns, today, f.cfg.Tuning)
	summary.HasBudgetData = len(budgets) > 0
	for _, r := range rows {
		switch r.Status {
		case model.Exceeded:
			summary.Exceeded++
		case model.AtRisk:
			summary.AtRisk++
		case model.OnTrack:
			summary.OnTrack++
		}
		if r.Status != model.OnTrack {
			summary.TotalProjectedOverrun += r.ProjectedOverrun
		}
	}
	return rows, summary
}

func buildOutlookRows(res *model.ForecastResult, budgets []model.BudgetSpend, monthTxns []model.Transaction, today time.Time, t config.Tuning) []model.BudgetOutlookRow {
	t = t.WithDefaults()
	monthEnd := model.MonthEnd(today)

	remaining := make(map[string]float64)
	upcoming := make(map[string][]datedAmount)
	for _, d := range res.Days {
		if d.Date.Before(today) || d.Date.After(monthEnd) {
			continue
		}
		for _, pr := range d.Predictions {
			if pr.CategoryType != model.Expense || pr.WeightedAmount <= 0 {
				continue
			}
			remaining[pr.CategoryName] += pr.WeightedAmount
			upcoming[pr.CategoryName] = append(upcoming[pr.CategoryName], datedAmount{d.Date, pr.WeightedAmount})
		}
	}

	spent := make(map[string]float64)
	for _, tx := range monthTxns {
		if tx.CategoryType != model.Expense || tx.Date.After(today) {
			continue
		}
		spent[tx.CategoryName] -= tx.Amount
	}

	baseline := make(map[string]float64)
	for _, p := range res.Patterns {
		if p.CategoryType == model.Expense {
			baseline[p.CategoryName] += p.MonthlyVolume()
		}
	}
	surge := math.Max(t.UnbudgetedSurgeMin, expenseSpread(res.MonteCarlo))

	var rows []model.BudgetOutlookRow
	budgeted := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		budgeted[b.CategoryName] = true
		rows = append(rows, budgetedRow(b, remaining[b.CategoryName], upcoming[b.CategoryName], today, t))
	}
	for _, name := range sortedCategoryNames(remaining) {
		if budgeted[name] {
			continue
		}
		rows = append(rows, unbudgetedRow(name, math.Max(0, spent[name]), remaining[name], baseline[name], surge, t))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Status != rows[j].Status {
			return rows[i].Status > rows[j].Status
		}
		if rows[i].RiskScore != rows[j].RiskScore {
			return rows[i].RiskScore > rows[j].RiskScore
		}
		return rows[i].CategoryName < rows[j].CategoryName
	})
	return rows
}

func budgetedRow(b model.BudgetSpend, remaining float64, upcoming []datedAmount, today time.Time, t config.Tuning) model.BudgetOutlookRow {
	limit := b.Limit
	row := model.BudgetOutlookRow{
		CategoryName:   b.CategoryName,
		Budgeted:       true,
		Limit:          &limit,
		Spent:          b.Spent,
		ProjectedTotal: b.Spent + remaining,
	}
	row.ProjectedOverrun = math.Max(0, row.ProjectedTotal-limit)

	switch {
	case b.Spent >= limit:
		row.Status = model.Exceeded
	case row.ProjectedTotal >= t.AtRiskThreshold*limit:
		row.Status = model.AtRisk
	default:
		row.Status = model.OnTrack
	}

	switch {
	case row.Status == model.Exceeded:
		row.RiskScore = 1
	case limit > 0:
		row.RiskScore = math.Min(1, row.ProjectedTotal/limit)
	case row.ProjectedTotal > 0:
		row.RiskScore = 1
	}

	if b.Spent >= limit {
		d := today
		row.NextLikelyHitDate = &d
	} else {
		sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].date.Before(upcoming[j].date) })
		running := b.Spent
		for _, u := range upcoming {
			running += u.amount
			if running >= limit {
				d := u.date
				row.NextLikelyHitDate = &d
				break
			}
		}
	}
	return row
}

// unbudgetedRow classifies a category without a limit against its historical
// monthly volume, widened by the simulated expense spread.
func unbudgetedRow(name string, spent, remaining, baseline, surge float64, t config.Tuning) model.BudgetOutlookRow {
	row := model.BudgetOutlookRow{
		CategoryName:   name,
		Spent:          spent,
		ProjectedTotal: spent + remaining,
	}
	if baseline <= 0 {
		return row
	}

	hard := baseline * t.UnbudgetedHardMultiplier
	switch {
	case row.ProjectedTotal > hard:
		row.Status = model.Exceeded
	case remaining > 0 && row.ProjectedTotal > baseline*(1+surge):
		row.Status = model.AtRisk
	default:
		row.Status = model.OnTrack
	}
	if row.Status != model.OnTrack {
		row.ProjectedOverrun = row.ProjectedTotal - baseline
	}
	row.RiskScore = math.Min(1, row.ProjectedTotal/hard)
	return row
}
