// Package pipeline orchestrates importing bank exports and aggregating
// realized cash flow.
package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// AggregateMonths computes realized cash flow per calendar month, most recent
// first. Months between the first and last transaction with no activity are
// included as zeros.
func AggregateMonths(txns []model.Transaction) []model.MonthlyStats {
	monthMap := make(map[string]*model.MonthlyStats)
	var first, last time.Time

	for _, t := range txns {
		key := t.Date.Format(model.MonthLayout)
		ms, ok := monthMap[key]
		if !ok {
			ms = &model.MonthlyStats{Month: key}
			monthMap[key] = ms
		}
		ms.Transactions++
		switch t.CategoryType {
		case model.Income:
			ms.Income += t.Amount
		case model.Expense:
			ms.Expenses -= t.Amount
		case model.Investment:
			ms.Investments -= t.Amount
		}
		ms.Net += t.Amount

		m := model.MonthStart(t.Date)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}

	// Fill in every month in the range so charts show gaps as zeros
	if !first.IsZero() {
		for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
			key := m.Format(model.MonthLayout)
			if _, ok := monthMap[key]; !ok {
				monthMap[key] = &model.MonthlyStats{Month: key}
			}
		}
	}

	months := make([]model.MonthlyStats, 0, len(monthMap))
	for _, ms := range monthMap {
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month > months[j].Month
	})
	return months
}

// AggregateCategories computes per-category totals for one month, or across
// all transactions when monthKey is empty. Totals are absolute amounts; the
// share is relative to categories of the same type. Sorted by total descending.
func AggregateCategories(txns []model.Transaction, monthKey string) []model.CategoryStats {
	type key struct {
		name string
		ct   model.CategoryType
	}
	catMap := make(map[key]*model.CategoryStats)
	typeTotals := make(map[model.CategoryType]float64)

	for _, t := range txns {
		if monthKey != "" && t.Date.Format(model.MonthLayout) != monthKey {
			continue
		}
		k := key{t.CategoryName, t.CategoryType}
		cs, ok := catMap[k]
		if !ok {
			cs = &model.CategoryStats{CategoryName: t.CategoryName, CategoryType: t.CategoryType}
			catMap[k] = cs
		}
		cs.Total += math.Abs(t.Amount)
		cs.Count++
		typeTotals[t.CategoryType] += math.Abs(t.Amount)
	}

	cats := make([]model.CategoryStats, 0, len(catMap))
	for _, cs := range catMap {
		if total := typeTotals[cs.CategoryType]; total > 0 {
			cs.SharePercent = cs.Total / total * 100
		}
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Total != cats[j].Total {
			return cats[i].Total > cats[j].Total
		}
		return cats[i].CategoryName < cats[j].CategoryName
	})
	return cats
}

// FilterByTime returns transactions dated within [since, until). Zero bounds
// are open.
func FilterByTime(txns []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txns
	}

	var result []model.Transaction
	for _, t := range txns {
		if !since.IsZero() && t.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !t.Date.Before(until) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// FilterByCategory returns transactions whose category or parent category
// contains the given substring.
func FilterByCategory(txns []model.Transaction, category string) []model.Transaction {
	if category == "" {
		return txns
	}
	var result []model.Transaction
	for _, t := range txns {
		if containsIgnoreCase(t.CategoryName, category) || containsIgnoreCase(t.ParentCategoryName, category) {
			result = append(result, t)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ComputeBudgetProjection extrapolates month-to-date expense spend linearly
// to month end and compares it against an optional ceiling.
func ComputeBudgetProjection(txns []model.Transaction, limit *float64, today time.Time) model.BudgetStats {
	today = model.DateOf(today)
	monthKey := today.Format(model.MonthLayout)

	stats := model.BudgetStats{
		MonthlyLimit:  limit,
		DaysElapsed:   today.Day(),
		DaysRemaining: model.DaysIn(today) - today.Day(),
	}
	for _, t := range txns {
		if t.CategoryType != model.Expense || t.Date.After(today) || t.Date.Format(model.MonthLayout) != monthKey {
			continue
		}
		stats.CurrentSpend -= t.Amount
	}

	stats.DailyBurnRate = stats.CurrentSpend / float64(stats.DaysElapsed)
	stats.ProjectedMonthly = stats.CurrentSpend + stats.DailyBurnRate*float64(stats.DaysRemaining)
	if limit != nil && *limit > 0 {
		stats.BudgetUsedPercent = stats.CurrentSpend / *limit * 100
	}
	return stats
}
