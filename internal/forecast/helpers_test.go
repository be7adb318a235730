package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/store"
)

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(id, name string, d time.Time, amount float64, ct model.CategoryType, category string) model.Transaction {
	t := model.Transaction{
		ID:           id,
		Vendor:       "bank",
		Name:         name,
		Date:         d,
		Amount:       amount,
		CategoryType: ct,
		CategoryName: category,
	}
	model.EnrichTransaction(&t)
	return t
}

// monthlySeries returns one transaction per month on day (clamped to the
// month's length), starting at from's month.
func monthlySeries(name string, amount float64, ct model.CategoryType, category string, day int, from time.Time, months int) []model.Transaction {
	var out []model.Transaction
	for i := 0; i < months; i++ {
		m := model.MonthStart(from).AddDate(0, i, 0)
		d := day
		if n := model.DaysIn(m); d > n {
			d = n
		}
		out = append(out, txn(fmt.Sprintf("%s-%d", name, i), name, m.AddDate(0, 0, d-1), amount, ct, category))
	}
	return out
}

// dailySeries returns one transaction per day in [from, to).
func dailySeries(name string, amount float64, category string, from, to time.Time) []model.Transaction {
	var out []model.Transaction
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, txn(fmt.Sprintf("%s-%s", name, d.Format(model.DateLayout)), name, d, amount, model.Expense, category))
	}
	return out
}

func fixedClock(s string) func() time.Time {
	t := date(s).Add(10 * time.Hour)
	return func() time.Time { return t }
}

func newTestForecaster(repo Repository, today string) *Forecaster {
	return New(repo, Config{
		Tuning:         config.DefaultTuning(),
		HistoryMonths:  12,
		ForecastMonths: 1,
		IncludeToday:   true,
		MonteCarloRuns: 50,
		Seed:           42,
		CacheTTL:       time.Minute,
		Now:            fixedClock(today),
	})
}

func rentHistory() []model.Transaction {
	return monthlySeries("Rent", -1200, model.Expense, "Housing", 5, date("2025-01-01"), 6)
}

// failingBudgets wraps a repository and fails budget loading.
type failingBudgets struct {
	Repository
}

func (failingBudgets) ActiveBudgets(context.Context, time.Time) ([]model.BudgetSpend, error) {
	return nil, errors.New("budgets table unavailable")
}

// countingRepo counts primary transaction loads.
type countingRepo struct {
	*store.Memory
	loads int
}

func (c *countingRepo) Transactions(ctx context.Context, since *time.Time) ([]model.Transaction, error) {
	c.loads++
	return c.Memory.Transactions(ctx, since)
}

func newMemory(txns ...model.Transaction) *store.Memory {
	m := store.NewMemory()
	m.AddTransactions(txns...)
	return m
}

func ctx() context.Context {
	return context.Background()
}
