// Package forecast implements the cash-flow forecasting engine: pattern
// analysis, per-day probability modeling, monthly occurrence resolution,
// Monte Carlo simulation and budget outlook.
package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// ErrNoTransactions is returned when the repository holds no transactions at all.
var ErrNoTransactions = errors.New("no transactions found")

// Repository is the read-only storage the forecaster consumes.
type Repository interface {
	// Transactions returns completed, non-excluded transactions dated on or
	// after since (all history when since is nil), enriched and ordered by date.
	Transactions(ctx context.Context, since *time.Time) ([]model.Transaction, error)
	// MonthTransactions returns completed transactions within month's calendar month.
	MonthTransactions(ctx context.Context, month time.Time) ([]model.Transaction, error)
	// Categories returns all category definitions.
	Categories(ctx context.Context) ([]model.Category, error)
	// ActiveBudgets returns active monthly budgets joined to spend-to-date for month.
	ActiveBudgets(ctx context.Context, month time.Time) ([]model.BudgetSpend, error)
}
