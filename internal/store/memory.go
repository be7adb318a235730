package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

// Memory is an in-memory implementation of the forecast repository.
type Memory struct {
	mu sync.RWMutex

	txns       map[string]model.Transaction
	categories map[string]model.Category
	budgets    map[string]float64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		txns:       make(map[string]model.Transaction),
		categories: make(map[string]model.Category),
		budgets:    make(map[string]float64),
	}
}

// AddTransactions stores transactions, replacing any with the same ID.
func (m *Memory) AddTransactions(txns ...model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txns {
		model.EnrichTransaction(&t)
		m.txns[t.ID] = t
	}
}

// AddCategory stores a category definition keyed by name.
func (m *Memory) AddCategory(c model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = int64(len(m.categories) + 1)
	}
	m.categories[c.Name] = c
}

// SetBudget sets an active monthly limit for a category name.
func (m *Memory) SetBudget(category string, limit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[category] = limit
}

// Transactions returns all transactions dated on or after since, oldest first.
func (m *Memory) Transactions(_ context.Context, since *time.Time) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Transaction
	for _, t := range m.txns {
		if since != nil && t.Date.Before(model.DateOf(*since)) {
			continue
		}
		out = append(out, t)
	}
	sortByDate(out)
	return out, nil
}

// MonthTransactions returns the transactions in month's calendar month.
func (m *Memory) MonthTransactions(_ context.Context, month time.Time) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := month.Format(model.MonthLayout)
	var out []model.Transaction
	for _, t := range m.txns {
		if t.MonthKey == key {
			out = append(out, t)
		}
	}
	sortByDate(out)
	return out, nil
}

// Categories returns the category definitions ordered by name.
func (m *Memory) Categories(_ context.Context) ([]model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ActiveBudgets joins each budget to its expense spend in month.
func (m *Memory) ActiveBudgets(_ context.Context, month time.Time) ([]model.BudgetSpend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := month.Format(model.MonthLayout)
	spent := make(map[string]float64)
	for _, t := range m.txns {
		if t.MonthKey == key && t.CategoryType == model.Expense {
			spent[t.CategoryName] -= t.Amount
		}
	}

	out := make([]model.BudgetSpend, 0, len(m.budgets))
	for name, limit := range m.budgets {
		out = append(out, model.BudgetSpend{
			CategoryID:   m.categories[name].ID,
			CategoryName: name,
			Limit:        limit,
			Spent:        spent[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

func sortByDate(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
}
