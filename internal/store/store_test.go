package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	txns := []model.Transaction{
		{ID: "1", Vendor: "bank", Name: "Rent", Date: day("2025-01-05"), Amount: -1200, CategoryType: model.Expense, CategoryName: "Rent", ParentCategoryName: "Housing"},
		{ID: "2", Vendor: "bank", Name: "Salary", Date: day("2025-01-01"), Amount: 5000, CategoryType: model.Income, CategoryName: "Salary"},
		{ID: "3", Vendor: "bank", Name: "Rent", Date: day("2025-02-05"), Amount: -1200, CategoryType: model.Expense, CategoryName: "Rent", ParentCategoryName: "Housing"},
		{ID: "4", Vendor: "bank", Name: "Groceries", Date: day("2025-02-10"), Amount: -150, CategoryType: model.Expense, CategoryName: "Food"},
	}
	require.NoError(t, s.SaveImport(context.Background(), "/tmp/a.csv", txns, FileInfo{MtimeNs: 1, SizeBytes: 2}))
}

func TestTransactions_EnrichedAndOrdered(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	txns, err := s.Transactions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	assert.Equal(t, "2", txns[0].ID)
	assert.Equal(t, model.Income, txns[0].CategoryType)
	assert.Equal(t, "Housing", txns[1].ParentCategoryName)
	assert.Equal(t, 5, txns[1].DayOfMonth)
	assert.Equal(t, "2025-01", txns[1].MonthKey)
	assert.Equal(t, int(time.Sunday), txns[1].DayOfWeek)

	since := day("2025-02-01")
	recent, err := s.Transactions(context.Background(), &since)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMonthTransactions(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	txns, err := s.MonthTransactions(context.Background(), day("2025-02-17"))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "3", txns[0].ID)
}

func TestActiveBudgets_JoinsSpend(t *testing.T) {
	s := openTemp(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetBudget(ctx, "Food", 400))
	require.NoError(t, s.SetBudget(ctx, "Rent", 1000))

	budgets, err := s.ActiveBudgets(ctx, day("2025-02-01"))
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "Food", budgets[0].CategoryName)
	assert.InDelta(t, 150, budgets[0].Spent, 1e-9)
	assert.InDelta(t, 1200, budgets[1].Spent, 1e-9)

	require.NoError(t, s.DeleteBudget(ctx, "Food"))
	budgets, err = s.ActiveBudgets(ctx, day("2025-02-01"))
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func TestSetBudget_UnknownCategory(t *testing.T) {
	s := openTemp(t)
	err := s.SetBudget(context.Background(), "Nope", 10)
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategories_ParentLinks(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	cats, err := s.Categories(context.Background())
	require.NoError(t, err)

	byName := make(map[string]model.Category)
	for _, c := range cats {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "Housing")
	require.NotNil(t, byName["Rent"].ParentID)
	assert.Equal(t, byName["Housing"].ID, *byName["Rent"].ParentID)
}

func TestSaveImport_ReimportReplacesFileRows(t *testing.T) {
	s := openTemp(t)
	seed(t, s)
	ctx := context.Background()

	again := []model.Transaction{
		{ID: "9", Vendor: "bank", Name: "Coffee", Date: day("2025-02-11"), Amount: -4, CategoryType: model.Expense, CategoryName: "Food"},
	}
	require.NoError(t, s.SaveImport(ctx, "/tmp/a.csv", again, FileInfo{MtimeNs: 3, SizeBytes: 4}))

	n, err := s.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tracked, err := s.GetTrackedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 3, SizeBytes: 4}, tracked["/tmp/a.csv"])

	require.NoError(t, s.ForgetFile(ctx, "/tmp/a.csv"))
	n, err = s.TransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSetExcluded_HidesTransaction(t *testing.T) {
	s := openTemp(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetExcluded(ctx, "4", true))
	txns, err := s.Transactions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, txns, 3)

	assert.Error(t, s.SetExcluded(ctx, "missing", true))
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	lite := &Store{dialect: dialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestMemory_ActiveBudgets(t *testing.T) {
	m := NewMemory()
	m.AddTransactions(
		model.Transaction{ID: "a", Name: "Shop", Date: day("2025-03-02"), Amount: -40, CategoryType: model.Expense, CategoryName: "Food"},
		model.Transaction{ID: "b", Name: "Shop", Date: day("2025-02-02"), Amount: -10, CategoryType: model.Expense, CategoryName: "Food"},
	)
	m.SetBudget("Food", 100)

	budgets, err := m.ActiveBudgets(context.Background(), day("2025-03-01"))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.InDelta(t, 40, budgets[0].Spent, 1e-9)

	month, err := m.MonthTransactions(context.Background(), day("2025-03-15"))
	require.NoError(t, err)
	assert.Len(t, month, 1)
}
