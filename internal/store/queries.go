package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/theirongolddev/cashcast/internal/model"
)

const transactionSelect = `SELECT
	t.identifier, t.vendor, t.name, t.price, t.date,
	cd.name, cd.category_type, COALESCE(parent.name, '')
	FROM transactions t
	JOIN category_definitions cd ON cd.id = t.category_definition_id
	LEFT JOIN category_definitions parent ON parent.id = cd.parent_id
	WHERE t.status = 'completed' AND t.is_excluded = 0`

// Transactions returns completed, non-excluded transactions dated on or after
// since, oldest first. A nil since returns all history.
func (s *Store) Transactions(ctx context.Context, since *time.Time) ([]model.Transaction, error) {
	query := transactionSelect
	var args []any
	if since != nil {
		query += " AND t.date >= ?"
		args = append(args, since.Format(model.DateLayout))
	}
	query += " ORDER BY t.date ASC, t.identifier ASC"
	return s.queryTransactions(ctx, query, args...)
}

// MonthTransactions returns completed transactions within month's calendar month.
func (s *Store) MonthTransactions(ctx context.Context, month time.Time) ([]model.Transaction, error) {
	query := transactionSelect + " AND t.date >= ? AND t.date <= ? ORDER BY t.date ASC, t.identifier ASC"
	return s.queryTransactions(ctx, query,
		model.MonthStart(month).Format(model.DateLayout),
		model.MonthEnd(month).Format(model.DateLayout))
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var dateStr, catType string
		if err := rows.Scan(&t.ID, &t.Vendor, &t.Name, &t.Amount, &dateStr,
			&t.CategoryName, &catType, &t.ParentCategoryName); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse(model.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: bad date %q: %w", t.ID, dateStr, err)
		}
		t.CategoryType, err = model.ParseCategoryType(catType)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		model.EnrichTransaction(&t)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Categories returns every category definition ordered by name.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, name, COALESCE(name_en, ''), parent_id, category_type, COALESCE(icon, ''), COALESCE(color, '')
		FROM category_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		var parent sql.NullInt64
		var catType string
		if err := rows.Scan(&c.ID, &c.Name, &c.NameEn, &parent, &catType, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			c.ParentID = &p
		}
		if c.Type, err = model.ParseCategoryType(catType); err != nil {
			return nil, fmt.Errorf("category %s: %w", c.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActiveBudgets returns active monthly budgets with the category's expense
// spend in month.
func (s *Store) ActiveBudgets(ctx context.Context, month time.Time) ([]model.BudgetSpend, error) {
	query := `SELECT cd.id, cd.name, b.budget_limit,
		COALESCE((SELECT SUM(-t.price) FROM transactions t
			WHERE t.category_definition_id = cd.id
			  AND t.status = 'completed' AND t.is_excluded = 0
			  AND t.date >= ? AND t.date <= ?), 0)
		FROM category_budgets b
		JOIN category_definitions cd ON cd.id = b.category_definition_id
		WHERE b.is_active = 1 AND b.period_type = 'monthly'
		ORDER BY cd.name`

	rows, err := s.db.QueryContext(ctx, s.rebind(query),
		model.MonthStart(month).Format(model.DateLayout),
		model.MonthEnd(month).Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.BudgetSpend
	for rows.Next() {
		var b model.BudgetSpend
		if err := rows.Scan(&b.CategoryID, &b.CategoryName, &b.Limit, &b.Spent); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TransactionCount returns the number of stored transactions.
func (s *Store) TransactionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n)
	return n, err
}
