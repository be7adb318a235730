package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/theirongolddev/cashcast/internal/model"
)

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// importedCategory is a category as named in an import file.
type importedCategory struct {
	Name   string
	Parent string
	Type   model.CategoryType
}

// UpsertCategory creates or updates a category by name and returns its id.
func (s *Store) UpsertCategory(ctx context.Context, c model.Category) (int64, error) {
	return s.upsertCategory(ctx, s.db, c)
}

func (s *Store) upsertCategory(ctx context.Context, q queryer, c model.Category) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.rebind(`INSERT INTO category_definitions
		(name, name_en, parent_id, category_type, icon, color)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			category_type = excluded.category_type,
			parent_id = COALESCE(excluded.parent_id, category_definitions.parent_id)
		RETURNING id`),
		c.Name, nullString(c.NameEn), c.ParentID, c.Type.String(), nullString(c.Icon), nullString(c.Color),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting category %q: %w", c.Name, err)
	}
	return id, nil
}

// SaveImport stores the transactions parsed from one file and records the
// file's tracking info, in a single database transaction. Rows previously
// imported from the same file are replaced.
func (s *Store) SaveImport(ctx context.Context, filePath string, txns []model.Transaction, info FileInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM transactions WHERE source_file = ?"), filePath); err != nil {
		return fmt.Errorf("clearing previous import: %w", err)
	}

	ids := make(map[string]int64)
	for _, t := range txns {
		catID, err := s.categoryID(ctx, tx, ids, importedCategory{
			Name: t.CategoryName, Parent: t.ParentCategoryName, Type: t.CategoryType,
		})
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO transactions
			(identifier, vendor, name, price, date, status, category_definition_id, is_excluded, source_file)
			VALUES (?, ?, ?, ?, ?, 'completed', ?, 0, ?)
			ON CONFLICT (identifier, vendor) DO UPDATE SET
				name = excluded.name,
				price = excluded.price,
				date = excluded.date,
				category_definition_id = excluded.category_definition_id,
				source_file = excluded.source_file`),
			t.ID, t.Vendor, t.Name, t.Amount, model.DateOf(t.Date).Format(model.DateLayout), catID, filePath,
		)
		if err != nil {
			return fmt.Errorf("saving transaction %s: %w", t.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)
		ON CONFLICT (file_path) DO UPDATE SET mtime_ns = excluded.mtime_ns, size_bytes = excluded.size_bytes`),
		filePath, info.MtimeNs, info.SizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) categoryID(ctx context.Context, q queryer, ids map[string]int64, c importedCategory) (int64, error) {
	if id, ok := ids[c.Name]; ok {
		return id, nil
	}
	cat := model.Category{Name: c.Name, Type: c.Type}
	if c.Parent != "" && c.Parent != c.Name {
		parentID, err := s.categoryID(ctx, q, ids, importedCategory{Name: c.Parent, Type: c.Type})
		if err != nil {
			return 0, err
		}
		cat.ParentID = &parentID
	}
	id, err := s.upsertCategory(ctx, q, cat)
	if err != nil {
		return 0, err
	}
	ids[c.Name] = id
	return id, nil
}

// SetBudget sets the active monthly limit for an existing category.
func (s *Store) SetBudget(ctx context.Context, category string, limit float64) error {
	id, err := s.lookupCategory(ctx, category)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO category_budgets
		(category_definition_id, period_type, budget_limit, is_active)
		VALUES (?, 'monthly', ?, 1)
		ON CONFLICT (category_definition_id) DO UPDATE SET
			budget_limit = excluded.budget_limit, is_active = 1`), id, limit)
	if err != nil {
		return fmt.Errorf("setting budget for %q: %w", category, err)
	}
	return nil
}

// DeleteBudget removes a category's budget.
func (s *Store) DeleteBudget(ctx context.Context, category string) error {
	id, err := s.lookupCategory(ctx, category)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind("DELETE FROM category_budgets WHERE category_definition_id = ?"), id)
	return err
}

// ErrUnknownCategory is returned when a category name has no definition.
var ErrUnknownCategory = errors.New("unknown category")

func (s *Store) lookupCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT id FROM category_definitions WHERE name = ?"), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return id, err
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all imported files.
func (s *Store) GetTrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// ForgetFile removes a file's tracking entry and the transactions imported from it.
func (s *Store) ForgetFile(ctx context.Context, filePath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM transactions WHERE source_file = ?"), filePath); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM file_tracker WHERE file_path = ?"), filePath); err != nil {
		return err
	}
	return tx.Commit()
}

// SetExcluded marks a transaction as excluded from (or restored to) forecasting.
func (s *Store) SetExcluded(ctx context.Context, identifier string, excluded bool) error {
	v := 0
	if excluded {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE transactions SET is_excluded = ? WHERE identifier = ?"), v, identifier)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %q not found", identifier)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
