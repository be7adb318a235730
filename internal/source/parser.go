// Package source discovers and parses bank export files (CSV and JSONL).
package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashcast/internal/model"
)

// idNamespace scopes the name-based identifiers derived for rows that carry none.
var idNamespace = uuid.MustParse("6f1c2a9e-3b7d-5e0f-9a41-c8d2e7b05a13")

var dateLayouts = []string{
	model.DateLayout,
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// DefaultCategory is assigned to rows without a category.
const DefaultCategory = "Uncategorized"

// ParseFile reads an export file into transactions. Rows that fail
// validation are counted in ParseErrors and skipped.
//
// Rows without an identifier get a deterministic one derived from the
// account, date, name and amount, so re-importing the same file produces
// the same identifiers. Identical rows within a file are told apart by
// their order of appearance.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		rows        []RawRow
		parseErrors int
	)
	switch df.Format {
	case FormatJSONL:
		rows, parseErrors, err = readJSONL(f)
	default:
		rows, parseErrors, err = readCSV(f)
	}
	if err != nil {
		return ParseResult{Err: fmt.Errorf("reading %s: %w", df.Path, err)}
	}

	result := ParseResult{ParseErrors: parseErrors}
	seen := make(map[string]int)
	for _, r := range rows {
		t, err := r.transaction(df.Account)
		if err != nil {
			result.ParseErrors++
			continue
		}
		if t.ID == "" {
			key := fmt.Sprintf("%s|%s|%s|%.2f", t.Vendor, t.Date.Format(model.DateLayout), t.Name, t.Amount)
			n := seen[key]
			seen[key]++
			t.ID = uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s#%d", key, n))).String()
		}
		result.Transactions = append(result.Transactions, t)
	}
	return result
}

func readCSV(r io.Reader) ([]RawRow, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "name", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing %q column", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		rows []RawRow
		bad  int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			bad++
			continue
		}
		if err != nil {
			return nil, bad, err
		}
		rows = append(rows, RawRow{
			Identifier:     field(rec, "identifier"),
			Date:           field(rec, "date"),
			Name:           field(rec, "name"),
			Vendor:         field(rec, "vendor"),
			Amount:         Amount(field(rec, "amount")),
			Category:       field(rec, "category"),
			ParentCategory: field(rec, "parent_category"),
			CategoryType:   field(rec, "category_type"),
		})
	}
	return rows, bad, nil
}

func readJSONL(r io.Reader) ([]RawRow, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		rows        []RawRow
		parseErrors int
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row RawRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			parseErrors++
			continue
		}
		rows = append(rows, row)
	}
	return rows, parseErrors, scanner.Err()
}

func (r RawRow) transaction(account string) (model.Transaction, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return model.Transaction{}, errors.New("empty name")
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := ParseAmount(string(r.Amount))
	if err != nil {
		return model.Transaction{}, err
	}

	ct := model.Expense
	if amount.IsPositive() {
		ct = model.Income
	}
	if s := strings.TrimSpace(r.CategoryType); s != "" {
		if ct, err = model.ParseCategoryType(s); err != nil {
			return model.Transaction{}, err
		}
	}

	vendor := strings.TrimSpace(r.Vendor)
	if vendor == "" {
		vendor = account
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = DefaultCategory
	}

	t := model.Transaction{
		ID:                 strings.TrimSpace(r.Identifier),
		Vendor:             vendor,
		Name:               name,
		Date:               date,
		Amount:             amount.InexactFloat64(),
		CategoryType:       ct,
		CategoryName:       category,
		ParentCategoryName: strings.TrimSpace(r.ParentCategory),
	}
	model.EnrichTransaction(&t)
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a signed amount such as "-1,234.50" or "(12.00)",
// rounded to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", " ", "", "$", "", "€", "", "£", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(2), nil
}
