// Package model defines domain types for cashcast transactions, patterns and forecasts.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for storage and display.
const DateLayout = "2006-01-02"

// MonthLayout is the month key format (YYYY-MM).
const MonthLayout = "2006-01"

// CategoryType is the closed set of cash-flow directions a category can have.
type CategoryType int

const (
	Expense CategoryType = iota
	Income
	Investment
)

var categoryTypeNames = [...]string{
	Expense:    "expense",
	Income:     "income",
	Investment: "investment",
}

func (c CategoryType) String() string {
	if int(c) < 0 || int(c) >= len(categoryTypeNames) {
		return fmt.Sprintf("CategoryType(%d)", int(c))
	}
	return categoryTypeNames[c]
}

// ParseCategoryType maps a stored category type string to its enum value.
func ParseCategoryType(s string) (CategoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense":
		return Expense, nil
	case "income":
		return Income, nil
	case "investment":
		return Investment, nil
	}
	return Expense, fmt.Errorf("unknown category type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c CategoryType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CategoryType) UnmarshalText(b []byte) error {
	v, err := ParseCategoryType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Transaction is one completed, categorized transaction record.
// Amount is signed: negative values are outflows.
type Transaction struct {
	ID                 string       `json:"id"`
	Vendor             string       `json:"vendor"`
	Name               string       `json:"name"`
	Date               time.Time    `json:"date"`
	Amount             float64      `json:"amount"`
	CategoryType       CategoryType `json:"categoryType"`
	CategoryName       string       `json:"categoryName"`
	ParentCategoryName string       `json:"parentCategoryName,omitempty"`

	DayOfWeek  int    `json:"dayOfWeek"`
	DayOfMonth int    `json:"dayOfMonth"`
	MonthKey   string `json:"monthKey"`
}

// EnrichTransaction normalizes the date to a calendar day and fills the
// derived day-of-week, day-of-month and month key fields.
func EnrichTransaction(t *Transaction) {
	t.Date = DateOf(t.Date)
	t.DayOfWeek = int(t.Date.Weekday())
	t.DayOfMonth = t.Date.Day()
	t.MonthKey = t.Date.Format(MonthLayout)
}

// Category is a category definition.
type Category struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	NameEn   string       `json:"nameEn,omitempty"`
	ParentID *int64       `json:"parentId,omitempty"`
	Type     CategoryType `json:"categoryType"`
	Icon     string       `json:"icon,omitempty"`
	Color    string       `json:"color,omitempty"`
}

// BudgetSpend is an active monthly budget joined to its spend so far this month.
type BudgetSpend struct {
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Limit        float64 `json:"limit"`
	Spent        float64 `json:"spent"`
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
