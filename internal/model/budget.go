package model

import (
	"fmt"
	"time"
)

// BudgetStatus classifies a category's month-end projection.
type BudgetStatus int

const (
	OnTrack BudgetStatus = iota
	AtRisk
	Exceeded
)

var budgetStatusNames = [...]string{
	OnTrack:  "on_track",
	AtRisk:   "at_risk",
	Exceeded: "exceeded",
}

func (s BudgetStatus) String() string {
	if int(s) < 0 || int(s) >= len(budgetStatusNames) {
		return fmt.Sprintf("BudgetStatus(%d)", int(s))
	}
	return budgetStatusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s BudgetStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BudgetStatus) UnmarshalText(b []byte) error {
	for i, name := range budgetStatusNames {
		if name == string(b) {
			*s = BudgetStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown budget status %q", b)
}

// BudgetOutlookRow is the month-end projection for one category.
type BudgetOutlookRow struct {
	CategoryName      string       `json:"categoryName"`
	Budgeted          bool         `json:"budgeted"`
	Limit             *float64     `json:"limit"`
	Spent             float64      `json:"spent"`
	ProjectedTotal    float64      `json:"projectedTotal"`
	ProjectedOverrun  float64      `json:"projectedOverrun"`
	NextLikelyHitDate *time.Time   `json:"nextLikelyHitDate"`
	RiskScore         float64      `json:"risk"`
	Status            BudgetStatus `json:"status"`
}

// BudgetSummary aggregates the outlook rows.
type BudgetSummary struct {
	Exceeded              int     `json:"exceeded"`
	AtRisk                int     `json:"atRisk"`
	OnTrack               int     `json:"onTrack"`
	TotalProjectedOverrun float64 `json:"totalProjectedOverrun"`
	HasBudgetData         bool    `json:"hasBudgetData"`
	Warning               string  `json:"warning,omitempty"`
}

// BudgetStats holds month-to-date burn tracking against a spending ceiling.
type BudgetStats struct {
	MonthlyLimit      *float64
	CurrentSpend      float64
	DailyBurnRate     float64
	ProjectedMonthly  float64
	DaysElapsed       int
	DaysRemaining     int
	BudgetUsedPercent float64
}
