package model

import (
	"fmt"
	"sort"
	"time"
)

// PatternType is the frequency class of a recurring pattern.
type PatternType int

const (
	Sporadic PatternType = iota
	Monthly
	Weekly
	Daily
)

var patternTypeNames = [...]string{
	Sporadic: "sporadic",
	Monthly:  "monthly",
	Weekly:   "weekly",
	Daily:    "daily",
}

func (p PatternType) String() string {
	if int(p) < 0 || int(p) >= len(patternTypeNames) {
		return fmt.Sprintf("PatternType(%d)", int(p))
	}
	return patternTypeNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p PatternType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PatternType) UnmarshalText(b []byte) error {
	for i, name := range patternTypeNames {
		if name == string(b) {
			*p = PatternType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pattern type %q", b)
}

// DayShare is a day-of-month with its historical share of occurrences.
type DayShare struct {
	Day   int     `json:"day"`
	Share float64 `json:"probability"`
}

// Pattern is the statistical model of one recurring transaction signature.
// Histograms hold shares of this pattern's occurrences, not per-date probabilities.
type Pattern struct {
	Signature          string       `json:"signature"`
	CategoryType       CategoryType `json:"categoryType"`
	CategoryName       string       `json:"categoryName"`
	ParentCategoryName string       `json:"parentCategoryName,omitempty"`
	TransactionName    string       `json:"transactionName"`

	PatternType            PatternType `json:"patternType"`
	Occurrences            int         `json:"occurrences"`
	AvgAmount              float64     `json:"avgAmount"`
	StdDev                 float64     `json:"stdDev"`
	CoefficientOfVariation float64     `json:"coefficientOfVariation"`
	Direction              int         `json:"direction"`
	AvgOccurrencesPerMonth float64     `json:"avgOccurrencesPerMonth"`

	DayOfWeekProb         map[int]float64 `json:"dayOfWeekProb"`
	DayOfMonthProb        map[int]float64 `json:"dayOfMonthProb"`
	MostLikelyDaysOfMonth []DayShare      `json:"mostLikelyDaysOfMonth,omitempty"`
	DominantDayCluster    []int           `json:"dominantDayCluster,omitempty"`

	FirstOccurrence time.Time `json:"firstOccurrence"`
	LastOccurrence  time.Time `json:"lastOccurrence"`
	MonthsActive    int       `json:"monthsActive"`

	TailOnly   bool   `json:"tailOnly"`
	SkipReason string `json:"skipReason,omitempty"`
}

// MonthlyVolume is the pattern's average absolute amount per month.
func (p *Pattern) MonthlyVolume() float64 {
	return p.AvgAmount * p.AvgOccurrencesPerMonth
}

// InCluster reports whether day belongs to the dominant day cluster.
func (p *Pattern) InCluster(day int) bool {
	for _, d := range p.DominantDayCluster {
		if d == day {
			return true
		}
	}
	return false
}

// SortedPatterns orders patterns by monthly volume, largest first, with the
// signature as tiebreak.
func SortedPatterns(m map[string]*Pattern) []*Pattern {
	out := make([]*Pattern, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := out[i].MonthlyVolume(), out[j].MonthlyVolume()
		if vi != vj {
			return vi > vj
		}
		return out[i].Signature < out[j].Signature
	})
	return out
}

// SkippedPattern records a signature excluded from forecasting.
type SkippedPattern struct {
	Signature   string `json:"signature"`
	Name        string `json:"name"`
	Occurrences int    `json:"occurrences"`
	Reason      string `json:"reason"`
}

// Skip reasons.
const (
	SkipNonRecurrentInvestment = "non_recurrent_investment"
	SkipCapitalReturn          = "capital_return"
)
