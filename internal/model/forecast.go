package model

import "time"

// Prediction is one pattern's contribution to a single forecast day.
// Predictions also serve as the simulation entries the Monte Carlo pass samples.
type Prediction struct {
	Signature    string       `json:"signature"`
	Name         string       `json:"name"`
	CategoryName string       `json:"categoryName"`
	CategoryType CategoryType `json:"categoryType"`
	PatternType  PatternType  `json:"patternType"`

	Probability    float64 `json:"probability"`
	ExpectedAmount float64 `json:"expectedAmount"`
	WeightedAmount float64 `json:"probabilityWeightedAmount"`
	AvgAmount      float64 `json:"avgAmount"`
	StdDev         float64 `json:"stdDev"`
	Direction      int     `json:"direction"`

	IsChosenOccurrence bool `json:"isChosenOccurrence,omitempty"`
}

// DailyForecast holds the expected cash flow for one calendar date.
type DailyForecast struct {
	Date                time.Time    `json:"date"`
	ExpectedIncome      float64      `json:"expectedIncome"`
	ExpectedExpenses    float64      `json:"expectedExpenses"`
	ExpectedInvestments float64      `json:"expectedInvestments"`
	NetCashFlow         float64      `json:"cashFlow"`
	Predictions         []Prediction `json:"predictions"`
	TopPredictions      []Prediction `json:"topPredictions"`
}

// Adjustment is the current-month correction for one pattern.
type Adjustment struct {
	Multiplier        float64 `json:"probabilityMultiplier"`
	ExpectedRemaining float64 `json:"expectedRemaining"`
	ObservedThisMonth int     `json:"observedThisMonth"`
	ClusterHit        bool    `json:"clusterHit,omitempty"`
}

// ScenarioDay is one day of a simulated or expected scenario.
type ScenarioDay struct {
	Date        time.Time `json:"date"`
	Income      float64   `json:"income"`
	Expenses    float64   `json:"expenses"`
	Investments float64   `json:"investments"`
	Net         float64   `json:"net"`
	Cumulative  float64   `json:"cumulative"`
}

// ScenarioTotals aggregates a scenario over the whole window.
type ScenarioTotals struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Investments float64 `json:"investments"`
	Net         float64 `json:"net"`
}

// ScenarioResult is a full scenario with daily detail.
type ScenarioResult struct {
	Label  string         `json:"label"`
	Days   []ScenarioDay  `json:"days"`
	Totals ScenarioTotals `json:"totals"`
}

// MonteCarloSummary holds the sampled runs and their percentile envelopes.
// Worst, Median and Best are nil when no runs were requested.
type MonteCarloSummary struct {
	NumSimulations int              `json:"numSimulations"`
	Base           *ScenarioResult  `json:"base"`
	Worst          *ScenarioResult  `json:"worst,omitempty"`
	Median         *ScenarioResult  `json:"median,omitempty"`
	Best           *ScenarioResult  `json:"best,omitempty"`
	AllScenarios   []ScenarioTotals `json:"allScenarios"`
}

// AnalysisInfo describes the history the forecast was built from.
type AnalysisInfo struct {
	TransactionsAnalyzed     int        `json:"transactionsAnalyzed"`
	CurrentMonthTransactions int        `json:"currentMonthTransactions"`
	PatternsFound            int        `json:"patternsFound"`
	TailOnlyPatterns         int        `json:"tailOnlyPatterns"`
	SkippedPatterns          int        `json:"skippedPatterns"`
	HistorySince             *time.Time `json:"historySince"`
	HistoryMonths            int        `json:"historyMonths"`
	UsedFullHistoryFallback  bool       `json:"usedFullHistoryFallback"`
	MonteCarloRuns           int        `json:"monteCarloRuns"`
}

// ForecastResult is the output of one forecast window.
type ForecastResult struct {
	ID                 string                     `json:"id"`
	GeneratedAt        time.Time                  `json:"generatedAt"`
	StartDate          time.Time                  `json:"startDate"`
	EndDate            time.Time                  `json:"endDate"`
	Days               []DailyForecast            `json:"dailyForecasts"`
	Totals             ScenarioTotals             `json:"totals"`
	Scenarios          map[string]*ScenarioResult `json:"scenarios"`
	MonteCarlo         MonteCarloSummary          `json:"monteCarlo"`
	Patterns           map[string]*Pattern        `json:"categoryPatterns"`
	Skipped            []SkippedPattern           `json:"skippedPatterns,omitempty"`
	MonthlyAdjustments map[string]Adjustment      `json:"monthlyAdjustments"`
	AnalysisInfo       AnalysisInfo               `json:"analysisInfo"`
}

// CategoryForecast is the window total expected for one category.
type CategoryForecast struct {
	CategoryName  string       `json:"categoryName"`
	CategoryType  CategoryType `json:"categoryType"`
	Icon          string       `json:"icon,omitempty"`
	Color         string       `json:"color,omitempty"`
	Expected      float64      `json:"expected"`
	PatternCount  int          `json:"patternCount"`
	NextLikelyDay *time.Time   `json:"nextLikelyDate,omitempty"`
}

// FullForecast extends a forecast window with budget outlook and per-category totals.
type FullForecast struct {
	*ForecastResult
	BudgetOutlook      []BudgetOutlookRow          `json:"budgetOutlook"`
	BudgetSummary      BudgetSummary               `json:"budgetSummary"`
	ForecastByCategory map[string]CategoryForecast `json:"forecastByCategory"`
}

// MonthlyStats holds realized cash flow for one calendar month.
type MonthlyStats struct {
	Month        string  `json:"month"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	Investments  float64 `json:"investments"`
	Net          float64 `json:"net"`
	Transactions int     `json:"transactions"`
}

// CategoryStats holds spend for one category within a period.
type CategoryStats struct {
	CategoryName string       `json:"categoryName"`
	CategoryType CategoryType `json:"categoryType"`
	Total        float64      `json:"total"`
	Count        int          `json:"count"`
	SharePercent float64      `json:"sharePercent"`
}
