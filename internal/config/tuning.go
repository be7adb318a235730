package config

import "reflect"

// Tuning holds the empirically tuned forecast constants. Every value can be
// overridden from the [forecast] section of the config file.
type Tuning struct {
	// Frequency classes, in occurrences per month.
	DailyMinRate   float64 `toml:"daily_min_rate"`
	WeeklyMinRate  float64 `toml:"weekly_min_rate"`
	MonthlyMinRate float64 `toml:"monthly_min_rate"`

	// Normalized edit distance under which two names share a signature.
	SignatureMergeDistance float64  `toml:"signature_merge_distance"`
	CapitalReturnLabels    []string `toml:"capital_return_labels"`

	MostLikelyDays    int     `toml:"most_likely_days"`
	ClusterRadiusDays int     `toml:"cluster_radius_days"`
	ClusterMinMass    float64 `toml:"cluster_min_mass"`
	ClusterCycleDays  int     `toml:"cluster_cycle_days"`

	TailMinOccurrences int     `toml:"tail_min_occurrences"`
	TailMaxCV          float64 `toml:"tail_max_cv"`
	TailMinDayShare    float64 `toml:"tail_min_day_share"`

	// Minimum days between two occurrences of the same pattern.
	MinSpacingDaily          int `toml:"min_spacing_daily"`
	MinSpacingWeekly         int `toml:"min_spacing_weekly"`
	MinSpacingMonthlyExpense int `toml:"min_spacing_monthly_expense"`
	MinSpacingMonthlyIncome  int `toml:"min_spacing_monthly_income"`
	MinSpacingSporadic       int `toml:"min_spacing_sporadic"`

	LowFrequencySpacingFactor float64 `toml:"low_frequency_spacing_factor"`

	// A pattern silent for StaleAfterIntervals mean intervals (and at least
	// StaleMinDays) is treated as ended.
	StaleAfterIntervals float64 `toml:"stale_after_intervals"`
	StaleMinDays        int     `toml:"stale_min_days"`

	ExpenseProbabilityCeiling float64 `toml:"expense_probability_ceiling"`
	TailProbabilityFloor      float64 `toml:"tail_probability_floor"`

	ConfirmedOccurrenceDamping float64 `toml:"confirmed_occurrence_damping"`
	MissedDayGraceDays         int     `toml:"missed_day_grace_days"`
	LateMonthDay               int     `toml:"late_month_day"`
	CatchUpWeight              float64 `toml:"catch_up_weight"`
	MaxCatchUpMultiplier       float64 `toml:"max_catch_up_multiplier"`
	MinOverObservedMultiplier  float64 `toml:"min_over_observed_multiplier"`
	MinExpectedForRatio        float64 `toml:"min_expected_for_ratio"`

	ChosenOccurrenceMinMass float64 `toml:"chosen_occurrence_min_mass"`
	TopPredictions          int     `toml:"top_predictions"`

	AtRiskThreshold          float64 `toml:"at_risk_threshold"`
	UnbudgetedSurgeMin       float64 `toml:"unbudgeted_surge_min"`
	UnbudgetedHardMultiplier float64 `toml:"unbudgeted_hard_multiplier"`
}

// DefaultTuning returns the stock forecast constants.
func DefaultTuning() Tuning {
	return Tuning{
		DailyMinRate:   20,
		WeeklyMinRate:  3.5,
		MonthlyMinRate: 0.8,

		SignatureMergeDistance: 0.2,
		CapitalReturnLabels:    []string{"capital return", "return of capital", "principal repayment"},

		MostLikelyDays:    5,
		ClusterRadiusDays: 3,
		ClusterMinMass:    0.6,
		ClusterCycleDays:  25,

		TailMinOccurrences: 3,
		TailMaxCV:          0.6,
		TailMinDayShare:    0.3,

		MinSpacingDaily:          0,
		MinSpacingWeekly:         2,
		MinSpacingMonthlyExpense: 10,
		MinSpacingMonthlyIncome:  20,
		MinSpacingSporadic:       14,

		LowFrequencySpacingFactor: 0.5,
		StaleAfterIntervals:       3,
		StaleMinDays:              45,

		ExpenseProbabilityCeiling: 0.7,
		TailProbabilityFloor:      0.04,

		ConfirmedOccurrenceDamping: 0.2,
		MissedDayGraceDays:         3,
		LateMonthDay:               20,
		CatchUpWeight:              0.5,
		MaxCatchUpMultiplier:       1.5,
		MinOverObservedMultiplier:  0.4,
		MinExpectedForRatio:        0.5,

		ChosenOccurrenceMinMass: 0.5,
		TopPredictions:          5,

		AtRiskThreshold:          0.8,
		UnbudgetedSurgeMin:       0.2,
		UnbudgetedHardMultiplier: 2,
	}
}

// IsZero reports whether no field is set.
func (t Tuning) IsZero() bool {
	return reflect.ValueOf(t).IsZero()
}

// WithDefaults replaces non-positive values with the stock constants.
// Spacing values of zero are meaningful and are kept, as is an empty label list.
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fillInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}

	fill(&t.DailyMinRate, d.DailyMinRate)
	fill(&t.WeeklyMinRate, d.WeeklyMinRate)
	fill(&t.MonthlyMinRate, d.MonthlyMinRate)
	fill(&t.SignatureMergeDistance, d.SignatureMergeDistance)
	if t.CapitalReturnLabels == nil {
		t.CapitalReturnLabels = d.CapitalReturnLabels
	}
	fillInt(&t.MostLikelyDays, d.MostLikelyDays)
	fillInt(&t.ClusterRadiusDays, d.ClusterRadiusDays)
	fill(&t.ClusterMinMass, d.ClusterMinMass)
	fillInt(&t.ClusterCycleDays, d.ClusterCycleDays)
	fillInt(&t.TailMinOccurrences, d.TailMinOccurrences)
	fill(&t.TailMaxCV, d.TailMaxCV)
	fill(&t.TailMinDayShare, d.TailMinDayShare)
	fill(&t.LowFrequencySpacingFactor, d.LowFrequencySpacingFactor)
	fill(&t.StaleAfterIntervals, d.StaleAfterIntervals)
	fillInt(&t.StaleMinDays, d.StaleMinDays)
	fill(&t.ExpenseProbabilityCeiling, d.ExpenseProbabilityCeiling)
	fill(&t.TailProbabilityFloor, d.TailProbabilityFloor)
	fill(&t.ConfirmedOccurrenceDamping, d.ConfirmedOccurrenceDamping)
	fillInt(&t.LateMonthDay, d.LateMonthDay)
	fill(&t.CatchUpWeight, d.CatchUpWeight)
	fill(&t.MaxCatchUpMultiplier, d.MaxCatchUpMultiplier)
	fill(&t.MinOverObservedMultiplier, d.MinOverObservedMultiplier)
	fill(&t.MinExpectedForRatio, d.MinExpectedForRatio)
	fill(&t.ChosenOccurrenceMinMass, d.ChosenOccurrenceMinMass)
	fillInt(&t.TopPredictions, d.TopPredictions)
	fill(&t.AtRiskThreshold, d.AtRiskThreshold)
	fill(&t.UnbudgetedSurgeMin, d.UnbudgetedSurgeMin)
	fill(&t.UnbudgetedHardMultiplier, d.UnbudgetedHardMultiplier)
	return t
}
