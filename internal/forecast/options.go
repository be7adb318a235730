package forecast

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Per-request bounds. Larger values are clamped.
const (
	maxMonteCarloRuns = 20000
	maxForecastDays   = 731
	maxForecastMonths = 24
)

// Options are the per-request forecast parameters. Nil pointers mean "use
// the configured default".
type Options struct {
	IncludeToday   *bool
	ForecastDays   *int
	ForecastMonths int
	HistoryMonths  *int
	MonteCarloRuns *int
	Seed           int64
	NoCache        bool
	CacheDuration  *time.Duration
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// ParseOptions builds Options from query-string style values. Unparseable or
// out-of-range numbers are dropped so the configured defaults apply.
func ParseOptions(v url.Values) Options {
	var o Options

	if b, ok := parseBool(v.Get("includeToday")); ok {
		o.IncludeToday = &b
	}
	if n, ok := parseNonNegative(v.Get("forecastDays")); ok {
		o.ForecastDays = &n
	}
	if n, ok := parseNonNegative(v.Get("forecastMonths")); ok {
		o.ForecastMonths = n
	}
	if n, ok := parseNonNegative(v.Get("historyMonths")); ok {
		o.HistoryMonths = &n
	}
	if n, ok := parseNonNegative(v.Get("monteCarloRuns")); ok {
		o.MonteCarloRuns = &n
	}
	if s, err := strconv.ParseInt(v.Get("seed"), 10, 64); err == nil {
		o.Seed = s
	}
	if b, ok := parseBool(v.Get("noCache")); ok {
		o.NoCache = b
	}
	if n, ok := parseNonNegative(v.Get("cacheDurationMs")); ok {
		d := time.Duration(n) * time.Millisecond
		o.CacheDuration = &d
	}
	return o
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func parseNonNegative(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// settings is the effective, fully resolved option set of one request.
type settings struct {
	today          time.Time
	includeToday   bool
	forecastDays   int
	hasDays        bool
	forecastMonths int
	historyMonths  int
	runs           int
	seed           int64
	useCache       bool
	ttl            time.Duration
}

// key identifies the computation, excluding cache control fields.
func (s settings) key() string {
	return fmt.Sprintf("%s|today=%t|days=%t:%d|months=%d|history=%d|runs=%d|seed=%d",
		s.today.Format("2006-01-02"), s.includeToday, s.hasDays, s.forecastDays,
		s.forecastMonths, s.historyMonths, s.runs, s.seed)
}

// window returns the first and last forecast dates. An explicit day count of
// zero yields an empty window whose end precedes its start.
func (s settings) window() (time.Time, time.Time) {
	start := s.today
	if !s.includeToday {
		start = start.AddDate(0, 0, 1)
	}
	if s.hasDays {
		return start, start.AddDate(0, 0, s.forecastDays-1)
	}
	end := time.Date(start.Year(), start.Month()+time.Month(s.forecastMonths), 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

func (f *Forecaster) resolve(o Options) settings {
	s := settings{
		today:          f.today(),
		includeToday:   f.cfg.IncludeToday,
		forecastMonths: f.cfg.ForecastMonths,
		historyMonths:  f.cfg.HistoryMonths,
		runs:           f.cfg.MonteCarloRuns,
		seed:           f.cfg.Seed,
		ttl:            f.cfg.CacheTTL,
	}
	if o.IncludeToday != nil {
		s.includeToday = *o.IncludeToday
	}
	if o.ForecastDays != nil && *o.ForecastDays >= 0 {
		s.forecastDays = *o.ForecastDays
		s.hasDays = true
	}
	if o.ForecastMonths > 0 {
		s.forecastMonths = o.ForecastMonths
	}
	if s.forecastMonths < 1 {
		s.forecastMonths = 1
	}
	s.forecastDays = min(s.forecastDays, maxForecastDays)
	s.forecastMonths = min(s.forecastMonths, maxForecastMonths)
	if o.HistoryMonths != nil && *o.HistoryMonths >= 0 {
		s.historyMonths = *o.HistoryMonths
	}
	if o.MonteCarloRuns != nil && *o.MonteCarloRuns >= 0 {
		s.runs = *o.MonteCarloRuns
	}
	if s.runs > maxMonteCarloRuns {
		s.runs = maxMonteCarloRuns
	}
	if o.Seed != 0 {
		s.seed = o.Seed
	}
	if o.CacheDuration != nil && *o.CacheDuration >= 0 {
		s.ttl = *o.CacheDuration
	}
	s.useCache = !o.NoCache && s.ttl > 0
	return s
}
