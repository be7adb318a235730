package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

// Config holds the forecaster's defaults and collaborators.
type Config struct {
	Tuning         config.Tuning
	HistoryMonths  int
	ForecastMonths int
	IncludeToday   bool
	MonteCarloRuns int
	Seed           int64
	CacheTTL       time.Duration
	Logger         logrus.FieldLogger
	Now            func() time.Time
}

// ConfigFrom maps the application config onto forecaster defaults.
func ConfigFrom(cfg config.Config, logger logrus.FieldLogger) Config {
	return Config{
		Tuning:         cfg.Forecast,
		HistoryMonths:  cfg.General.HistoryMonths,
		ForecastMonths: cfg.General.ForecastMonths,
		IncludeToday:   cfg.General.IncludeToday,
		MonteCarloRuns: cfg.General.MonteCarloRuns,
		Seed:           cfg.General.Seed,
		CacheTTL:       time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Logger:         logger,
	}
}

// Forecaster drives the full pipeline over a repository.
type Forecaster struct {
	repo  Repository
	cfg   Config
	log   logrus.FieldLogger
	cache *resultCache
}

// New creates a forecaster. Zero-valued config fields take defaults; an
// entirely zero Tuning means the stock constants, including the spacing
// values that are otherwise allowed to be zero.
func New(repo Repository, cfg Config) *Forecaster {
	if cfg.Tuning.IsZero() {
		cfg.Tuning = config.DefaultTuning()
	}
	cfg.Tuning = cfg.Tuning.WithDefaults()
	if cfg.ForecastMonths < 1 {
		cfg.ForecastMonths = 1
	}
	if cfg.HistoryMonths < 0 {
		cfg.HistoryMonths = 0
	}
	if cfg.MonteCarloRuns < 0 {
		cfg.MonteCarloRuns = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		cfg.Logger = l
	}
	return &Forecaster{
		repo:  repo,
		cfg:   cfg,
		log:   cfg.Logger.WithField("component", "forecast"),
		cache: newResultCache(),
	}
}

// Tuning returns the effective forecast constants.
func (f *Forecaster) Tuning() config.Tuning {
	return f.cfg.Tuning
}

func (f *Forecaster) today() time.Time {
	return model.DateOf(f.cfg.Now())
}

// GenerateDailyForecast computes the forecast window for opts, serving a
// cached result when one exists for the same effective options.
func (f *Forecaster) GenerateDailyForecast(ctx context.Context, opts Options) (*model.ForecastResult, error) {
	return f.window(ctx, f.resolve(opts))
}

func (f *Forecaster) window(ctx context.Context, s settings) (*model.ForecastResult, error) {
	key := "window|" + s.key()
	if s.useCache {
		if v, ok := f.cache.get(key, f.cfg.Now()); ok {
			f.log.WithField("key", key).Debug("forecast cache hit")
			return v.(*model.ForecastResult), nil
		}
	}

	res, err := f.generate(ctx, s)
	if err != nil {
		return nil, err
	}
	if s.useCache {
		f.cache.put(key, res, s.ttl, f.cfg.Now())
	}
	return res, nil
}

// GetForecast computes the forecast window plus the budget outlook and the
// per-category forecast map.
func (f *Forecaster) GetForecast(ctx context.Context, opts Options) (*model.FullForecast, error) {
	s := f.resolve(opts)
	key := "full|" + s.key()
	if s.useCache {
		if v, ok := f.cache.get(key, f.cfg.Now()); ok {
			return v.(*model.FullForecast), nil
		}
	}

	res, err := f.window(ctx, s)
	if err != nil {
		return nil, err
	}
	categories, err := f.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	full := &model.FullForecast{
		ForecastResult:     res,
		ForecastByCategory: forecastByCategory(res, categories),
	}
	full.BudgetOutlook, full.BudgetSummary = f.BuildBudgetOutlook(ctx, res)

	if s.useCache {
		f.cache.put(key, full, s.ttl, f.cfg.Now())
	}
	return full, nil
}

func (f *Forecaster) generate(ctx context.Context, s settings) (*model.ForecastResult, error) {
	started := time.Now()
	history, since, fallback, err := f.loadHistory(ctx, s.today, s.historyMonths)
	if err != nil {
		return nil, err
	}

	current, err := f.repo.MonthTransactions(ctx, model.MonthStart(s.today))
	if err != nil {
		return nil, fmt.Errorf("loading current month transactions: %w", err)
	}

	analysis := AnalyzePatterns(history, s.today, f.cfg.Tuning)
	adj := AdjustForCurrentMonth(analysis, current, s.today)

	start, end := s.window()
	days := make([]model.DailyForecast, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, ForecastDay(d, analysis, adj))
	}
	days = ResolveMonthlyOccurrences(days, analysis.Patterns, adj, f.cfg.Tuning)

	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mc := RunMonteCarlo(days, s.runs, rand.New(rand.NewSource(seed)))

	scenarios := map[string]*model.ScenarioResult{ScenarioBase: mc.Base}
	if mc.Worst != nil {
		scenarios[ScenarioP10] = mc.Worst
		scenarios[ScenarioP50] = mc.Median
		scenarios[ScenarioP90] = mc.Best
	}

	res := &model.ForecastResult{
		ID:                 uuid.NewString(),
		GeneratedAt:        f.cfg.Now(),
		StartDate:          start,
		EndDate:            end,
		Days:               days,
		Totals:             mc.Base.Totals,
		Scenarios:          scenarios,
		MonteCarlo:         mc,
		Patterns:           analysis.Patterns,
		Skipped:            analysis.Skipped,
		MonthlyAdjustments: adj.BySignature,
		AnalysisInfo: model.AnalysisInfo{
			TransactionsAnalyzed:     analysis.TransactionsAnalyzed,
			CurrentMonthTransactions: len(current),
			PatternsFound:            len(analysis.Patterns),
			TailOnlyPatterns:         analysis.TailOnlyCount(),
			SkippedPatterns:          len(analysis.Skipped),
			HistorySince:             since,
			HistoryMonths:            s.historyMonths,
			UsedFullHistoryFallback:  fallback,
			MonteCarloRuns:           mc.NumSimulations,
		},
	}

	f.log.WithFields(logrus.Fields{
		"id":           res.ID,
		"days":         len(days),
		"patterns":     len(analysis.Patterns),
		"transactions": analysis.TransactionsAnalyzed,
		"runs":         mc.NumSimulations,
		"elapsed":      time.Since(started).String(),
	}).Info("forecast generated")
	return res, nil
}

// loadHistory loads transactions since today-historyMonths. When that bounded
// window is empty it retries with all history and reports no lower bound.
func (f *Forecaster) loadHistory(ctx context.Context, today time.Time, historyMonths int) ([]model.Transaction, *time.Time, bool, error) {
	var since *time.Time
	if historyMonths > 0 {
		s := today.AddDate(0, -historyMonths, 0)
		since = &s
	}

	txns, err := f.repo.Transactions(ctx, since)
	if err != nil {
		return nil, nil, false, fmt.Errorf("loading transactions: %w", err)
	}

	fallback := false
	if len(txns) == 0 && since != nil {
		f.log.WithField("history_months", historyMonths).Info("no transactions in history window, using all history")
		txns, err = f.repo.Transactions(ctx, nil)
		if err != nil {
			return nil, nil, false, fmt.Errorf("loading transactions: %w", err)
		}
		since = nil
		fallback = true
	}
	if len(txns) == 0 {
		return nil, nil, fallback, ErrNoTransactions
	}
	return txns, since, fallback, nil
}

// forecastByCategory totals expected amounts per category across the window.
func forecastByCategory(res *model.ForecastResult, categories []model.Category) map[string]model.CategoryForecast {
	meta := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		meta[c.Name] = c
	}

	out := make(map[string]model.CategoryForecast)
	for _, p := range res.Patterns {
		cf, ok := out[p.CategoryName]
		if !ok {
			cf = model.CategoryForecast{CategoryName: p.CategoryName, CategoryType: p.CategoryType}
			if c, ok := meta[p.CategoryName]; ok {
				cf.Icon, cf.Color = c.Icon, c.Color
			}
		}
		cf.PatternCount++
		out[p.CategoryName] = cf
	}

	for _, d := range res.Days {
		for _, pr := range d.Predictions {
			if pr.WeightedAmount <= 0 {
				continue
			}
			cf := out[pr.CategoryName]
			cf.Expected += pr.WeightedAmount
			if cf.NextLikelyDay == nil && (pr.IsChosenOccurrence || pr.Probability >= 0.5) {
				date := d.Date
				cf.NextLikelyDay = &date
			}
			out[pr.CategoryName] = cf
		}
	}
	return out
}

// sortedCategoryNames returns map keys in a stable order.
func sortedCategoryNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
