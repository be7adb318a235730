// Package daemon provides the long-running forecast refresh service and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventDelta       = "forecast_delta"
	EventBudgetAlert = "budget_alert"
)

// Forecaster is the part of the forecast engine the daemon serves.
type Forecaster interface {
	GetForecast(ctx context.Context, opts forecast.Options) (*model.FullForecast, error)
	Invalidate()
}

// Notifier delivers budget alerts.
type Notifier interface {
	Enabled() bool
	SendBudgetAlert(month string, rows []model.BudgetOutlookRow) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	RefreshCron  string
	EventsBuffer int
	Options      forecast.Options
	Logger       logrus.FieldLogger
	Now          func() time.Time
}

// Snapshot is a compact forecast state for status/event payloads.
type Snapshot struct {
	At         time.Time           `json:"at"`
	ForecastID string              `json:"forecast_id"`
	StartDate  time.Time           `json:"start_date"`
	EndDate    time.Time           `json:"end_date"`
	Income     float64             `json:"income"`
	Expenses   float64             `json:"expenses"`
	Investment float64             `json:"investments"`
	Net        float64             `json:"net"`
	P10Net     float64             `json:"p10_net"`
	P50Net     float64             `json:"p50_net"`
	P90Net     float64             `json:"p90_net"`
	Patterns   int                 `json:"patterns"`
	Budgets    model.BudgetSummary `json:"budgets"`
}

// Delta captures expected-value changes between refreshes. Percentile nets
// are left out because unseeded runs vary between refreshes.
type Delta struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Patterns int     `json:"patterns"`
	Exceeded int     `json:"exceeded"`
	AtRisk   int     `json:"at_risk"`
}

const centEpsilon = 0.005

func (d Delta) isZero() bool {
	return math.Abs(d.Income) < centEpsilon &&
		math.Abs(d.Expenses) < centEpsilon &&
		math.Abs(d.Net) < centEpsilon &&
		d.Patterns == 0 &&
		d.Exceeded == 0 &&
		d.AtRisk == 0
}

// BudgetTransition is a category whose status worsened since the last refresh.
type BudgetTransition struct {
	Category       string             `json:"category"`
	From           model.BudgetStatus `json:"from"`
	To             model.BudgetStatus `json:"to"`
	ProjectedTotal float64            `json:"projected_total"`
	Limit          *float64           `json:"limit,omitempty"`
}

// Event is emitted whenever the forecast snapshot changes.
type Event struct {
	ID          int64              `json:"id"`
	Type        string             `json:"type"`
	Timestamp   time.Time          `json:"timestamp"`
	Snapshot    Snapshot           `json:"snapshot"`
	Delta       Delta              `json:"delta"`
	Transitions []BudgetTransition `json:"transitions,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRefreshAt   time.Time `json:"last_refresh_at"`
	RefreshSchedule string    `json:"refresh_schedule"`
	RefreshCount    int64     `json:"refresh_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	AlertsSent      int64     `json:"alerts_sent"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg        Config
	forecaster Forecaster
	notifier   Notifier
	log        logrus.FieldLogger

	refreshMu sync.Mutex

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	alertsSent    int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	month         string
	statuses      map[string]model.BudgetStatus
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service over f. notifier may be nil.
func New(f Forecaster, notifier Notifier, cfg Config) *Service {
	if cfg.RefreshCron == "" {
		cfg.RefreshCron = "@every 15m"
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Service{
		cfg:        cfg,
		forecaster: f,
		notifier:   notifier,
		log:        cfg.Logger.WithField("component", "daemon"),
		startedAt:  cfg.Now(),
		statuses:   make(map[string]model.BudgetStatus),
		subs:       make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and the refresh schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(s.cfg.RefreshCron, func() { s.Refresh(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.Refresh(ctx)
	scheduler.Start()
	defer scheduler.Stop()

	s.log.Infof("listening on %s, refreshing %s", s.cfg.Addr, s.cfg.RefreshCron)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Refresh recomputes the forecast, publishes events for changes and sends
// alerts for budgets that moved into at-risk or exceeded.
func (s *Service) Refresh(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	opts := s.cfg.Options
	opts.NoCache = true
	full, err := s.forecaster.GetForecast(ctx, opts)
	now := s.cfg.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastRefreshAt = now
		s.refreshCount++
		s.mu.Unlock()
		s.log.WithError(err).Error("forecast refresh failed")
		return
	}

	snap := snapshotFromForecast(full, now)
	month := model.MonthStart(now).Format(model.MonthLayout)

	var events []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot
	if s.month != month {
		s.statuses = make(map[string]model.BudgetStatus)
	}
	transitions, alertRows := budgetTransitions(s.statuses, full.BudgetOutlook)
	if !prevExists {
		transitions, alertRows = nil, nil
	}

	s.hasSnapshot = true
	s.snapshot = snap
	s.month = month
	s.statuses = statusMap(full.BudgetOutlook)
	s.lastRefreshAt = now
	s.refreshCount++
	s.lastError = ""

	delta := diffSnapshots(prev, snap)
	switch {
	case !prevExists:
		events = append(events, s.newEventLocked(EventSnapshot, now, snap, Delta{}, nil))
	case !delta.isZero():
		events = append(events, s.newEventLocked(EventDelta, now, snap, delta, nil))
	}
	if len(transitions) > 0 {
		events = append(events, s.newEventLocked(EventBudgetAlert, now, snap, delta, transitions))
	}
	s.mu.Unlock()

	if prevExists && !delta.isZero() {
		s.forecaster.Invalidate()
	}
	for _, ev := range events {
		s.publishEvent(ev)
	}
	if len(alertRows) > 0 {
		s.sendAlert(month, alertRows)
	}
}

func (s *Service) newEventLocked(typ string, at time.Time, snap Snapshot, delta Delta, tr []BudgetTransition) Event {
	s.nextEventID++
	return Event{
		ID:          s.nextEventID,
		Type:        typ,
		Timestamp:   at,
		Snapshot:    snap,
		Delta:       delta,
		Transitions: tr,
	}
}

func (s *Service) sendAlert(month string, rows []model.BudgetOutlookRow) {
	if s.notifier == nil || !s.notifier.Enabled() {
		s.log.Debugf("budget alert for %s not mailed: notifications disabled", month)
		return
	}
	if err := s.notifier.SendBudgetAlert(month, rows); err != nil {
		s.log.WithError(err).Warn("sending budget alert failed")
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.alertsSent++
	s.mu.Unlock()
}

func snapshotFromForecast(full *model.FullForecast, at time.Time) Snapshot {
	snap := Snapshot{
		At:         at,
		ForecastID: full.ID,
		StartDate:  full.StartDate,
		EndDate:    full.EndDate,
		Income:     full.Totals.Income,
		Expenses:   full.Totals.Expenses,
		Investment: full.Totals.Investments,
		Net:        full.Totals.Net,
		P10Net:     full.Totals.Net,
		P50Net:     full.Totals.Net,
		P90Net:     full.Totals.Net,
		Patterns:   len(full.Patterns),
		Budgets:    full.BudgetSummary,
	}
	if mc := full.MonteCarlo; mc.Worst != nil {
		snap.P10Net = mc.Worst.Totals.Net
		snap.P50Net = mc.Median.Totals.Net
		snap.P90Net = mc.Best.Totals.Net
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Income:   curr.Income - prev.Income,
		Expenses: curr.Expenses - prev.Expenses,
		Net:      curr.Net - prev.Net,
		Patterns: curr.Patterns - prev.Patterns,
		Exceeded: curr.Budgets.Exceeded - prev.Budgets.Exceeded,
		AtRisk:   curr.Budgets.AtRisk - prev.Budgets.AtRisk,
	}
}

// budgetTransitions returns the rows whose status worsened into at-risk or
// exceeded relative to prev. Categories absent from prev count as on track.
func budgetTransitions(prev map[string]model.BudgetStatus, rows []model.BudgetOutlookRow) ([]BudgetTransition, []model.BudgetOutlookRow) {
	var out []BudgetTransition
	var alertRows []model.BudgetOutlookRow
	for _, r := range rows {
		from := prev[r.CategoryName]
		if r.Status == model.OnTrack || r.Status <= from {
			continue
		}
		out = append(out, BudgetTransition{
			Category:       r.CategoryName,
			From:           from,
			To:             r.Status,
			ProjectedTotal: r.ProjectedTotal,
			Limit:          r.Limit,
		})
		alertRows = append(alertRows, r)
	}
	return out, alertRows
}

func statusMap(rows []model.BudgetOutlookRow) map[string]model.BudgetStatus {
	m := make(map[string]model.BudgetStatus, len(rows))
	for _, r := range rows {
		m[r.CategoryName] = r.Status
	}
	return m
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Status returns the current runtime status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastRefreshAt:   s.lastRefreshAt,
		RefreshSchedule: s.cfg.RefreshCron,
		RefreshCount:    s.refreshCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
		AlertsSent:      s.alertsSent,
	}
}

// Router returns the HTTP API.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	get := func(path string, h http.HandlerFunc) {
		r.HandleFunc(path, h).Methods(http.MethodGet)
	}
	get("/healthz", s.handleHealth)
	get("/v1/status", s.handleStatus)
	get("/v1/forecast", s.handleForecast)
	get("/v1/budgets", s.handleBudgets)
	get("/v1/patterns", s.handlePatterns)
	get("/v1/events", s.handleEvents)
	get("/v1/stream", s.handleStream)
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

// BudgetsReport is served at /v1/budgets.
type BudgetsReport struct {
	Month   string                   `json:"month"`
	Summary model.BudgetSummary      `json:"summary"`
	Rows    []model.BudgetOutlookRow `json:"rows"`
}

// patternsResponse is served at /v1/patterns.
type patternsResponse struct {
	Patterns []*model.Pattern       `json:"patterns"`
	Skipped  []model.SkippedPattern `json:"skipped"`
}

func (s *Service) forecastFor(w http.ResponseWriter, r *http.Request) (*model.FullForecast, bool) {
	full, err := s.forecaster.GetForecast(r.Context(), s.requestOptions(r))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, forecast.ErrNoTransactions) {
			status = http.StatusNotFound
		}
		s.log.WithError(err).WithField("path", r.URL.Path).Warn("forecast request failed")
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return nil, false
	}
	return full, true
}

// requestOptions overlays query parameters on the daemon's default options.
func (s *Service) requestOptions(r *http.Request) forecast.Options {
	q := forecast.ParseOptions(r.URL.Query())
	o := s.cfg.Options
	if q.IncludeToday != nil {
		o.IncludeToday = q.IncludeToday
	}
	if q.ForecastDays != nil {
		o.ForecastDays = q.ForecastDays
	}
	if q.ForecastMonths > 0 {
		o.ForecastMonths = q.ForecastMonths
	}
	if q.HistoryMonths != nil {
		o.HistoryMonths = q.HistoryMonths
	}
	if q.MonteCarloRuns != nil {
		o.MonteCarloRuns = q.MonteCarloRuns
	}
	if q.Seed != 0 {
		o.Seed = q.Seed
	}
	if q.CacheDuration != nil {
		o.CacheDuration = q.CacheDuration
	}
	o.NoCache = o.NoCache || q.NoCache
	return o
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	full, ok := s.forecastFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, full)
}

func (s *Service) handleBudgets(w http.ResponseWriter, r *http.Request) {
	full, ok := s.forecastFor(w, r)
	if !ok {
		return
	}
	rows := full.BudgetOutlook
	if rows == nil {
		rows = []model.BudgetOutlookRow{}
	}
	writeJSON(w, http.StatusOK, BudgetsReport{
		Month:   model.MonthStart(s.cfg.Now()).Format(model.MonthLayout),
		Summary: full.BudgetSummary,
		Rows:    rows,
	})
}

func (s *Service) handlePatterns(w http.ResponseWriter, r *http.Request) {
	full, ok := s.forecastFor(w, r)
	if !ok {
		return
	}
	resp := patternsResponse{
		Patterns: make([]*model.Pattern, 0, len(full.Patterns)),
		Skipped:  full.Skipped,
	}
	for _, p := range full.Patterns {
		resp.Patterns = append(resp.Patterns, p)
	}
	sort.Slice(resp.Patterns, func(i, j int) bool {
		return resp.Patterns[i].Signature < resp.Patterns[j].Signature
	})
	if resp.Skipped == nil {
		resp.Skipped = []model.SkippedPattern{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.Status().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
