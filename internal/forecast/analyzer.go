package forecast

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

// daysPerMonth is the mean Gregorian month length.
const daysPerMonth = 30.44

// Analysis is the output of one pattern analysis run: the active patterns,
// the signatures that were excluded, and the per-pattern lookup tables used
// by the probability model.
type Analysis struct {
	AsOf                 time.Time
	Patterns             map[string]*model.Pattern
	Skipped              []model.SkippedPattern
	TransactionsAnalyzed int

	tuning  config.Tuning
	order   []string
	aliases map[string]string
	lookups map[string]*lookup
}

// Signatures returns the active pattern signatures in sorted order.
func (a *Analysis) Signatures() []string {
	return a.order
}

// TailOnlyCount returns how many active patterns are tail-only.
func (a *Analysis) TailOnlyCount() int {
	n := 0
	for _, p := range a.Patterns {
		if p.TailOnly {
			n++
		}
	}
	return n
}

// SignatureFor resolves a transaction to the active pattern it belongs to.
func (a *Analysis) SignatureFor(t model.Transaction) (string, bool) {
	key := signatureKey(t.CategoryType, normalizeName(t.Name))
	if canonical, ok := a.aliases[key]; ok {
		key = canonical
	}
	if _, ok := a.Patterns[key]; ok {
		return key, true
	}
	return closestSignature(key, a.order, a.tuning.SignatureMergeDistance)
}

type txGroup struct {
	key   string
	txns  []model.Transaction
	names map[string]int
}

// AnalyzePatterns groups history by transaction signature and builds one
// pattern per recurring signature, as of the given reference date.
func AnalyzePatterns(txns []model.Transaction, asOf time.Time, t config.Tuning) *Analysis {
	t = t.WithDefaults()
	asOf = model.DateOf(asOf)

	a := &Analysis{
		AsOf:     asOf,
		Patterns: make(map[string]*model.Pattern),
		tuning:   t,
		aliases:  make(map[string]string),
		lookups:  make(map[string]*lookup),
	}

	groups := make(map[string]*txGroup)
	capitalReturns := make(map[string]*model.SkippedPattern)

	for _, tx := range txns {
		if tx.Amount == 0 {
			continue
		}
		a.TransactionsAnalyzed++

		norm := normalizeName(tx.Name)
		key := signatureKey(tx.CategoryType, norm)

		if isCapitalReturn(tx.Name, t.CapitalReturnLabels) {
			sp, ok := capitalReturns[key]
			if !ok {
				sp = &model.SkippedPattern{Signature: key, Name: tx.Name, Reason: model.SkipCapitalReturn}
				capitalReturns[key] = sp
			}
			sp.Occurrences++
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &txGroup{key: key, names: make(map[string]int)}
			groups[key] = g
		}
		g.txns = append(g.txns, tx)
		g.names[tx.Name]++
	}

	for _, g := range mergeNearDuplicates(groups, a.aliases, t.SignatureMergeDistance) {
		if g.txns[0].CategoryType == model.Investment && len(g.txns) == 1 {
			a.Skipped = append(a.Skipped, model.SkippedPattern{
				Signature:   g.key,
				Name:        g.txns[0].Name,
				Occurrences: 1,
				Reason:      model.SkipNonRecurrentInvestment,
			})
			continue
		}

		p := buildPattern(g, asOf, t)
		if p == nil {
			continue
		}
		a.Patterns[p.Signature] = p
		a.lookups[p.Signature] = buildLookup(p)
		a.order = append(a.order, p.Signature)
	}

	for _, sp := range capitalReturns {
		a.Skipped = append(a.Skipped, *sp)
	}
	sort.Strings(a.order)
	sort.Slice(a.Skipped, func(i, j int) bool { return a.Skipped[i].Signature < a.Skipped[j].Signature })

	return a
}

func isCapitalReturn(name string, labels []string) bool {
	lower := strings.ToLower(name)
	for _, l := range labels {
		if l != "" && strings.Contains(lower, strings.ToLower(l)) {
			return true
		}
	}
	return false
}

// mergeNearDuplicates folds each group into the largest earlier group of the
// same category type whose normalized name is within maxDistance. Merged keys
// are recorded in aliases.
func mergeNearDuplicates(groups map[string]*txGroup, aliases map[string]string, maxDistance float64) []*txGroup {
	ordered := make([]*txGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].txns) != len(ordered[j].txns) {
			return len(ordered[i].txns) > len(ordered[j].txns)
		}
		return ordered[i].key < ordered[j].key
	})

	var kept []*txGroup
	var keptKeys []string
	byKey := make(map[string]*txGroup)

	for _, g := range ordered {
		if target, ok := closestSignature(g.key, keptKeys, maxDistance); ok {
			dst := byKey[target]
			dst.txns = append(dst.txns, g.txns...)
			for n, c := range g.names {
				dst.names[n] += c
			}
			aliases[g.key] = target
			continue
		}
		kept = append(kept, g)
		keptKeys = append(keptKeys, g.key)
		byKey[g.key] = g
	}

	for _, g := range kept {
		sort.SliceStable(g.txns, func(i, j int) bool { return g.txns[i].Date.Before(g.txns[j].Date) })
	}
	return kept
}

func buildPattern(g *txGroup, asOf time.Time, t config.Tuning) *model.Pattern {
	n := len(g.txns)
	if n == 0 {
		return nil
	}
	first := g.txns[0]
	last := g.txns[n-1]

	var sum, signed float64
	for _, tx := range g.txns {
		sum += math.Abs(tx.Amount)
		signed += tx.Amount
	}
	mean := sum / float64(n)

	var variance float64
	if n > 1 {
		for _, tx := range g.txns {
			d := math.Abs(tx.Amount) - mean
			variance += d * d
		}
		variance /= float64(n - 1)
	}
	std := math.Sqrt(variance)

	months := float64(model.DaysBetween(first.Date, asOf)+1) / daysPerMonth
	if months < 1 {
		months = 1
	}
	rate := float64(n) / months
	if rate <= 0 {
		return nil
	}

	p := &model.Pattern{
		Signature:              g.key,
		CategoryType:           first.CategoryType,
		CategoryName:           first.CategoryName,
		ParentCategoryName:     first.ParentCategoryName,
		TransactionName:        dominantName(g.names),
		Occurrences:            n,
		AvgAmount:              mean,
		StdDev:                 std,
		Direction:              1,
		AvgOccurrencesPerMonth: rate,
		DayOfWeekProb:          make(map[int]float64),
		DayOfMonthProb:         make(map[int]float64),
		FirstOccurrence:        first.Date,
		LastOccurrence:         last.Date,
	}
	if mean > 0 {
		p.CoefficientOfVariation = std / mean
	}
	if signed < 0 {
		p.Direction = -1
	}

	monthsSeen := make(map[string]struct{})
	share := 1 / float64(n)
	for _, tx := range g.txns {
		p.DayOfWeekProb[int(tx.Date.Weekday())] += share
		p.DayOfMonthProb[tx.Date.Day()] += share
		monthsSeen[tx.Date.Format(model.MonthLayout)] = struct{}{}
	}
	p.MonthsActive = len(monthsSeen)

	switch {
	case rate >= t.DailyMinRate:
		p.PatternType = model.Daily
	case rate >= t.WeeklyMinRate:
		p.PatternType = model.Weekly
	case rate >= t.MonthlyMinRate:
		p.PatternType = model.Monthly
	default:
		p.PatternType = model.Sporadic
	}

	ranked := rankDays(p.DayOfMonthProb)
	if p.PatternType == model.Monthly {
		top := ranked
		if len(top) > t.MostLikelyDays {
			top = top[:t.MostLikelyDays]
		}
		p.MostLikelyDaysOfMonth = append([]model.DayShare(nil), top...)
		p.DominantDayCluster = dominantCluster(p.DayOfMonthProb, ranked, t.ClusterRadiusDays, t.ClusterMinMass)
	}

	if p.PatternType == model.Sporadic {
		topShare := 0.0
		if len(ranked) > 0 {
			topShare = ranked[0].Share
		}
		p.TailOnly = n < t.TailMinOccurrences ||
			p.CoefficientOfVariation > t.TailMaxCV ||
			topShare < t.TailMinDayShare
	}

	return p
}

func dominantName(names map[string]int) string {
	best, bestCount := "", -1
	for name, c := range names {
		if c > bestCount || (c == bestCount && name < best) {
			best, bestCount = name, c
		}
	}
	return best
}

// rankDays orders days of month by share, highest first, earliest day on ties.
func rankDays(shares map[int]float64) []model.DayShare {
	out := make([]model.DayShare, 0, len(shares))
	for d, s := range shares {
		out = append(out, model.DayShare{Day: d, Share: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// dominantCluster grows a set of nearby days from the peak day. The cluster
// is only reported when it carries at least minMass of the occurrences.
func dominantCluster(shares map[int]float64, ranked []model.DayShare, radius int, minMass float64) []int {
	if len(ranked) == 0 {
		return nil
	}
	members := map[int]bool{ranked[0].Day: true}
	mass := ranked[0].Share

	for changed := true; changed; {
		changed = false
		for day := 1; day <= 31; day++ {
			if members[day] || shares[day] <= 0 {
				continue
			}
			for m := range members {
				if abs(day-m) <= radius {
					members[day] = true
					mass += shares[day]
					changed = true
					break
				}
			}
		}
	}

	if mass < minMass-1e-9 {
		return nil
	}
	days := make([]int, 0, len(members))
	for d := range members {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
