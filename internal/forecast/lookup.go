package forecast

import "github.com/theirongolddev/cashcast/internal/model"

// lookup holds per-pattern tables precomputed once per analysis so the
// per-day probability evaluation is O(1). Tables indexed by month length
// use index monthLen-28, and fold shares of days beyond the month's last
// day onto that last day.
type lookup struct {
	weekday [7]float64
	dom     [4][32]float64
	peakDay [4]int

	hasCluster bool
	inCluster  [4][32]bool
	outlier    [4][32]bool
	clusterMax int
}

func buildLookup(p *model.Pattern) *lookup {
	lk := &lookup{}
	for wd, s := range p.DayOfWeekProb {
		if wd >= 0 && wd < 7 {
			lk.weekday[wd] = s
		}
	}

	cluster := make(map[int]bool, len(p.DominantDayCluster))
	for _, d := range p.DominantDayCluster {
		cluster[d] = true
		if d > lk.clusterMax {
			lk.clusterMax = d
		}
	}
	lk.hasCluster = len(cluster) > 0

	for li := 0; li < 4; li++ {
		monthLen := 28 + li
		for day, s := range p.DayOfMonthProb {
			if day < 1 || day > 31 {
				continue
			}
			d := clampDay(day, monthLen)
			lk.dom[li][d] += s
			if cluster[day] {
				lk.inCluster[li][d] = true
			}
		}
		if lk.hasCluster {
			for d := 1; d <= monthLen; d++ {
				lk.outlier[li][d] = lk.dom[li][d] > 0 && !lk.inCluster[li][d]
			}
		}

		best := 0
		for d := 1; d <= monthLen; d++ {
			if lk.dom[li][d] > lk.dom[li][best] {
				best = d
			}
		}
		lk.peakDay[li] = best
	}
	return lk
}

func clampDay(day, monthLen int) int {
	if day > monthLen {
		return monthLen
	}
	return day
}

func monthIndex(monthLen int) int {
	return monthLen - 28
}

// domShare is the pattern's day-of-month share for day in a month of monthLen days.
func (lk *lookup) domShare(monthLen, day int) float64 {
	return lk.dom[monthIndex(monthLen)][clampDay(day, monthLen)]
}

// isOutlierDay reports whether day has history but lies outside the dominant cluster.
func (lk *lookup) isOutlierDay(monthLen, day int) bool {
	return lk.hasCluster && lk.outlier[monthIndex(monthLen)][clampDay(day, monthLen)]
}

// latestExpectedDay is the last day in a month of monthLen days on which the
// pattern is expected: the end of its dominant cluster, else its peak day.
func (lk *lookup) latestExpectedDay(monthLen int) int {
	if lk.hasCluster {
		return clampDay(lk.clusterMax, monthLen)
	}
	return lk.peakDay[monthIndex(monthLen)]
}
