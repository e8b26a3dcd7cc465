package timeseries

import (
	"sort"
	"time"

	"github.com/recruitops/campaign-insight/internal/dataset"
)

// Day is one day-level aggregate of the event log, annotated with the
// budget regime active that day and the engineered features the
// segmentation and regression stages consume. Request-scoped, rebuilt per
// call, never persisted.
type Day struct {
	Date           time.Time
	Spend          float64
	ApplyStarts    float64
	JobsLive       int
	AvgQuality     float64
	PrevDaySpend   float64
	PrevDayApplies float64
	Regime         *dataset.BudgetRegime // nil when no regime has started yet
	Cluster        int                   // regime cluster label 1..k; 0 before segmentation
}

// CPAS returns the day's cost per apply-start. The second return is false
// when apply-starts is zero: CPAS is undefined for that day and the day is
// excluded from CPAS means.
func (d Day) CPAS() (float64, bool) {
	if d.ApplyStarts <= 0 {
		return 0, false
	}
	return d.Spend / d.ApplyStarts, true
}

// FilterMonth keeps events whose date falls in the given year and month.
func FilterMonth(events []dataset.EventRecord, year int, month time.Month) []dataset.EventRecord {
	var out []dataset.EventRecord
	for _, ev := range events {
		if ev.Date.Year() == year && ev.Date.Month() == month {
			out = append(out, ev)
		}
	}
	return out
}

// BuildDaily aggregates job-level events into per-day totals sorted by
// date: sum of spend and apply-starts across all jobs active that day,
// distinct job count, the as-of budget regime, the flat average quality,
// and previous-day momentum features (0 for the first day).
func BuildDaily(events []dataset.EventRecord, regimes []dataset.BudgetRegime, avgQuality float64) []Day {
	type bucket struct {
		spend   float64
		applies float64
		jobs    map[string]struct{}
	}
	buckets := make(map[time.Time]*bucket)
	for _, ev := range events {
		b, ok := buckets[ev.Date]
		if !ok {
			b = &bucket{jobs: make(map[string]struct{})}
			buckets[ev.Date] = b
		}
		b.spend += ev.Spend
		b.applies += ev.ApplyStarts
		if ev.JobRef != "" {
			b.jobs[ev.JobRef] = struct{}{}
		}
	}

	days := make([]Day, 0, len(buckets))
	for date, b := range buckets {
		days = append(days, Day{
			Date:        date,
			Spend:       b.spend,
			ApplyStarts: b.applies,
			JobsLive:    len(b.jobs),
			AvgQuality:  avgQuality,
			Regime:      RegimeAt(regimes, date),
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	for i := 1; i < len(days); i++ {
		days[i].PrevDaySpend = days[i-1].Spend
		days[i].PrevDayApplies = days[i-1].ApplyStarts
	}

	return days
}

// RegimeAt performs the backward as-of lookup: the regime with the latest
// effective start date at or before the given day, never a future regime.
// Returns nil when no regime has started yet. Regimes must be sorted by
// start date ascending.
func RegimeAt(regimes []dataset.BudgetRegime, date time.Time) *dataset.BudgetRegime {
	// First index with start date AFTER the target day.
	i := sort.Search(len(regimes), func(i int) bool {
		return regimes[i].StartDate.After(date)
	})
	if i == 0 {
		return nil
	}
	return &regimes[i-1]
}

// PacingShares computes, per day-of-month, that day's share of total
// historical spend. Days with no history are absent from the map; callers
// fall back to a uniform share.
func PacingShares(days []Day) map[int]float64 {
	total := 0.0
	for _, d := range days {
		total += d.Spend
	}
	shares := make(map[int]float64, len(days))
	if total <= 0 {
		return shares
	}
	for _, d := range days {
		shares[d.Date.Day()] += d.Spend / total
	}
	return shares
}

// JobStat is one job's totals over a window, used by the impact scenarios.
type JobStat struct {
	JobRef      string
	Spend       float64
	ApplyStarts float64
}

// CPAS returns the job's cost per apply-start; false when undefined.
func (j JobStat) CPAS() (float64, bool) {
	if j.ApplyStarts <= 0 {
		return 0, false
	}
	return j.Spend / j.ApplyStarts, true
}

// BuildJobStats aggregates events per job, restricted to the given dates
// (all events when dates is nil). Jobs are returned in first-seen order so
// the positional quality join is deterministic.
func BuildJobStats(events []dataset.EventRecord, dates map[time.Time]bool) []JobStat {
	index := make(map[string]int)
	var stats []JobStat
	for _, ev := range events {
		if dates != nil && !dates[ev.Date] {
			continue
		}
		i, ok := index[ev.JobRef]
		if !ok {
			i = len(stats)
			index[ev.JobRef] = i
			stats = append(stats, JobStat{JobRef: ev.JobRef})
		}
		stats[i].Spend += ev.Spend
		stats[i].ApplyStarts += ev.ApplyStarts
	}
	return stats
}
