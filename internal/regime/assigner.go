// Package regime segments historical days into behavioral regimes and
// assigns regimes to forecast dates.
//
// Two deliberately different strategies coexist: HistoricalAssigner labels
// past days from data-driven clustering, while ForecastAssigner buckets
// future days by calendar week, because the cluster membership of a day
// that has not happened yet is unknowable. Keeping them as two named types
// makes the divergence visible and testable instead of implicit.
package regime

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/recruitops/campaign-insight/internal/timeseries"
)

// Segmentation is the clustering output for a set of historical days.
type Segmentation struct {
	K      int   // number of clusters actually fitted
	Labels []int // regime label 1..K per input day, aligned by index
}

// SegmentHistory clusters daily aggregates into k regimes using the
// engineered features {spend, apply_starts, jobs_live, avg_quality,
// prev_day_spend, prev_day_applies}. k is auto-selected in [2,6] by
// silhouette score, ties broken toward the lowest k; initialization is
// seeded so the assignment is deterministic for a given dataset.
func SegmentHistory(days []timeseries.Day) (*Segmentation, error) {
	if len(days) < minClusters+1 {
		return nil, fmt.Errorf("need at least %d days to segment, have %d", minClusters+1, len(days))
	}

	points := make([][]float64, len(days))
	for i, d := range days {
		points[i] = featureVector(d)
	}

	rng := rand.New(rand.NewSource(clusterSeed))
	bestK, bestScore := minClusters, math.Inf(-1)
	for k := minClusters; k <= maxClusters && k < len(points); k++ {
		res := fitKMeans(points, k, rng)
		score := silhouetteScore(points, res.labels, k)
		if score > bestScore {
			bestScore, bestK = score, k
		}
	}

	// Refit with the winning k and a fresh seeded source so the final
	// labels do not depend on how many candidate values were evaluated.
	final := fitKMeans(points, bestK, rand.New(rand.NewSource(clusterSeed)))

	labels := make([]int, len(final.labels))
	for i, l := range final.labels {
		labels[i] = l + 1
	}
	return &Segmentation{K: bestK, Labels: labels}, nil
}

func featureVector(d timeseries.Day) []float64 {
	features := []float64{
		d.Spend,
		d.ApplyStarts,
		float64(d.JobsLive),
		d.AvgQuality,
		d.PrevDaySpend,
		d.PrevDayApplies,
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			features[i] = 0
		}
	}
	return features
}

// HistoricalAssigner answers regime membership for historical days from
// the clustering output.
type HistoricalAssigner struct {
	seg   *Segmentation
	byDay map[time.Time]int
}

// NewHistoricalAssigner stamps cluster labels onto the given days (in
// place) and indexes them by date.
func NewHistoricalAssigner(days []timeseries.Day, seg *Segmentation) *HistoricalAssigner {
	byDay := make(map[time.Time]int, len(days))
	for i := range days {
		days[i].Cluster = seg.Labels[i]
		byDay[days[i].Date] = seg.Labels[i]
	}
	return &HistoricalAssigner{seg: seg, byDay: byDay}
}

// K returns the fitted cluster count.
func (a *HistoricalAssigner) K() int { return a.seg.K }

// Assign returns the clustered regime of a historical day; false when the
// day was not part of the training data.
func (a *HistoricalAssigner) Assign(date time.Time) (int, bool) {
	r, ok := a.byDay[date]
	return r, ok
}

// ForecastAssigner assigns regimes to forecast dates by calendar-week
// bucket: day-of-month 1-7 is regime 1, 8-14 regime 2, 15-21 regime 3,
// 22-28 regime 4. Days 29-31 match no bucket and are dropped from the
// prediction.
type ForecastAssigner struct{}

// Assign returns the calendar-week regime for a target date; false for
// days past the 28th.
func (ForecastAssigner) Assign(date time.Time) (int, bool) {
	day := date.Day()
	if day > 28 {
		return 0, false
	}
	return (day-1)/7 + 1, true
}
