package forecast

import (
	"sort"

	"github.com/recruitops/campaign-insight/internal/dataset"
	"github.com/recruitops/campaign-insight/internal/timeseries"
)

// saturationMultiple caps how far above the highest observed daily spend
// the curve keeps extrapolating linearly. Beyond that point the curve goes
// flat: extreme budgets should not ride an unbounded slope.
const saturationMultiple = 2.0

// CurvePoint is one realized (daily spend, CPAS) observation from a
// historical budget regime.
type CurvePoint struct {
	DailySpend float64 `json:"daily_spend"`
	CPAS       float64 `json:"cpas"`
}

// SpendCurve is the piecewise-linear spend-to-CPAS mapping.
type SpendCurve struct {
	points []CurvePoint // sorted by DailySpend ascending
}

// BuildCurvePoints summarizes each budget regime into a curve point:
// daily spend = regime-window spend / window days, CPAS = spend / applies.
// Both must be positive for the point to be included. The window is
// [start, start + duration_weeks x 7 days).
func BuildCurvePoints(days []timeseries.Day, regimes []dataset.BudgetRegime) []CurvePoint {
	var points []CurvePoint
	for _, reg := range regimes {
		end := reg.EndDate()
		spend, applies := 0.0, 0.0
		found := false
		for _, d := range days {
			if d.Date.Before(reg.StartDate) || !d.Date.Before(end) {
				continue
			}
			spend += d.Spend
			applies += d.ApplyStarts
			found = true
		}
		if !found {
			continue
		}
		windowDays := reg.DurationWeeks * 7
		if windowDays <= 0 || applies <= 0 {
			continue
		}
		dailySpend := spend / float64(windowDays)
		cpas := spend / applies
		if dailySpend > 0 && cpas > 0 {
			points = append(points, CurvePoint{DailySpend: dailySpend, CPAS: cpas})
		}
	}
	return points
}

// NewSpendCurve builds a curve from regime summary points. Returns false
// when fewer than two points exist: the curve is unavailable and the
// caller must fall back to the regression forecaster's CPAS.
func NewSpendCurve(points []CurvePoint) (*SpendCurve, bool) {
	if len(points) < 2 {
		return nil, false
	}
	sorted := append([]CurvePoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DailySpend < sorted[j].DailySpend })
	return &SpendCurve{points: sorted}, true
}

// Evaluate maps a requested daily spend to CPAS: interpolated between the
// bracketing historical points, extrapolated from the two outermost points
// beyond either end. Upward extrapolation saturates at saturationMultiple
// times the highest observed daily spend. The returned value is NOT
// floored here; the assembler applies the minimum-CPAS clamp.
func (c *SpendCurve) Evaluate(dailySpend float64) float64 {
	pts := c.points
	n := len(pts)

	if dailySpend <= pts[0].DailySpend {
		slope := (pts[1].CPAS - pts[0].CPAS) / (pts[1].DailySpend - pts[0].DailySpend)
		return pts[0].CPAS + slope*(dailySpend-pts[0].DailySpend)
	}

	if dailySpend >= pts[n-1].DailySpend {
		if limit := pts[n-1].DailySpend * saturationMultiple; dailySpend > limit {
			dailySpend = limit
		}
		slope := (pts[n-1].CPAS - pts[n-2].CPAS) / (pts[n-1].DailySpend - pts[n-2].DailySpend)
		return pts[n-1].CPAS + slope*(dailySpend-pts[n-1].DailySpend)
	}

	for i := 1; i < n; i++ {
		if dailySpend <= pts[i].DailySpend {
			slope := (pts[i].CPAS - pts[i-1].CPAS) / (pts[i].DailySpend - pts[i-1].DailySpend)
			return pts[i-1].CPAS + slope*(dailySpend-pts[i-1].DailySpend)
		}
	}
	return pts[n-1].CPAS
}
