package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops/campaign-insight/internal/dataset"
	"github.com/recruitops/campaign-insight/internal/timeseries"
)

func TestBuildCurvePoints(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	regimes := []dataset.BudgetRegime{
		{StartDate: start, Budget: 70000, DurationWeeks: 1},
		{StartDate: start.AddDate(0, 0, 7), Budget: 140000, DurationWeeks: 1},
	}
	var days []timeseries.Day
	for d := 0; d < 14; d++ {
		spend := 1000.0
		if d >= 7 {
			spend = 2000.0
		}
		days = append(days, timeseries.Day{
			Date:        start.AddDate(0, 0, d),
			Spend:       spend,
			ApplyStarts: 100,
		})
	}

	points := BuildCurvePoints(days, regimes)
	require.Len(t, points, 2)
	assert.InDelta(t, 1000, points[0].DailySpend, 1e-9)
	assert.InDelta(t, 10, points[0].CPAS, 1e-9)
	assert.InDelta(t, 2000, points[1].DailySpend, 1e-9)
	assert.InDelta(t, 20, points[1].CPAS, 1e-9)
}

func TestBuildCurvePointsSkipsEmptyRegimes(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	regimes := []dataset.BudgetRegime{
		{StartDate: start, Budget: 70000, DurationWeeks: 1},
		{StartDate: start.AddDate(0, 1, 0), Budget: 140000, DurationWeeks: 1}, // no days in window
	}
	days := []timeseries.Day{{Date: start, Spend: 500, ApplyStarts: 50}}

	points := BuildCurvePoints(days, regimes)
	require.Len(t, points, 1)
}

func TestNewSpendCurveNeedsTwoPoints(t *testing.T) {
	_, ok := NewSpendCurve([]CurvePoint{{DailySpend: 1000, CPAS: 10}})
	assert.False(t, ok)

	_, ok = NewSpendCurve(nil)
	assert.False(t, ok)
}

func TestEvaluateExactAtKnots(t *testing.T) {
	curve, ok := NewSpendCurve([]CurvePoint{
		{DailySpend: 1000, CPAS: 10},
		{DailySpend: 2000, CPAS: 14},
		{DailySpend: 3000, CPAS: 13},
	})
	require.True(t, ok)

	assert.InDelta(t, 10, curve.Evaluate(1000), 1e-9)
	assert.InDelta(t, 14, curve.Evaluate(2000), 1e-9)
	assert.InDelta(t, 13, curve.Evaluate(3000), 1e-9)
}

func TestEvaluateInterpolates(t *testing.T) {
	curve, ok := NewSpendCurve([]CurvePoint{
		{DailySpend: 1000, CPAS: 10},
		{DailySpend: 2000, CPAS: 20},
	})
	require.True(t, ok)

	assert.InDelta(t, 15, curve.Evaluate(1500), 1e-9)
}

func TestEvaluateExtrapolatesBelow(t *testing.T) {
	curve, ok := NewSpendCurve([]CurvePoint{
		{DailySpend: 1000, CPAS: 10},
		{DailySpend: 2000, CPAS: 20},
	})
	require.True(t, ok)

	// Slope 0.01 continues downward below the lowest point.
	assert.InDelta(t, 5, curve.Evaluate(500), 1e-9)
}

func TestEvaluateSaturatesAbove(t *testing.T) {
	curve, ok := NewSpendCurve([]CurvePoint{
		{DailySpend: 1000, CPAS: 10},
		{DailySpend: 2000, CPAS: 20},
	})
	require.True(t, ok)

	// Linear up to twice the max observed daily spend.
	assert.InDelta(t, 30, curve.Evaluate(3000), 1e-9)
	assert.InDelta(t, 40, curve.Evaluate(4000), 1e-9)

	// Beyond the saturation point the curve is flat.
	assert.InDelta(t, 40, curve.Evaluate(8000), 1e-9)
	assert.InDelta(t, 40, curve.Evaluate(1e9), 1e-9)
}
