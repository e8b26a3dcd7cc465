package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitops/campaign-insight/internal/dataset"
)

func TestJobImpact(t *testing.T) {
	svc := testService()

	res, err := svc.JobImpact(ImpactRequest{Budget: 100000, DurationWeeks: 2, ApplyStartGoal: 5000})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.OverallQualityScore, 0.0)
	assert.LessOrEqual(t, res.OverallQualityScore, 100.0)

	// Perfect quality must never project worse than current quality.
	assert.LessOrEqual(t, res.CPASIfPerfectQuality, res.CPASCurrent)
	assert.Greater(t, res.ASCurrent, 0)
	assert.Greater(t, res.ASIfPerfectQuality, 0)

	assert.GreaterOrEqual(t, res.OptimalJobCount, 1)
	assert.NotEmpty(t, res.OptimalJobCountReason)
	assert.GreaterOrEqual(t, res.Confidence, 0.92)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.Greater(t, res.AvgApplyStartsPerJob, 0.0)
}

func TestJobImpactMapsDatesOntoReferenceMonth(t *testing.T) {
	svc := testService()
	start := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC)

	res, err := svc.JobImpact(ImpactRequest{Budget: 100000, DurationWeeks: 1, ApplyStartGoal: 2000, StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Greater(t, res.ASCurrent, 0)
}

func TestJobImpactNoData(t *testing.T) {
	snap := &dataset.Snapshot{
		ReferenceMonth: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := NewService(testEstimatorConfig(), dataset.NewStore(snap))

	_, err := svc.JobImpact(ImpactRequest{Budget: 100000, DurationWeeks: 2, ApplyStartGoal: 5000})
	assert.Error(t, err)
}

func TestMappedDays(t *testing.T) {
	svc := testService()
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// No dates: duration weeks from day 1, floored at the minimum window.
	days := svc.mappedDays(ImpactRequest{DurationWeeks: 2}, ref)
	require.Len(t, days, 14)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), days[13])

	// Dates: start day-of-month is preserved, window truncated at day 30.
	start := time.Date(2025, 9, 25, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)
	days = svc.mappedDays(ImpactRequest{StartDate: &start, EndDate: &end}, ref)
	require.Len(t, days, 6)
	assert.Equal(t, time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), days[5])
}
