package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonalityFactorTable(t *testing.T) {
	assert.Equal(t, 0.90, SeasonalityFactor(time.January))
	assert.Equal(t, 1.00, SeasonalityFactor(time.June))
	assert.Equal(t, 1.10, SeasonalityFactor(time.August))
	assert.Equal(t, 0.80, SeasonalityFactor(time.December))
}

func TestSeasonalityFactorUnknownMonth(t *testing.T) {
	assert.Equal(t, 1.0, SeasonalityFactor(time.Month(13)))
}

// Applying the factor to apply-starts and CPAS as an inverse pair must not
// change the implied total spend.
func TestApplySeasonalityInversePair(t *testing.T) {
	applies, cpas := 1200.0, 8.5
	before := applies * cpas

	for _, factor := range []float64{0.80, 0.92, 1.0, 1.05, 1.10} {
		a, c := applySeasonality(applies, cpas, factor)
		assert.InDelta(t, before, a*c, 1e-9, "factor %v", factor)
	}
}

func TestApplySeasonalityScalesApplyStarts(t *testing.T) {
	a, c := applySeasonality(1000, 10, 1.10)
	assert.InDelta(t, 1100, a, 1e-9)
	assert.InDelta(t, 10/1.10, c, 1e-9)
	assert.False(t, math.IsNaN(c))
}
