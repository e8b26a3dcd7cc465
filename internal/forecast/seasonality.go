package forecast

import "time"

// seasonalityFactors maps calendar month to the hiring-market multiplier
// applied to apply-start volume. June is the reference month (1.0).
var seasonalityFactors = map[time.Month]float64{
	time.January:   0.90,
	time.February:  0.92,
	time.March:     0.95,
	time.April:     0.98,
	time.May:       1.00,
	time.June:      1.00,
	time.July:      1.05,
	time.August:    1.10,
	time.September: 0.95,
	time.October:   0.90,
	time.November:  0.85,
	time.December:  0.80,
}

// SeasonalityFactor returns the multiplier for a month, 1.0 when unknown.
func SeasonalityFactor(m time.Month) float64 {
	if f, ok := seasonalityFactors[m]; ok {
		return f
	}
	return 1.0
}

// applySeasonality adjusts apply-starts and CPAS as an inverse pair so the
// implied total spend (cpas x applies) is unchanged for any factor > 0.
func applySeasonality(applies, cpas, factor float64) (float64, float64) {
	return applies * factor, cpas / factor
}
