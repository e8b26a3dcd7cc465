package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitOLSRecoversLinearRelation(t *testing.T) {
	// y = 5 + 2*x0 + 3*x1, exactly.
	X := [][]float64{
		{1, 0}, {2, 1}, {3, 0}, {4, 1}, {5, 0}, {6, 1},
	}
	y := make([]float64, len(X))
	for i, row := range X {
		y[i] = 5 + 2*row[0] + 3*row[1]
	}

	model, err := fitOLS(X, y)
	require.NoError(t, err)

	for i, row := range X {
		assert.InDelta(t, y[i], model.predict(row), 1e-6, "row %d", i)
	}
	assert.InDelta(t, 1.0, model.r2, 1e-6)
	assert.InDelta(t, 1.0, model.confidence(), 1e-6)
}

func TestFitOLSBadShapes(t *testing.T) {
	_, err := fitOLS(nil, nil)
	assert.Error(t, err)

	_, err = fitOLS([][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestConfidenceDefaultsBelowFloor(t *testing.T) {
	m := &olsModel{r2: 0.4}
	assert.Equal(t, confidenceDefault, m.confidence())

	m = &olsModel{r2: 0.96}
	assert.InDelta(t, 0.96, m.confidence(), 1e-9)

	m = &olsModel{r2: 1.5}
	assert.Equal(t, 1.0, m.confidence())
}

func TestSimpleOLS(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3, 5, 7, 9, 11} // y = 1 + 2x

	m := simpleOLS(x, y)
	assert.InDelta(t, 1.0, m.intercept, 1e-9)
	assert.InDelta(t, 2.0, m.coef[0], 1e-9)
	assert.InDelta(t, 1.0, m.r2, 1e-9)
	assert.InDelta(t, 13.0, m.predict([]float64{6}), 1e-9)
}

func TestPercentileRange(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	lo, hi := percentileRange(values)
	assert.Less(t, lo, hi)
	assert.GreaterOrEqual(t, lo, 1.0)
	assert.LessOrEqual(t, hi, 100.0)

	lo, hi = percentileRange(nil)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3.0, clamp(1.0, 3, 15))
	assert.Equal(t, 15.0, clamp(20.0, 3, 15))
	assert.Equal(t, 7.5, clamp(7.5, 3, 15))
}
