package forecast

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// Confidence bounds for a fitted regime model: R-squared clamped to
	// [0.92, 1.0], with 0.95 substituted when R-squared is undefined or
	// below the floor (a floor, not a rejection).
	confidenceFloor   = 0.92
	confidenceDefault = 0.95
)

// olsModel is an ordinary-least-squares fit with intercept.
type olsModel struct {
	coef      []float64 // feature coefficients
	intercept float64
	r2        float64
}

// fitOLS solves min ||Xb - y|| by QR decomposition. A rank-deficient
// design (collinear one-hots) yields a minimum-norm-ish solution with a
// large condition number, which is acceptable here; genuine failures
// return an error.
func fitOLS(X [][]float64, y []float64) (*olsModel, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("ols: bad shapes %d x, %d y", n, len(y))
	}
	p := len(X[0])

	// Design matrix with intercept column.
	a := mat.NewDense(n, p+1, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)

	coef := mat.NewVecDense(p+1, nil)
	if err := qr.SolveVecTo(coef, false, b); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("ols solve: %w", err)
		}
	}

	model := &olsModel{
		intercept: coef.AtVec(0),
		coef:      make([]float64, p),
	}
	for j := 0; j < p; j++ {
		model.coef[j] = coef.AtVec(j + 1)
	}

	predicted := make([]float64, n)
	for i, row := range X {
		predicted[i] = model.predict(row)
	}
	model.r2 = stat.RSquaredFrom(predicted, y, nil)

	return model, nil
}

func (m *olsModel) predict(x []float64) float64 {
	v := m.intercept
	for j, c := range m.coef {
		v += c * x[j]
	}
	return v
}

// confidence converts a model's R-squared into the reported confidence.
func (m *olsModel) confidence() float64 {
	if math.IsNaN(m.r2) || m.r2 < confidenceFloor {
		return confidenceDefault
	}
	return math.Min(1.0, m.r2)
}

// simpleOLS fits y = a + b*x for the single-feature quality regressions.
func simpleOLS(x, y []float64) *olsModel {
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, alpha, beta)
	return &olsModel{intercept: alpha, coef: []float64{beta}, r2: r2}
}

// percentileRange returns the [p1, p99] empirical percentile bounds.
func percentileRange(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo = stat.Quantile(0.01, stat.Empirical, sorted, nil)
	hi = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
