package regime

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	// clusterSeed fixes k-means initialization so identical inputs always
	// produce identical cluster assignments (idempotent estimates).
	clusterSeed = 42

	minClusters = 2
	maxClusters = 6
	numInits    = 10
	maxIters    = 100
)

// kmeansResult holds one fitted partitioning.
type kmeansResult struct {
	labels    []int // 0-based cluster index per point
	centroids [][]float64
	inertia   float64
}

// fitKMeans runs Lloyd's algorithm numInits times from seeded random
// starts and keeps the run with the lowest within-cluster sum of squares.
func fitKMeans(points [][]float64, k int, rng *rand.Rand) kmeansResult {
	best := kmeansResult{inertia: math.Inf(1)}
	for init := 0; init < numInits; init++ {
		res := lloyd(points, k, rng)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

func lloyd(points [][]float64, k int, rng *rand.Rand) kmeansResult {
	dim := len(points[0])

	// Initialize centroids from k distinct points.
	perm := rng.Perm(len(points))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	labels := make([]int, len(points))
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, p := range points {
			nearest, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := floats.Distance(p, centroid, 2); d < bestDist {
					nearest, bestDist = c, d
				}
			}
			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; an emptied cluster keeps its old centroid.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				sums[c][j] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}

	inertia := 0.0
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}

	return kmeansResult{labels: labels, centroids: centroids, inertia: inertia}
}

// silhouetteScore measures cluster separation in [-1, 1]; higher is
// better. Points in singleton clusters contribute 0.
func silhouetteScore(points [][]float64, labels []int, k int) float64 {
	n := len(points)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	total := 0.0
	for i, p := range points {
		// Mean distance from point i to every cluster.
		sumDist := make([]float64, k)
		for j, q := range points {
			if i == j {
				continue
			}
			sumDist[labels[j]] += floats.Distance(p, q, 2)
		}

		own := labels[i]
		if sizes[own] <= 1 {
			continue // silhouette undefined for singletons, counts as 0
		}
		a := sumDist[own] / float64(sizes[own]-1)

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sumDist[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}
