package domain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SmoothOptions configures the LOWESS smoother.
type SmoothOptions struct {
	// Span is the fraction of points in each local neighbourhood.
	Span float64
	// Iterations is the number of robustness reweighting passes.
	Iterations int
}

// DefaultSmoothOptions matches Cleveland's defaults: f = 2/3, 3 iterations.
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{Span: 2.0 / 3.0, Iterations: 3}
}

// Lowess returns the locally weighted regression fit of ys on xs, evaluated
// at every xs. Fewer than two points are returned unchanged.
func Lowess(xs, ys []float64, opts SmoothOptions) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("lowess: %d x values, %d y values", len(xs), len(ys))
	}
	if opts.Span <= 0 || opts.Span > 1 {
		return nil, fmt.Errorf("lowess: span %v outside (0, 1]", opts.Span)
	}
	if opts.Iterations < 0 {
		return nil, fmt.Errorf("lowess: negative iterations %d", opts.Iterations)
	}

	n := len(xs)
	fitted := append([]float64(nil), ys...)
	if n < 2 {
		return fitted, nil
	}

	k := int(math.Ceil(opts.Span * float64(n)))
	k = max(2, min(k, n))

	robust := make([]float64, n)
	floats.AddConst(1, robust)
	weights := make([]float64, n)
	dist := make([]float64, n)
	residuals := make([]float64, n)

	for iter := 0; ; iter++ {
		for i := range xs {
			fitted[i] = localFit(xs, ys, robust, weights, dist, i, k)
		}
		if iter == opts.Iterations {
			break
		}

		for j := range ys {
			residuals[j] = math.Abs(ys[j] - fitted[j])
		}
		sorted := append([]float64(nil), residuals...)
		sort.Float64s(sorted)
		m := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		if m < 1e-12*floats.Max(sorted) || m == 0 {
			break
		}
		for j := range robust {
			robust[j] = bisquare(residuals[j] / (6 * m))
		}
	}
	return fitted, nil
}

// localFit evaluates the weighted linear fit at xs[i] using its k nearest
// neighbours. weights and dist are scratch buffers of len(xs).
func localFit(xs, ys, robust, weights, dist []float64, i, k int) float64 {
	for j := range xs {
		dist[j] = math.Abs(xs[j] - xs[i])
	}
	sorted := append([]float64(nil), dist...)
	sort.Float64s(sorted)
	h := sorted[k-1]

	var sum float64
	for j := range xs {
		w := 0.0
		switch {
		case h == 0:
			if dist[j] == 0 {
				w = 1
			}
		case dist[j] <= 0.001*h:
			w = 1
		case dist[j] <= 0.999*h:
			w = tricube(dist[j] / h)
		}
		weights[j] = w * robust[j]
		sum += weights[j]
	}
	if sum == 0 {
		return ys[i]
	}

	if !spread(xs, weights) {
		return stat.Mean(ys, weights)
	}
	alpha, beta := stat.LinearRegression(xs, ys, weights, false)
	return alpha + beta*xs[i]
}

// spread reports whether at least two distinct x values carry weight.
func spread(xs, weights []float64) bool {
	first := math.NaN()
	for j, w := range weights {
		if w <= 0 {
			continue
		}
		if math.IsNaN(first) {
			first = xs[j]
			continue
		}
		if xs[j] != first {
			return true
		}
	}
	return false
}

func tricube(u float64) float64 {
	if u >= 1 {
		return 0
	}
	v := 1 - u*u*u
	return v * v * v
}

func bisquare(u float64) float64 {
	if u >= 1 {
		return 0
	}
	v := 1 - u*u
	return v * v
}
