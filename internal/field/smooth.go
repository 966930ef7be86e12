// Package field provides the Gaussian grid-smoothing primitive shared by the
// signal generator (atmospheric screen) and the feature builder (neighborhood
// statistics).
package field

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Smooth returns a Gaussian-blurred copy of grid with the given spread.
// The blur is separable (rows then columns) and clamps at the grid edges,
// so it is a pure, deterministic function of its input. A non-positive
// sigma returns an unmodified copy.
func Smooth(grid *mat.Dense, sigma float64) *mat.Dense {
	rows, cols := grid.Dims()
	out := mat.DenseCopyOf(grid)
	if sigma <= 0 {
		return out
	}

	kernel := gaussianKernel(sigma)
	radius := (len(kernel) - 1) / 2
	tmp := mat.NewDense(rows, cols, nil)

	// Horizontal pass: grid -> tmp.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * grid.At(r, clamp(c+k, cols))
			}
			tmp.Set(r, c, acc)
		}
	}

	// Vertical pass: tmp -> out.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * tmp.At(clamp(r+k, rows), c)
			}
			out.Set(r, c, acc)
		}
	}

	return out
}

// gaussianKernel builds a normalized 1-D kernel truncated at three sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// clamp folds an index into [0, n) by edge replication.
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
