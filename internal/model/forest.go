package model

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/insar-sim/internal/domain"
)

// Forest defaults. Fifty shallow trees are plenty for a few thousand records
// and keep training well under a second.
const (
	DefaultNumTrees    = 50
	DefaultMaxDepth    = 8
	DefaultMinLeafSize = 5
)

// ForestRegressor is a bagged ensemble of CART regression trees. Each tree
// fits a bootstrap resample of the training data with variance-reduction
// splits; predictions average over trees. Trees see mixed-scale features
// without normalization, and split quality is scale-free, which is why this
// model suits the raw feature columns directly.
//
// Fitting is deterministic: tree i draws its bootstrap from a PCG stream
// derived from (Seed, i).
type ForestRegressor struct {
	NumTrees    int
	MaxDepth    int
	MinLeafSize int
	Seed        uint64

	trees       []*treeNode
	importances []float64
	numFeatures int
}

// NewForest creates a ForestRegressor with default shape parameters.
func NewForest(seed uint64) *ForestRegressor {
	return &ForestRegressor{
		NumTrees:    DefaultNumTrees,
		MaxDepth:    DefaultMaxDepth,
		MinLeafSize: DefaultMinLeafSize,
		Seed:        seed,
	}
}

// Fit trains the ensemble. It fails with ErrInsufficientData when there are
// too few rows to grow a single leaf pair.
func (f *ForestRegressor) Fit(x *mat.Dense, y []float64) error {
	n, d := x.Dims()
	if n != len(y) {
		return fmt.Errorf("feature rows %d != targets %d: %w", n, len(y), domain.ErrInvalidParameter)
	}
	if n < 2 {
		return fmt.Errorf("%d training rows: %w", n, domain.ErrInsufficientData)
	}
	if f.NumTrees <= 0 || f.MaxDepth <= 0 || f.MinLeafSize <= 0 {
		return fmt.Errorf("forest shape %d/%d/%d: %w",
			f.NumTrees, f.MaxDepth, f.MinLeafSize, domain.ErrInvalidParameter)
	}

	f.numFeatures = d
	f.trees = make([]*treeNode, f.NumTrees)
	raw := make([]float64, d)

	for i := 0; i < f.NumTrees; i++ {
		rng := rand.New(rand.NewPCG(f.Seed, uint64(i)+1))
		indices := make([]int, n)
		for j := range indices {
			indices[j] = rng.IntN(n)
		}
		f.trees[i] = f.grow(x, y, indices, 0, raw)
	}

	f.importances = normalizeImportances(raw)
	return nil
}

// Predict averages every tree's prediction per row. The column count must
// match the fitted feature schema.
func (f *ForestRegressor) Predict(x *mat.Dense) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, fmt.Errorf("forest not fitted: %w", domain.ErrInvalidParameter)
	}
	n, d := x.Dims()
	if d != f.numFeatures {
		return nil, fmt.Errorf("got %d feature columns, fitted on %d: %w",
			d, f.numFeatures, domain.ErrSchemaMismatch)
	}

	out := make([]float64, n)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		var sum float64
		for _, tree := range f.trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// FeatureImportances returns the normalized impurity decrease per feature.
// Uniform when no split ever reduced variance (constant target).
func (f *ForestRegressor) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

func normalizeImportances(raw []float64) []float64 {
	var total float64
	for _, v := range raw {
		total += v
	}
	out := make([]float64, len(raw))
	if total == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i, v := range raw {
		out[i] = v / total
	}
	return out
}

// treeNode is one CART node. Leaves have no children and carry the mean
// target of their training rows.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for node.left != nil {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// grow recursively builds a tree over the given row indices, accumulating
// each split's impurity decrease into rawImportance.
func (f *ForestRegressor) grow(x *mat.Dense, y []float64, indices []int, depth int, rawImportance []float64) *treeNode {
	mean, sse := meanSSE(y, indices)
	if depth >= f.MaxDepth || len(indices) < 2*f.MinLeafSize || sse <= 1e-12 {
		return &treeNode{value: mean}
	}

	feature, threshold, gain, ok := f.bestSplit(x, y, indices, sse)
	if !ok {
		return &treeNode{value: mean}
	}
	rawImportance[feature] += gain

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, idx := range indices {
		if x.At(idx, feature) <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.grow(x, y, left, depth+1, rawImportance),
		right:     f.grow(x, y, right, depth+1, rawImportance),
		value:     mean,
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children, using prefix sums over the rows sorted
// by feature value. Ties in feature value are broken by row index so the
// scan is deterministic.
func (f *ForestRegressor) bestSplit(x *mat.Dense, y []float64, indices []int, parentSSE float64) (int, float64, float64, bool) {
	n := len(indices)
	_, d := x.Dims()

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	sorted := make([]int, n)
	prefixSum := make([]float64, n+1)
	prefixSq := make([]float64, n+1)

	for j := 0; j < d; j++ {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			va, vb := x.At(sorted[a], j), x.At(sorted[b], j)
			if va != vb {
				return va < vb
			}
			return sorted[a] < sorted[b]
		})

		for k, idx := range sorted {
			prefixSum[k+1] = prefixSum[k] + y[idx]
			prefixSq[k+1] = prefixSq[k] + y[idx]*y[idx]
		}

		for k := f.MinLeafSize; k <= n-f.MinLeafSize; k++ {
			lo, hi := x.At(sorted[k-1], j), x.At(sorted[k], j)
			if lo == hi {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			sseLeft := prefixSq[k] - prefixSum[k]*prefixSum[k]/nl
			sumRight := prefixSum[n] - prefixSum[k]
			sseRight := (prefixSq[n] - prefixSq[k]) - sumRight*sumRight/nr

			gain := parentSSE - sseLeft - sseRight
			if gain > bestGain {
				bestGain = gain
				bestFeature = j
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func meanSSE(y []float64, indices []int) (float64, float64) {
	var sum, sq float64
	for _, idx := range indices {
		sum += y[idx]
		sq += y[idx] * y[idx]
	}
	n := float64(len(indices))
	mean := sum / n
	return mean, sq - sum*sum/n
}
