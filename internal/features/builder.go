// Package features derives the model inputs from a generated record set:
// spatial geometry relative to the scene center, a nonlinear time term, and
// smoothed neighborhood statistics of the phase field.
package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/insar-sim/internal/domain"
	"github.com/couchcryptid/insar-sim/internal/field"
)

// DefaultNeighborhoodSigma is the spread of the neighborhood smoothing
// kernel, in grid cells.
const DefaultNeighborhoodSigma = 1.0

// Builder augments a record set with derived feature columns. It is a pure
// function of the set: the neighborhood columns are a deterministic smoothing
// of the phase field, so augmenting the same set twice yields the same values.
type Builder struct {
	rows, cols int
	sigma      float64
}

// Option adjusts a Builder beyond its defaults.
type Option func(*Builder)

// WithGrid fixes the neighborhood grid dimensions instead of deriving a
// square grid from the record count. Augment fails with ErrShapeMismatch
// when rows*cols cannot cover the records.
func WithGrid(rows, cols int) Option {
	return func(b *Builder) {
		b.rows = rows
		b.cols = cols
	}
}

// WithNeighborhoodSigma overrides the smoothing spread.
func WithNeighborhoodSigma(sigma float64) Option {
	return func(b *Builder) { b.sigma = sigma }
}

// NewBuilder creates a Builder with a record-count-derived square grid.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{sigma: DefaultNeighborhoodSigma}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Augment fills the derived columns of every record in place and registers
// them on the set: distance_to_center, angle_to_center, time_squared,
// mean_phase_neighborhood, std_phase_neighborhood.
func (b *Builder) Augment(set *domain.RecordSet) error {
	if set.Len() == 0 {
		return fmt.Errorf("empty record set: %w", domain.ErrInsufficientData)
	}

	meanPhase, stdPhase, err := b.neighborhoodStats(set)
	if err != nil {
		return err
	}

	for i := range set.Records {
		rec := &set.Records[i]
		rec.DistanceToCenter = math.Hypot(rec.X-domain.CenterX, rec.Y-domain.CenterY)
		rec.AngleToCenter = math.Atan2(rec.Y-domain.CenterY, rec.X-domain.CenterX)
		rec.TimeSquared = float64(rec.Time) * float64(rec.Time)
		rec.MeanPhaseNeighborhood = meanPhase[i]
		rec.StdPhaseNeighborhood = stdPhase[i]
	}

	set.AddColumns(
		domain.ColDistanceToCenter,
		domain.ColAngleToCenter,
		domain.ColTimeSquared,
		domain.ColMeanPhaseNeighborhood,
		domain.ColStdPhaseNeighborhood,
	)
	return nil
}

// neighborhoodStats reshapes the phase column into a grid, Gaussian-smooths
// the field and its elementwise square, and reads back the local mean and
// the local standard deviation sqrt(E[p^2] - E[p]^2) in flat record order.
// Cells beyond the record count are padded with the column mean so the edge
// of the collection does not bias the smoothed values.
func (b *Builder) neighborhoodStats(set *domain.RecordSet) ([]float64, []float64, error) {
	n := set.Len()

	rows, cols := b.rows, b.cols
	if rows == 0 && cols == 0 {
		rows = int(math.Ceil(math.Sqrt(float64(n))))
		cols = rows
	}
	if rows <= 0 || cols <= 0 || rows*cols < n {
		return nil, nil, fmt.Errorf("grid %dx%d cannot cover %d records: %w",
			rows, cols, n, domain.ErrShapeMismatch)
	}

	var sum float64
	for i := range set.Records {
		sum += set.Records[i].Phase
	}
	pad := sum / float64(n)

	grid := mat.NewDense(rows, cols, nil)
	squared := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows*cols; i++ {
		p := pad
		if i < n {
			p = set.Records[i].Phase
		}
		grid.Set(i/cols, i%cols, p)
		squared.Set(i/cols, i%cols, p*p)
	}

	smoothMean := field.Smooth(grid, b.sigma)
	smoothSquared := field.Smooth(squared, b.sigma)

	mean := make([]float64, n)
	std := make([]float64, n)
	for i := 0; i < n; i++ {
		m := smoothMean.At(i/cols, i%cols)
		v := smoothSquared.At(i/cols, i%cols) - m*m
		mean[i] = m
		std[i] = math.Sqrt(math.Max(0, v))
	}
	return mean, std, nil
}
