// Package model fits a supervised regressor mapping derived features to true
// deformation and evaluates it on a held-out partition.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/insar-sim/internal/domain"
)

// Regressor is the capability a pipeline model must provide. Alternate
// algorithms can be substituted without touching the training or detection
// contracts.
type Regressor interface {
	// Fit trains on a feature matrix (one row per record) and its targets.
	Fit(x *mat.Dense, y []float64) error

	// Predict returns one prediction per row of x.
	Predict(x *mat.Dense) ([]float64, error)

	// FeatureImportances reports the relative contribution of each feature
	// column, summing to 1.
	FeatureImportances() []float64
}

// columnValue reads a named feature column from a record. Only numeric
// columns that can serve as model inputs or targets are addressable.
func columnValue(rec *domain.Measurement, name string) (float64, bool) {
	switch name {
	case domain.ColX:
		return rec.X, true
	case domain.ColY:
		return rec.Y, true
	case domain.ColTime:
		return float64(rec.Time), true
	case domain.ColPhase:
		return rec.Phase, true
	case domain.ColTrueDeformation:
		return rec.TrueDeformation, true
	case domain.ColDistanceToCenter:
		return rec.DistanceToCenter, true
	case domain.ColAngleToCenter:
		return rec.AngleToCenter, true
	case domain.ColTimeSquared:
		return rec.TimeSquared, true
	case domain.ColMeanPhaseNeighborhood:
		return rec.MeanPhaseNeighborhood, true
	case domain.ColStdPhaseNeighborhood:
		return rec.StdPhaseNeighborhood, true
	default:
		return 0, false
	}
}

// featureMatrix extracts the named columns into a dense matrix, verifying
// that every column is both addressable and populated on the set.
func featureMatrix(set *domain.RecordSet, names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no feature columns named: %w", domain.ErrInvalidParameter)
	}
	for _, name := range names {
		if !set.HasColumn(name) {
			return nil, fmt.Errorf("column %q not populated: %w", name, domain.ErrSchemaMismatch)
		}
	}

	n := set.Len()
	data := make([]float64, 0, n*len(names))
	for i := range set.Records {
		for _, name := range names {
			v, ok := columnValue(&set.Records[i], name)
			if !ok {
				return nil, fmt.Errorf("unknown column %q: %w", name, domain.ErrSchemaMismatch)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(n, len(names), data), nil
}

// targetVector extracts a single named column as the regression target.
func targetVector(set *domain.RecordSet, name string) ([]float64, error) {
	if !set.HasColumn(name) {
		return nil, fmt.Errorf("target %q not populated: %w", name, domain.ErrSchemaMismatch)
	}
	out := make([]float64, set.Len())
	for i := range set.Records {
		v, ok := columnValue(&set.Records[i], name)
		if !ok {
			return nil, fmt.Errorf("unknown target %q: %w", name, domain.ErrSchemaMismatch)
		}
		out[i] = v
	}
	return out, nil
}
