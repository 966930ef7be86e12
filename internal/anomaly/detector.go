// Package anomaly flags records whose prediction residuals are statistical
// outliers of the residual distribution.
package anomaly

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/insar-sim/internal/domain"
	"github.com/couchcryptid/insar-sim/internal/model"
)

// DefaultContamination is the expected outlier fraction.
const DefaultContamination = 0.01

// OutlierDetector is the capability an unsupervised outlier model must
// provide over a 1-D sample. Alternate scoring models can be substituted
// without changing the detection contract.
type OutlierDetector interface {
	// Fit learns the inlier region from a sample.
	Fit(values []float64) error

	// Predict reports, per value, whether it falls outside the inlier
	// region learned by Fit.
	Predict(values []float64) []bool
}

// QuantileDetector fences the most extreme ~Contamination fraction of a
// sample: half the budget below the lower empirical quantile, half above the
// upper one. It is fully deterministic, so repeated runs flag the same
// records.
type QuantileDetector struct {
	Contamination float64

	lower, upper float64
}

// NewQuantileDetector creates a detector expecting the given outlier fraction.
func NewQuantileDetector(contamination float64) *QuantileDetector {
	return &QuantileDetector{Contamination: contamination}
}

// Fit computes the two-sided quantile fence from the sample.
func (d *QuantileDetector) Fit(values []float64) error {
	if d.Contamination <= 0 || d.Contamination > 0.5 {
		return fmt.Errorf("contamination %g: %w", d.Contamination, domain.ErrInvalidParameter)
	}
	if len(values) < 2 {
		return fmt.Errorf("%d residuals: %w", len(values), domain.ErrInsufficientData)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d.lower = stat.Quantile(d.Contamination/2, stat.Empirical, sorted, nil)
	d.upper = stat.Quantile(1-d.Contamination/2, stat.Empirical, sorted, nil)
	return nil
}

// Predict flags values strictly outside the fitted fence.
func (d *QuantileDetector) Predict(values []float64) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v < d.lower || v > d.upper
	}
	return out
}

// Detector runs the final pipeline stage: predict deformation for every
// record, compute residuals, and flag the extreme ones.
type Detector struct {
	Contamination float64

	// Outliers overrides the outlier model; nil selects a QuantileDetector
	// with the configured contamination.
	Outliers OutlierDetector
}

// NewDetector creates a Detector with the given expected outlier fraction.
func NewDetector(contamination float64) *Detector {
	return &Detector{Contamination: contamination}
}

// Detect fills predicted_deformation, residual, and is_anomaly for every
// record in place and registers the columns. The residual convention is
// predicted minus true.
func (d *Detector) Detect(set *domain.RecordSet, m *model.Model) error {
	preds, err := m.Predict(set)
	if err != nil {
		return err
	}

	residuals := make([]float64, set.Len())
	for i := range set.Records {
		set.Records[i].PredictedDeformation = preds[i]
		residuals[i] = preds[i] - set.Records[i].TrueDeformation
		set.Records[i].Residual = residuals[i]
	}

	outliers := d.Outliers
	if outliers == nil {
		outliers = NewQuantileDetector(d.Contamination)
	}
	if err := outliers.Fit(residuals); err != nil {
		return err
	}

	for i, flagged := range outliers.Predict(residuals) {
		set.Records[i].IsAnomaly = flagged
	}

	set.AddColumns(
		domain.ColPredictedDeformation,
		domain.ColResidual,
		domain.ColIsAnomaly,
	)
	return nil
}
