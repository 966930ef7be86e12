package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/insar-sim/internal/domain"
)

// DefaultTestFraction is the held-out share of records used for evaluation.
const DefaultTestFraction = 0.2

// DefaultFeatureNames returns the full feature schema the pipeline trains on.
func DefaultFeatureNames() []string {
	return []string{
		domain.ColX,
		domain.ColY,
		domain.ColTime,
		domain.ColPhase,
		domain.ColDistanceToCenter,
		domain.ColAngleToCenter,
		domain.ColTimeSquared,
		domain.ColMeanPhaseNeighborhood,
		domain.ColStdPhaseNeighborhood,
	}
}

// Evaluation summarizes a trained model's held-out performance.
type Evaluation struct {
	// MSE is the mean squared error on the held-out partition.
	MSE float64

	// Importances maps each feature name to its relative contribution,
	// summing to 1.
	Importances map[string]float64

	TrainSize int
	TestSize  int
}

// Model pairs a fitted regressor with the feature schema it was trained on.
type Model struct {
	regressor    Regressor
	featureNames []string
}

// FeatureNames returns the schema the model requires at prediction time.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// Predict returns one deformation prediction per record. It fails with
// ErrSchemaMismatch when the set lacks a required feature column.
func (m *Model) Predict(set *domain.RecordSet) ([]float64, error) {
	x, err := featureMatrix(set, m.featureNames)
	if err != nil {
		return nil, err
	}
	return m.regressor.Predict(x)
}

// Trainer fits a regressor on a deterministic shuffled train/test split.
// A nil Regressor field gets a default ForestRegressor sharing the Seed.
type Trainer struct {
	FeatureNames []string
	Target       string
	TestFraction float64
	Seed         uint64
	Regressor    Regressor
}

// NewTrainer creates a Trainer with the default schema: full feature list,
// true deformation target, 20% held out.
func NewTrainer(seed uint64) *Trainer {
	return &Trainer{
		FeatureNames: DefaultFeatureNames(),
		Target:       domain.ColTrueDeformation,
		TestFraction: DefaultTestFraction,
		Seed:         seed,
	}
}

// Train splits the set, fits the regressor on the training partition, and
// evaluates on the held-out partition.
func (tr *Trainer) Train(set *domain.RecordSet) (*Model, Evaluation, error) {
	if tr.TestFraction <= 0 || tr.TestFraction >= 1 {
		return nil, Evaluation{}, fmt.Errorf("test fraction %g: %w",
			tr.TestFraction, domain.ErrInvalidParameter)
	}

	x, err := featureMatrix(set, tr.FeatureNames)
	if err != nil {
		return nil, Evaluation{}, err
	}
	y, err := targetVector(set, tr.Target)
	if err != nil {
		return nil, Evaluation{}, err
	}

	n := set.Len()
	nTest := int(math.Round(tr.TestFraction * float64(n)))
	if nTest == 0 || nTest == n {
		return nil, Evaluation{}, fmt.Errorf(
			"%d records at test fraction %g leave an empty partition: %w",
			n, tr.TestFraction, domain.ErrInsufficientData)
	}

	rng := rand.New(rand.NewPCG(tr.Seed, tr.Seed^0xda3e39cb94b95bdb))
	perm := rng.Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	reg := tr.Regressor
	if reg == nil {
		reg = NewForest(tr.Seed)
	}
	if err := reg.Fit(xTrain, yTrain); err != nil {
		return nil, Evaluation{}, err
	}

	preds, err := reg.Predict(xTest)
	if err != nil {
		return nil, Evaluation{}, err
	}

	var sse float64
	for i, p := range preds {
		diff := p - yTest[i]
		sse += diff * diff
	}

	importances := make(map[string]float64, len(tr.FeatureNames))
	for i, v := range reg.FeatureImportances() {
		importances[tr.FeatureNames[i]] = v
	}

	eval := Evaluation{
		MSE:         sse / float64(nTest),
		Importances: importances,
		TrainSize:   n - nTest,
		TestSize:    nTest,
	}
	return &Model{regressor: reg, featureNames: tr.FeatureNames}, eval, nil
}

// subset copies the given rows of x and y into fresh storage.
func subset(x *mat.Dense, y []float64, indices []int) (*mat.Dense, []float64) {
	_, d := x.Dims()
	outX := mat.NewDense(len(indices), d, nil)
	outY := make([]float64, len(indices))
	for i, idx := range indices {
		outX.SetRow(i, x.RawRowView(idx))
		outY[i] = y[idx]
	}
	return outX, outY
}
