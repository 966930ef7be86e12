package features_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/insar-sim/internal/domain"
	"github.com/couchcryptid/insar-sim/internal/features"
	"github.com/couchcryptid/insar-sim/internal/synth"
)

func generateSet(t *testing.T, size, steps int) *domain.RecordSet {
	t.Helper()
	set, err := synth.New(size, steps, 0.05, 42).Generate(context.Background())
	require.NoError(t, err)
	return set
}

func TestAugment_AddsAllColumns(t *testing.T) {
	set := generateSet(t, 40, 3)

	require.NoError(t, features.NewBuilder().Augment(set))

	for _, col := range []string{
		domain.ColDistanceToCenter,
		domain.ColAngleToCenter,
		domain.ColTimeSquared,
		domain.ColMeanPhaseNeighborhood,
		domain.ColStdPhaseNeighborhood,
	} {
		assert.True(t, set.HasColumn(col), "missing column %s", col)
	}
}

func TestAugment_SpatialAndTemporalValues(t *testing.T) {
	set := generateSet(t, 25, 4)

	require.NoError(t, features.NewBuilder().Augment(set))

	for i, rec := range set.Records {
		wantDist := math.Hypot(rec.X-domain.CenterX, rec.Y-domain.CenterY)
		wantAngle := math.Atan2(rec.Y-domain.CenterY, rec.X-domain.CenterX)

		assert.InDelta(t, wantDist, rec.DistanceToCenter, 1e-12, "record %d", i)
		assert.InDelta(t, wantAngle, rec.AngleToCenter, 1e-12, "record %d", i)
		assert.Equal(t, float64(rec.Time*rec.Time), rec.TimeSquared, "record %d", i)
		assert.GreaterOrEqual(t, rec.StdPhaseNeighborhood, 0.0, "record %d", i)
	}
}

func TestAugment_NeighborhoodIsDeterministic(t *testing.T) {
	first := generateSet(t, 60, 2)
	second := generateSet(t, 60, 2)

	require.NoError(t, features.NewBuilder().Augment(first))
	require.NoError(t, features.NewBuilder().Augment(second))

	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Fatalf("augmented records differ (-first +second):\n%s", diff)
	}
}

func TestAugment_NeighborhoodTracksPhaseField(t *testing.T) {
	// Constant phase field: local mean equals the constant and local
	// variability vanishes.
	records := make([]domain.Measurement, 36)
	for i := range records {
		records[i] = domain.Measurement{Phase: 0.7, Time: 0}
	}
	set := domain.NewRecordSet(records, domain.ColPhase)

	require.NoError(t, features.NewBuilder().Augment(set))

	for i, rec := range set.Records {
		assert.InDelta(t, 0.7, rec.MeanPhaseNeighborhood, 1e-9, "record %d", i)
		assert.InDelta(t, 0.0, rec.StdPhaseNeighborhood, 1e-6, "record %d", i)
	}
}

func TestAugment_ShapeMismatch(t *testing.T) {
	set := generateSet(t, 50, 2)

	err := features.NewBuilder(features.WithGrid(5, 5)).Augment(set)
	require.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestAugment_ExplicitGridCoveringRecords(t *testing.T) {
	set := generateSet(t, 30, 2)

	require.NoError(t, features.NewBuilder(features.WithGrid(10, 8)).Augment(set))
	assert.True(t, set.HasColumn(domain.ColMeanPhaseNeighborhood))
}

func TestAugment_EmptySet(t *testing.T) {
	set := domain.NewRecordSet(nil)

	err := features.NewBuilder().Augment(set)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}
