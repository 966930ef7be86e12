package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSmooth_PreservesConstantField(t *testing.T) {
	grid := mat.NewDense(8, 8, nil)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			grid.Set(r, c, 3.5)
		}
	}

	out := Smooth(grid, 2.0)

	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			assert.InDelta(t, 3.5, out.At(r, c), 1e-9)
		}
	}
}

func TestSmooth_SpreadsImpulse(t *testing.T) {
	grid := mat.NewDense(9, 9, nil)
	grid.Set(4, 4, 1.0)

	out := Smooth(grid, 1.0)

	center := out.At(4, 4)
	neighbor := out.At(4, 5)
	far := out.At(0, 0)

	assert.Less(t, center, 1.0, "impulse must be attenuated")
	assert.Greater(t, neighbor, 0.0, "mass must spread to neighbors")
	assert.Less(t, neighbor, center)
	assert.Less(t, far, neighbor)
}

func TestSmooth_Deterministic(t *testing.T) {
	grid := mat.NewDense(5, 7, []float64{
		1, 2, 3, 4, 5, 6, 7,
		7, 6, 5, 4, 3, 2, 1,
		0, 1, 0, 1, 0, 1, 0,
		2, 2, 2, 2, 2, 2, 2,
		9, 8, 7, 6, 5, 4, 3,
	})

	a := Smooth(grid, 1.5)
	b := Smooth(grid, 1.5)

	require.True(t, mat.Equal(a, b), "smoothing must be deterministic")
}

func TestSmooth_NonPositiveSigmaIsIdentity(t *testing.T) {
	grid := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})

	out := Smooth(grid, 0)

	require.True(t, mat.Equal(grid, out))
}

func TestSmooth_DoesNotMutateInput(t *testing.T) {
	grid := mat.NewDense(4, 4, nil)
	grid.Set(1, 1, 5.0)
	want := mat.DenseCopyOf(grid)

	Smooth(grid, 1.0)

	require.True(t, mat.Equal(want, grid))
}
