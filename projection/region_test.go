// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegionShapeChecks(t *testing.T) {

	// len(x_min) != len(x_max)
	_, err := NewRegion([]float64{0, 0, 0}, []float64{1, 1}, nil, nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	// zero-dimensional region
	_, err = NewRegion(nil, nil, nil, nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	// A columns must match the dimension: x has 2 components, A is 3×5
	row5 := []float64{1, 2, 3, 4, 5}
	_, err = NewRegion([]float64{0, 0}, []float64{1, 1},
		[][]float64{row5, row5, row5}, []float64{1, 1, 1})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	// len(b) must match the rows of A
	_, err = NewRegion([]float64{0, 0}, []float64{1, 1},
		[][]float64{{1, 1}}, []float64{1, 2})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewRegionInfeasible(t *testing.T) {

	// Box alone empty: second component impossible
	_, err := NewRegion([]float64{0, 5}, []float64{1, 1}, nil, nil)
	require.ErrorIs(t, err, ErrInfeasibleRegion)

	// Box feasible but linear rows unreachable: x ∈ [0,1]², x1+x2 ≤ -1
	_, err = NewRegion([]float64{0, 0}, []float64{1, 1},
		[][]float64{{1, 1}}, []float64{-1})
	require.ErrorIs(t, err, ErrInfeasibleRegion)

	// Contradictory linear rows: x1 ≤ -1 and -x1 ≤ -1 (x1 ≥ 1), free box
	inf := math.Inf(1)
	_, err = NewRegion([]float64{-inf}, []float64{inf},
		[][]float64{{1}, {-1}}, []float64{-1, -1})
	require.ErrorIs(t, err, ErrInfeasibleRegion)

	// A lower bound of +Inf admits no point at all
	_, err = NewRegion([]float64{inf}, []float64{inf}, nil, nil)
	require.ErrorIs(t, err, ErrInfeasibleRegion)
}

func TestNewRegionOK(t *testing.T) {

	r, err := NewRegion([]float64{0, 0}, []float64{10, 10},
		[][]float64{{1, 1}}, []float64{5})
	require.NoError(t, err)
	require.Equal(t, 2, r.Dim())
	require.Equal(t, 5, r.Rows()) // 1 linear + 2 lower + 2 upper

	require.True(t, r.Contains([]float64{2, 2}, 1e-12))
	require.True(t, r.Contains([]float64{0, 5}, 1e-12))
	require.False(t, r.Contains([]float64{4, 4}, 1e-12))  // 4+4 > 5
	require.False(t, r.Contains([]float64{-1, 0}, 1e-12)) // below box
}

func TestNewRegionPartialBounds(t *testing.T) {

	inf := math.Inf(1)

	// Only one side of each component is bounded; NaN means absent too.
	r, err := NewRegion(
		[]float64{0, math.Inf(-1), math.NaN()},
		[]float64{inf, 1, 2},
		nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, r.Rows()) // one lower, two upper

	require.True(t, r.Contains([]float64{100, -100, 2}, 1e-12))
	require.False(t, r.Contains([]float64{-1, 0, 0}, 1e-12))

	// No constraints at all is a valid (trivial) region.
	r, err = NewRegion([]float64{math.Inf(-1)}, []float64{inf}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, r.Rows())
	require.True(t, r.Contains([]float64{1e300}, 0))
}

func TestNewRegionBoxOnly(t *testing.T) {

	// K = 0 means only box constraints apply.
	r, err := NewRegion([]float64{-1, -2}, []float64{1, 2}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, r.k)
	require.Equal(t, 4, r.Rows())
}

func TestRegionInputsCopied(t *testing.T) {

	xmin := []float64{0, 0}
	xmax := []float64{1, 1}
	a := [][]float64{{1, 1}}
	b := []float64{2}

	r, err := NewRegion(xmin, xmax, a, b)
	require.NoError(t, err)

	xmin[0], xmax[1], a[0][0], b[0] = 99, -99, 99, -99
	require.True(t, r.Contains([]float64{0.5, 0.5}, 1e-12))
}
