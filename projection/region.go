// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"
	"math"
)

// Region is the immutable constraint set {𝐱 : 𝐱ₘᵢₙ ≤ 𝐱 ≤ 𝐱ₘₐₓ, 𝐀𝐱 ≤ 𝐛}.
//
// Construction validates the input shapes, proves the set non-empty and
// assembles the stacked inequality system 𝐆𝐱 ≥ 𝐡 reused by every solve:
// the k linear rows first (as -𝐀𝐱 ≥ -𝐛), then the finite lower bounds and
// the finite upper bounds in component order. Row indices into this stack
// identify constraints in multipliers and tie-breaks.
//
// A Region is read-only after construction and may be shared across any
// number of Solvers concurrently.
type Region struct {
	n, k int

	xmin, xmax []float64
	a          []float64 // k×n row-major
	b          []float64

	m int
	g []float64 // m×n column-major with leading dimension m
	h []float64
}

// NewRegion validates the constraint set and returns its immutable
// representation. Bound entries that are NaN or infinite on the unbounded
// side are treated as absent. The inputs are copied, never aliased.
//
// Shape inconsistencies report ErrDimensionMismatch; an empty box or an
// incompatible combination of box and linear constraints reports
// ErrInfeasibleRegion.
func NewRegion(xmin, xmax []float64, a [][]float64, b []float64) (*Region, error) {

	n, k := len(xmin), len(a)
	if n != len(xmax) {
		return nil, fmt.Errorf("%w: len(xmin)=%d != len(xmax)=%d", ErrDimensionMismatch, n, len(xmax))
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: dimension must be at least 1", ErrDimensionMismatch)
	}
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("%w: A row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), n)
		}
	}
	if len(b) != k {
		return nil, fmt.Errorf("%w: len(b)=%d != %d rows of A", ErrDimensionMismatch, len(b), k)
	}

	for i := 0; i < n; i++ {
		l, u := xmin[i], xmax[i]
		if math.IsInf(l, 1) || math.IsInf(u, -1) {
			return nil, fmt.Errorf("%w: unbounded empty box at component %d", ErrInfeasibleRegion, i)
		}
		if hasLower(l) && hasUpper(u) && l > u {
			return nil, fmt.Errorf("%w: xmin[%d]=%g > xmax[%d]=%g", ErrInfeasibleRegion, i, l, i, u)
		}
	}

	r := &Region{
		n:    n,
		k:    k,
		xmin: append([]float64(nil), xmin...),
		xmax: append([]float64(nil), xmax...),
		a:    make([]float64, k*n),
		b:    append([]float64(nil), b...),
	}
	for i, row := range a {
		copy(r.a[i*n:(i+1)*n], row)
	}

	r.stack()

	// Prove the region non-empty by projecting a probe point. The lower
	// bound vector trivially satisfies the box, so a failure isolates the
	// linear part; unbounded components fall back to a clamped zero.
	if r.m > 0 {
		probe := make([]float64, n)
		for i := range probe {
			switch {
			case hasLower(xmin[i]):
				probe[i] = xmin[i]
			case hasUpper(xmax[i]) && xmax[i] < zero:
				probe[i] = xmax[i]
			}
		}
		x := make([]float64, n)
		lam := make([]float64, r.m)
		hh := make([]float64, r.m)
		w := make([]float64, ldpWorkLen(r.m, n))
		jw := make([]int, r.m)
		switch mode := r.coldProject(probe, x, lam, hh, w, jw, 0); mode {
		case modeSolved:
		case modeIncompatible:
			return nil, fmt.Errorf("%w: box and linear constraints are incompatible", ErrInfeasibleRegion)
		default:
			return nil, fmt.Errorf("%w: feasibility check: %v", ErrSolveFailure, mode)
		}
	}

	return r, nil
}

// Dim returns the dimension N of the region.
func (r *Region) Dim() int { return r.n }

// Rows returns the number of stacked inequality rows: the k linear
// constraints plus one row per finite bound.
func (r *Region) Rows() int { return r.m }

// Contains reports whether x satisfies every constraint within the given
// absolute-plus-relative tolerance.
func (r *Region) Contains(x []float64, tol float64) bool {
	if len(x) != r.n {
		return false
	}
	for i, v := range x {
		if hasLower(r.xmin[i]) && v < r.xmin[i]-tol*(one+math.Abs(r.xmin[i])) {
			return false
		}
		if hasUpper(r.xmax[i]) && v > r.xmax[i]+tol*(one+math.Abs(r.xmax[i])) {
			return false
		}
	}
	for j := 0; j < r.k; j++ {
		if ddot(r.n, r.a[j*r.n:], 1, x, 1) > r.b[j]+tol*(one+math.Abs(r.b[j])) {
			return false
		}
	}
	return true
}

// stack assembles 𝐆𝐱 ≥ 𝐡 from the linear rows and the finite bounds.
func (r *Region) stack() {
	m := r.k
	for i := 0; i < r.n; i++ {
		if hasLower(r.xmin[i]) {
			m++
		}
		if hasUpper(r.xmax[i]) {
			m++
		}
	}

	r.m = m
	r.g = make([]float64, m*r.n)
	r.h = make([]float64, m)
	if m == 0 {
		return
	}

	for j := 0; j < r.k; j++ { // 𝐀ⱼ𝐱 ≤ 𝐛ⱼ  →  -𝐀ⱼ𝐱 ≥ -𝐛ⱼ
		for c := 0; c < r.n; c++ {
			r.g[j+m*c] = -r.a[j*r.n+c]
		}
		r.h[j] = -r.b[j]
	}
	row := r.k
	for i := 0; i < r.n; i++ { // 𝐱ᵢ ≥ 𝐱ₘᵢₙᵢ
		if hasLower(r.xmin[i]) {
			r.g[row+m*i] = one
			r.h[row] = r.xmin[i]
			row++
		}
	}
	for i := 0; i < r.n; i++ { // -𝐱ᵢ ≥ -𝐱ₘₐₓᵢ
		if hasUpper(r.xmax[i]) {
			r.g[row+m*i] = -one
			r.h[row] = -r.xmax[i]
			row++
		}
	}
}

// coldProject solves 𝚖𝚒𝚗 ‖𝐱 - 𝐠𝐨𝐚𝐥‖₂ over the region from scratch through
// LDP on the substituted variable 𝐳 = 𝐱 - 𝐠𝐨𝐚𝐥. The multipliers of the
// stacked rows are stored in lam. Requires m > 0.
func (r *Region) coldProject(goal, x, lam, hh, w []float64, jw []int, maxIter int) solveMode {
	for j := 0; j < r.m; j++ { // 𝐡 - 𝐆·𝐠𝐨𝐚𝐥
		hh[j] = r.h[j] - ddot(r.n, r.g[j:], r.m, goal, 1)
	}
	_, mode := ldp(r.m, r.n, r.g, r.m, hh, x, w, jw, maxIter)
	if mode != modeSolved {
		return mode
	}
	daxpy(r.n, one, goal, 1, x, 1) // 𝐱 = 𝐳 + 𝐠𝐨𝐚𝐥
	dcopy(r.m, w, 1, lam, 1)
	return mode
}

// ldpWorkLen is the float64 working space required by ldp for m stacked
// rows in dimension n.
func ldpWorkLen(m, n int) int {
	return (n+1)*(m+2) + 2*m
}

func hasLower(l float64) bool {
	return !math.IsNaN(l) && !math.IsInf(l, -1)
}

func hasUpper(u float64) bool {
	return !math.IsNaN(u) && !math.IsInf(u, 1)
}
