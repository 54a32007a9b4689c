// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"math"
)

// asWork holds the per-solver scratch of the warm-started primal active-set
// iteration. All slices are sized at solver construction and reused across
// Project calls.
type asWork struct {
	widx []int     // working set, row indices into the stacked system
	inW  []bool    // m, membership mask of the working set
	qr   []float64 // n×n column-major Householder factors of 𝐍ᵀ
	up   []float64 // n, Householder pivots
	u    []float64 // n, 𝐐ᵀ𝐠𝐨𝐚𝐥
	y    []float64 // n, solution of 𝐑ᵀ𝐲 = 𝐡ᴡ
	t    []float64 // n, back-transform buffer
	lamw []float64 // n, multipliers of the working-set rows
	xcur []float64 // n, current feasible iterate
	xeq  []float64 // n, equality-constrained projection
	d    []float64 // n, step direction
}

func newASWork(m, n int) asWork {
	return asWork{
		widx: make([]int, 0, n),
		inW:  make([]bool, m),
		qr:   make([]float64, n*n),
		up:   make([]float64, n),
		u:    make([]float64, n),
		y:    make([]float64, n),
		t:    make([]float64, n),
		lamw: make([]float64, n),
		xcur: make([]float64, n),
		xeq:  make([]float64, n),
		d:    make([]float64, n),
	}
}

// warmSolve projects goal with a primal active-set iteration seeded by the
// previous solve: the working set starts from the rows that were binding and
// the iterate from the previous (still feasible) solution. Each round solves
// the equality-constrained projection restricted to the working set, then
// either steps toward it with a ratio test that adds the blocking row,
// removes a row whose multiplier has the wrong sign, or accepts. Acceptance
// requires the full KKT conditions, so the result never depends on the seed.
//
// Ties in the ratio test and in the multiplier check are broken toward the
// smallest stacked row index to keep degenerate vertices deterministic.
//
// On success x and the solver's warm cache are updated and true is returned.
// Any numerical trouble (rank-deficient working set, no blocking row for an
// infeasible step, budget exceeded) abandons the attempt without touching
// the cache, leaving the caller to fall back to a cold solve.
func (s *Solver) warmSolve(goal, x []float64) bool {

	r, as := s.region, &s.as
	n, m := r.n, r.m
	tol := s.tolerance()
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 3*m + 10
	}

	w := as.widx[:0]
	for _, j := range s.wset {
		if len(w) < n {
			w = append(w, j)
		}
	}
	copy(as.xcur, s.xprev)

	for iter := 0; iter <= maxIter; iter++ {

		if !s.eqProject(goal, w) {
			return false // rank-deficient working set
		}
		q := len(w)

		for j := range as.inW {
			as.inW[j] = false
		}
		for _, j := range w {
			as.inW[j] = true
		}

		// Scan the rows outside the working set for primal violations.
		violated := false
		for j := 0; j < m && !violated; j++ {
			if !as.inW[j] {
				violated = r.h[j]-ddot(n, r.g[j:], m, as.xeq, 1) > tol*(one+math.Abs(r.h[j]))
			}
		}

		if !violated {
			// 𝐱ₑ is feasible; optimal unless some multiplier is negative.
			drop, dropRow := -1, -1
			for i, j := range w {
				li := as.lamw[i]
				if li >= -tol {
					continue
				}
				if drop < 0 || li < as.lamw[drop]-tol || (li < as.lamw[drop]+tol && j < dropRow) {
					drop, dropRow = i, j
				}
			}
			if drop < 0 {
				s.acceptWarm(x, w, iter)
				return true
			}
			if s.Logger.enable(LogTrace) {
				s.Logger.log("warm: drop row %d (multiplier %.3e)\n", dropRow, as.lamw[drop])
			}
			w = append(w[:drop], w[drop+1:]...)
			copy(as.xcur, as.xeq)
			continue
		}

		// Step from the feasible iterate toward 𝐱ₑ and add the first
		// blocking row (minimal ratio, smallest index on ties).
		for i := range as.d {
			as.d[i] = as.xeq[i] - as.xcur[i]
		}
		alpha, blk := one, -1
		for j := 0; j < m; j++ {
			if as.inW[j] {
				continue
			}
			gd := ddot(n, r.g[j:], m, as.d, 1)
			if gd >= zero {
				continue
			}
			slack := ddot(n, r.g[j:], m, as.xcur, 1) - r.h[j]
			if slack < zero {
				slack = zero
			}
			if aj := slack / -gd; aj < alpha-tol {
				alpha, blk = aj, j
			}
		}
		if blk < 0 || q == n {
			return false // no blocking direction, or a vertex already
		}
		if s.Logger.enable(LogTrace) {
			s.Logger.log("warm: add row %d (step %.3e)\n", blk, alpha)
		}
		daxpy(n, alpha, as.d, 1, as.xcur, 1)
		w = append(w, blk)
	}

	return false
}

// eqProject solves 𝚖𝚒𝚗 ‖𝐱 - 𝐠𝐨𝐚𝐥‖₂ subject to the working-set rows held as
// equalities 𝐍𝐱 = 𝐡ᴡ, together with their multipliers 𝛌 from 𝐱 - 𝐠𝐨𝐚𝐥 = 𝐍ᵀ𝛌.
//
// The normals 𝐍ᵀ are factored 𝐐ᵀ𝐍ᵀ = [𝐑 : O]ᵀ with Householder
// transformations, then
//   - 𝐲 solves the lower triangular system 𝐑ᵀ𝐲 = 𝐡ᴡ
//   - 𝐱ₑ = 𝐠𝐨𝐚𝐥 + 𝐐[𝐲 - (𝐐ᵀ𝐠𝐨𝐚𝐥)₁ : O]ᵀ
//   - 𝛌 solves the upper triangular system 𝐑𝛌 = 𝐲 - (𝐐ᵀ𝐠𝐨𝐚𝐥)₁
//
// Returns false when the factorization meets a negligible diagonal, meaning
// the working-set rows are (nearly) linearly dependent.
func (s *Solver) eqProject(goal []float64, w []int) bool {

	r, as := s.region, &s.as
	n, m := r.n, r.m
	q := len(w)

	if q == 0 {
		copy(as.xeq, goal)
		return true
	}

	// Gather the working-set rows of 𝐆 as columns of 𝐍ᵀ.
	for i, j := range w {
		dcopy(n, r.g[j:], m, as.qr[i*n:], 1)
	}

	for i := 0; i < q; i++ {
		ci := as.qr[i*n : (i+1)*n]
		colNorm := dnrm2(n, ci, 1) // invariant under the earlier reflections
		as.up[i] = h1(i, i+1, n, ci, 1)
		if i+1 < q {
			h2(i, i+1, n, ci, 1, as.up[i], as.qr[(i+1)*n:], 1, n, q-i-1)
		}
		if math.Abs(ci[i]) <= sqrtEps*(one+colNorm) {
			return false
		}
	}

	// 𝐐ᵀ𝐠𝐨𝐚𝐥
	copy(as.u, goal)
	for i := 0; i < q; i++ {
		h2(i, i+1, n, as.qr[i*n:], 1, as.up[i], as.u, 1, 1, 1)
	}

	// 𝐑ᵀ𝐲 = 𝐡ᴡ
	for i := 0; i < q; i++ {
		as.y[i] = (r.h[w[i]] - ddot(i, as.qr[i*n:], 1, as.y, 1)) / as.qr[i*n+i]
	}

	for i := 0; i < q; i++ {
		as.t[i] = as.y[i] - as.u[i]
	}
	dzero(as.t[q:n])

	// 𝐑𝛌 = 𝐲 - (𝐐ᵀ𝐠𝐨𝐚𝐥)₁
	for i := q - 1; i >= 0; i-- {
		sum := as.t[i]
		for l := i + 1; l < q; l++ {
			sum -= as.qr[l*n+i] * as.lamw[l]
		}
		as.lamw[i] = sum / as.qr[i*n+i]
	}

	// 𝐱ₑ = 𝐠𝐨𝐚𝐥 + 𝐐𝐭
	for i := q - 1; i >= 0; i-- {
		h2(i, i+1, n, as.qr[i*n:], 1, as.up[i], as.t, 1, 1, 1)
	}
	for c := 0; c < n; c++ {
		as.xeq[c] = goal[c] + as.t[c]
	}
	return true
}

// acceptWarm commits a successful warm solve into the output vector and the
// solver's warm cache.
func (s *Solver) acceptWarm(x []float64, w []int, iters int) {
	as := &s.as
	copy(x, as.xeq)
	copy(s.xprev, as.xeq)
	s.wset = append(s.wset[:0], w...)
	dzero(s.lam)
	for i, j := range w {
		if l := as.lamw[i]; l > zero {
			s.lam[j] = l
		}
	}
	s.warm = true
	s.stats.WarmSolves++
	s.stats.Iterations += iters
	if s.Logger.enable(LogLast) {
		s.Logger.log("warm solve accepted: %d active rows, %d iterations\n", len(w), iters)
	}
}
