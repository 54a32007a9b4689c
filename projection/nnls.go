// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"math"
)

// nnls solves the non-negative least-squares problem 𝚖𝚒𝚗 ‖𝐀𝐱 - 𝐛‖₂ subject
// to 𝐱 ≥ 0 with the Lawson-Hanson active-set method.
//   - 𝐀 is an m × n column-major matrix, no restriction on 𝚛𝚊𝚗𝚔(𝐀)
//   - 𝐱 ∈ ℝⁿ, 𝐛 ∈ ℝᵐ
//
// Indices are partitioned into the active set ℤ (variables held at zero) and
// the passive set ℙ (variables free to take positive values). Each outer
// iteration relaxes the active constraint with the largest dual component
// 𝐰 = 𝐀ᵀ(𝐛 - 𝐀𝐱) into ℙ, then re-solves the unconstrained least-squares
// problem restricted to ℙ through an incrementally maintained QR
// factorization. Whenever the restricted solution turns a passive variable
// negative, the inner loop interpolates back to the feasible boundary and
// returns the violating index to ℤ, repairing the factorization with Givens
// rotations. Optimality holds when 𝐰ⱼ ≤ 0 for all j ∈ ℤ, which is the KKT
// condition of the problem.
//
// On input a and b hold 𝐀 and 𝐛; on return both are overwritten by the
// products 𝐐𝐀 and 𝐐𝐛 accumulated by the factorization. The primal solution
// is stored in x and the dual vector in w. z and index supply m and n
// elements of working space.
//
// # References
//
//	C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall, 1974. (revised 1995 edition)
//	Chapters 23, Algorithm 23.10.
func nnls(
	m, n int,
	a []float64, mda int,
	b []float64,
	x []float64,
	w []float64,
	z []float64, index []int,
	maxIter int) (float64, solveMode) {

	const factor = 0.01

	if m <= 0 || n <= 0 || mda < m ||
		len(a) < mda*n || len(b) < m || len(x) < n || len(w) < n || len(z) < m || len(index) < n {
		return math.NaN(), modeBadArgument
	}

	if maxIter <= 0 {
		maxIter = 3 * n
	}

	np := 0 // num of elem in set ℙ
	z1 := 0 // start index of set ℤ

	// index = ℙ ∪ ℤ = {1,···,n}
	// ℙ = index[:np] define the subset columns of 𝐀
	// ℤ = index[z1:]
	index = index[:n]
	for i := range index {
		index[i] = i
	}

	// Start from 𝐱 = O and all indices are initially in ℤ.
	dzero(x[:n])

	// Calculate norm-2 of the residual vector when return.
	iter := 0
	term := func() (rnorm float64, mode solveMode) {
		if np < m { // m > 𝚛𝚊𝚗𝚔(𝐀)
			rnorm = dnrm2(m-np, b[np:], 1) // ‖ 𝐐ᵀ𝐛₂ ‖₂
		} else {
			dzero(w[:n])
		}
		if iter > maxIter {
			mode = modeExceedMaxIter
		} else {
			mode = modeSolved
		}
		return
	}

	// The main loop is continued until no more active constraints can be set free.
	for {
		if z1 >= n || // Quit if all coefficients are positive : ℤ = ∅ (𝐱 ≥ 0),
			np >= m { // or if m columns of 𝐀 have been triangularized.
			return term()
		}

		// Compute components of the dual vector 𝐰 = 𝐀ᵀ(𝐛 - 𝐀𝐱) (negative gradient).
		// Since 𝐰ⱼ = 0 for j ∈ ℙ, only the 𝐰ⱼ for j ∈ ℤ are computed, and with
		// 𝐱ⱼ = 0 for j ∈ ℤ the update simplifies to 𝐰 = 𝐀ᵀ𝐛.
		for _, j := range index[z1:] {
			w[j] = ddot(m-np, a[np+mda*j:], 1, b[np:], 1)
		}

		for {
			// Find index t ∈ ℤ such that 𝐰ₜ = 𝚊𝚛𝚐 𝚖𝚊𝚡 { 𝐰ⱼ: j ∈ ℤ }
			wmax, izmax := zero, 0
			for i, j := range index[z1:] {
				if w[j] > wmax {
					wmax, izmax = w[j], z1+i
				}
			}

			// Quit when 𝐰ⱼ ≤ 0, ∀j ∈ ℤ (no more constraint could be relaxed),
			// this indicates satisfaction of the Kuhn-Tucker conditions.
			if wmax <= zero {
				return term()
			}

			// Move index t from ℤ to ℙ
			iz := izmax
			j := index[iz]
			aj := a[mda*j : mda*j+m : mda*j+m]

			// Given j-th column of 𝐀, compute corresponding Householder vector 𝐮.
			asave := aj[np]              // Save the pivot-th component of j-th column 𝐀ₚⱼ.
			up := h1(np, np+1, m, aj, 1) // Now the pivot-th component of j-th column is (𝐐𝐀)ₚⱼ.

			// Check new diagonal element to avoid near linear dependence.
			accept := false
			unorm := dnrm2(np, aj, 1)
			if math.Abs(aj[np])*factor >= unorm*eps {
				// If column j is sufficiently independent,
				// compute the transformed right side z = 𝐐𝐛
				copy(z[:m], b[:m])
				h2(np, np+1, m, aj, 1, up, z, 1, 1, 1)
				// Solve 𝐐(𝐀𝐱)ⱼ ≅ 𝐐𝐛ⱼ for proposed new value for 𝐱ⱼ
				ztest := z[np] / aj[np]
				accept = ztest > zero // 𝐱ⱼ > 0
			}

			if !accept {
				// Reject j as a candidate to be moved from ℤ to ℙ,
				// restore 𝐀ₚⱼ and test dual coefficients again.
				aj[np] = asave
				w[j] = zero
				continue
			}

			// Now the index j=index(iz) is selected.

			// Update b = 𝐐𝐛.
			copy(b[:m], z[:m])

			// Move j from ℤ to ℙ.
			index[iz] = index[z1]
			index[z1] = j
			z1++
			np++

			// Apply Householder transformations to cols in new ℤ.
			if z1 < n {
				for _, jj := range index[z1:] {
					h2(np-1, np, m, aj, 1, up, a[jj*mda:], 1, mda, 1)
				}
			}
			// Zero sub-diagonal elements in col j.
			if np < m {
				dzero(aj[np:m])
			}
			// Set 𝐰ⱼ = 0 for j ∈ ℙ
			w[j] = zero
			break
		}

		// When a new j joins ℙ, coefficients of the free variables in the
		// unconstrained solution may turn negative. The inner loop is continued
		// until all violating variables have been moved back to ℤ.
		for {
			// Compute the restricted solution by back substitution in the
			// triangular system 𝐑ₖ𝐳 = 𝐐𝐛.
			for ip, jj := np-1, -1; ip >= 0; ip-- {
				if jj >= 0 {
					daxpy(ip+1, -z[ip+1], a[jj*mda:], 1, z, 1)
				}
				jj = index[ip]
				z[ip] /= a[ip+jj*mda]
			}

			// Check iteration count
			if iter++; iter > maxIter {
				return term()
			}

			// Find index t ∈ ℙ such that 𝐱ₜ/(𝐱ₜ-𝐳ₜ) = 𝚊𝚛𝚐 𝚖𝚒𝚗 { 𝐱ⱼ/(𝐱ⱼ-𝐳ⱼ) : 𝐳ⱼ ≤ 0, j ∈ ℙ }
			alpha, jj := two, -1
			for ip, l := range index[:np] {
				if z[ip] <= zero { // found unfeasible coefficients
					t := -x[l] / (z[ip] - x[l])
					if alpha > t { // ɑ = 𝐱ₜ/(𝐱ₜ-𝐳ₜ)
						alpha, jj = t, ip
					}
				}
			}

			// If all coefficients are feasible, exit secondary loop to main loop.
			if jj < 0 {
				for ip, idx := range index[:np] {
					x[idx] = z[ip]
				}
				break
			}

			// Interpolate between x and z : 𝐱 = 𝐱 + ɑ(𝐳 - 𝐱)
			for ip, l := range index[:np] {
				x[l] += alpha * (z[ip] - x[l])
			}

			// Move coefficient i from ℙ to ℤ and restore the triangular form
			// of the passive columns with Givens rotations.
			i := index[jj]
			x[i] = zero
			if jj++; jj < np {
				for j := jj; j < np; j++ {
					ii := index[j]
					ci := a[ii*mda:]
					index[j-1] = ii
					var cc, ss float64
					cc, ss, ci[j-1] = g1(ci[j-1], ci[j])
					ci[j] = zero
					for l := 0; l < n; l++ {
						if l != ii {
							cl := a[l*mda : l*mda+j+1 : l*mda+j+1]
							cl[j-1], cl[j] = g2(cc, ss, cl[j-1], cl[j])
						}
					}
					b[j-1], b[j] = g2(cc, ss, b[j-1], b[j])
				}
			}
			np--
			z1--
			index[z1] = i

			// copy b into z, then solve again and loop back.
			copy(z[:m], b[:m])
		}
	}
}
