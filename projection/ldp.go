// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"math"
)

// ldp solves the least distance programming problem 𝚖𝚒𝚗 ‖𝐱‖₂ subject to
// 𝐆𝐱 ≥ 𝐡, where 𝐆 is an m × n matrix with no restriction on its rank.
//
// The problem is reduced to NNLS on the (n+1) × m matrix 𝐀 = [𝐆 : 𝐡]ᵀ with
// right side 𝐛 = [Oₙ : 1]. Given the NNLS solution 𝐮 and its residual
// 𝐫 = 𝐀𝐮 - 𝐛, the constraints are compatible exactly when ‖𝐫‖₂ > 0, and the
// LDP solution is recovered as 𝐱 = 𝐆ᵀ𝐮 / (-𝐫ₙ₊₁) with the multipliers of the
// inequality constraints 𝛌 = 𝐮 / (-𝐫ₙ₊₁), returned in w[:m].
//
// The working space w requires (n+1)×(m+2)+2m elements and jw requires m.
//
// # References
//
//	C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall, 1974. (revised 1995 edition)
//	Chapters 23, Algorithm 23.27.
func ldp(
	m, n int,
	g []float64, mdg int,
	h []float64,
	x []float64,
	w []float64,
	jw []int,
	maxIter int,
) (xnorm float64, mode solveMode) {

	if n <= 0 {
		return math.NaN(), modeBadArgument
	}
	if m <= 0 {
		return 0, modeNoop
	}

	if m > mdg || mdg*n > len(g) || m > len(h) || n > len(x) || (n+1)*(m+2)+2*m > len(w) || m > len(jw) {
		panic("bound check error")
	}

	// 𝐰[:(n+1)×m]                     =  (n+1)×m matrix 𝐀
	// 𝐰[(n+1)×m:(n+1)×(m+1)]          =  (n+1)-vector 𝐛
	// 𝐰[(n+1)×(m+1):(n+1)×(m+2)]      =  (n+1)-vector 𝐳 (working space)
	// 𝐰[(n+1)×(m+2):(n+1)×(m+2)+m]    =  m-vector 𝐮
	// 𝐰[(n+1)×(m+2)+m:(n+1)×(m+2)+2m] =  m-vector 𝐰

	iw := 0
	a := w[iw : iw+m*(n+1)]
	iw += len(a)
	b := w[iw : iw+(n+1)]
	iw += len(b)
	z := w[iw : iw+(n+1)]
	iw += len(z)
	u := w[iw : iw+m]
	iw += len(u)
	dv := w[iw : iw+m]

	for j := 0; j < m; j++ {
		// Copy 𝐆ᵀ into first n rows and m columns of 𝐀
		dcopy(n, g[j:], mdg, a[j*(n+1):], 1)
		// Copy 𝐡ᵀ into row n+1 of 𝐀
		a[j*(n+1)+n] = h[j]
	}

	// Initialize 𝐛
	dzero(b[:n])
	b[n] = one

	var rnorm float64
	rnorm, mode = nnls(n+1, m, a, n+1, b, u, dv, z, jw, maxIter)

	var fac float64
	if mode == modeSolved {
		if rnorm <= zero { // ‖ 𝐫 ‖₂
			mode = modeIncompatible
		} else {
			fac = one - ddot(m, h, 1, u, 1) // -𝐫ₙ₊₁ = 1 - 𝐡ᵀ𝐮
			if math.IsNaN(fac) || fac < eps {
				mode = modeIncompatible
			}
		}
	}
	if mode != modeSolved {
		return math.NaN(), mode
	}

	fac = one / fac
	for j := 0; j < n; j++ { // 𝐆ᵀ𝐮 / ‖ 𝐫 ‖₂
		x[j] = ddot(m, g[mdg*j:], 1, u, 1) * fac
	}

	for j := 0; j < m; j++ { // 𝐮 / ‖ 𝐫 ‖₂
		w[j] = u[j] * fac
	}

	xnorm = dnrm2(n, x, 1)
	return
}
