// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"math"
)

// h1 constructs an m×m Householder transformation Qv ≡ y from the m-vector v.
// The matrix is Q = Iₘ - b⁻¹uuᵀ with b = suₚ, where p is the pivot index and
// the transformation zeros the elements indexed from l through m. On return v
// holds the quantities defining u, except u[p] which is returned separately.
//
// C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall,
// 1974. (revised 1995 edition) Chapters 10.
func h1(p, l, m int, v []float64, ive int) (up float64) {

	// Check 0 ≤ p < l ≤ m-1
	if p < 0 || p >= l || l >= m {
		return
	}

	lp := uint(p * ive)
	l1 := uint(l * ive)
	lm := uint((m - 1) * ive)
	lv := uint(len(v))
	if m >= 0 && ive > 0 && lp < lv && l1 < lv && lm < lv {
		// Find max(v)
		maxV := math.Abs(v[lp])
		for j := l1; j <= lm; j += uint(ive) {
			maxV = math.Max(math.Abs(v[j]), maxV)
		}
		if maxV <= zero { // v is zero vector
			return
		}

		// Compute (vₚ² + ∑vᵢ²)¹ᐟ² (l ≤ i < m) with normalized v
		invV := one / maxV
		sumV := math.Pow(v[lp]*invV, 2)
		for j := l1; j <= lm; j += uint(ive) {
			sumV += math.Pow(v[j]*invV, 2)
		}

		// Compute -σ(vₚ² + ∑vᵢ²)¹ᐟ² where σ = -sgn(vₚ)
		s := maxV * math.Sqrt(sumV)
		if v[lp] > zero {
			s = -s
		}

		up = v[lp] - s // uₚ = vₚ - s
		v[lp] = s      // yₚ = s
	} else {
		panic("bound check error")
	}
	return
}

// h2 applies the Householder transformation Qc = c + b⁻¹(uᵀc)u built by h1 to
// a set of ncv vectors stored in c with element stride ice and vector stride
// icv.
func h2(p, l, m int,
	u []float64,
	iue int,
	up float64,
	c []float64,
	ice, icv, ncv int) {

	// Check 0 ≤ p < l ≤ m-1
	if p < 0 || p >= l || l >= m || ncv <= 0 {
		return
	}

	// Compute transformation Qc = c + b⁻¹(uᵀc) × u
	b := u[p*iue] * up // b = suₚ
	if b >= zero {
		// Q = Iₘ when b = suₚ = 0
		return
	}

	b = one / b
	base := uint(ice * p)
	incr := uint(ice * (l - p))

	l1 := uint(l * iue)
	lm := uint((m - 1) * iue)
	lu := uint(len(u))
	lc := uint(len(c))
	ln := base + uint(icv)*(uint(ncv)-1)
	if m >= 0 && iue > 0 && l1 < lu && lm < lu && base < lc && ln < lc {
		for j := base; j <= ln; j += uint(icv) {
			// The j-th column vector c = Cᵀⱼ
			c1, cm := j+incr, (j+incr)+uint(m-l-1)*uint(ice)
			if c1 >= lc || cm >= lc {
				panic("bound check error")
			}
			// Compute uᵀc = uₚcₚ + ∑cᵢuᵢ (l ≤ i < m)
			sm := c[j] * up
			for iu, ic := l1, c1; iu <= lm && ic <= cm; {
				sm += c[ic] * u[iu]
				ic += uint(ice)
				iu += uint(iue)
			}
			if sm != zero {
				sm *= b // b⁻¹(uᵀc)
				c[j] += sm * up
				for iu, ic := l1, c1; iu <= lm && ic <= cm; {
					c[ic] += sm * u[iu]
					ic += uint(ice)
					iu += uint(iue)
				}
			}
		}
	} else {
		panic("bound check error")
	}

}

// g1 computes a 2×2 Givens rotation G such that G[x₁ x₂]ᵀ = [r 0]ᵀ.
//
// C.L. Lawson, R.J. Hanson, 'Solving least squares problems' Prentice Hall,
// 1974. (revised 1995 edition) Chapters 3.
func g1(a, b float64) (c, s, sig float64) {
	// Temporary variables
	var xr, yr float64

	if xa, xb := math.Abs(a), math.Abs(b); xa > xb {
		xr = b / a
		yr = math.Sqrt(1 + xr*xr)
		c = math.Copysign(1/yr, a)
		s = c * xr
		sig = xa * yr
	} else if xb > 0 {
		xr = a / b
		yr = math.Sqrt(1 + xr*xr)
		s = math.Copysign(1/yr, b)
		c = s * xr
		sig = xb * yr
	} else {
		s = 1
	}
	return
}

// g2 applies the Givens rotation matrix computed by g1.
func g2(c, s float64, x, y float64) (xr, yr float64) {
	xr = c*x + s*y
	yr = -s*x + c*y
	return
}
