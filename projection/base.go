// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package projection computes Euclidean projections onto a fixed convex
// region {𝐱 : 𝐱ₘᵢₙ ≤ 𝐱 ≤ 𝐱ₘₐₓ, 𝐀𝐱 ≤ 𝐛}.
//
// A Region is validated and its problem structure assembled once; a Solver
// then answers many Project calls against it, warm-starting each solve from
// the previous one. The underlying kernels are a dense Lawson-Hanson
// NNLS/LDP pair for cold solves and a primal active-set iteration for
// warm-started re-solves.
package projection

import (
	"errors"
	"math"
)

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	eps  = float64(7)/3 - float64(4)/3 - 1.
)

var sqrtEps = math.Sqrt(eps)

// Errors surfaced by Region construction and Solver.Project.
var (
	// ErrDimensionMismatch reports mutually inconsistent input shapes.
	// Not retryable without fixing the inputs.
	ErrDimensionMismatch = errors.New("projection: dimension mismatch")
	// ErrInfeasibleRegion reports a provably empty constraint set.
	// Not retryable without changing the constraints.
	ErrInfeasibleRegion = errors.New("projection: infeasible region")
	// ErrSolveFailure reports a solve that could not reach an optimal
	// status within the iteration and tolerance budget. The region itself
	// is known non-empty, so this signals numerical difficulty on a
	// specific goal; a retry after Solver.Reset may succeed.
	ErrSolveFailure = errors.New("projection: solve failure")
)

type solveMode int

const (
	// modeNoop trivial problem, nothing to solve.
	modeNoop solveMode = iota
	// modeSolved problem solved successfully.
	modeSolved
	// modeBadArgument input dimension unacceptable.
	modeBadArgument
	// modeExceedMaxIter more than max iterations in NNLS.
	modeExceedMaxIter
	// modeIncompatible inequality constraints incompatible.
	modeIncompatible
)

func (m solveMode) String() string {
	switch m {
	case modeNoop:
		return "noop"
	case modeSolved:
		return "solved"
	case modeBadArgument:
		return "bad argument"
	case modeExceedMaxIter:
		return "iteration budget exceeded"
	case modeIncompatible:
		return "incompatible constraints"
	}
	return "unknown"
}
