// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"
	"math"
)

const defaultTolerance = 1e-9

// Stats summarizes the work a Solver has performed. Projections over a
// region without stacked rows copy the goal and appear in neither counter.
type Stats struct {
	// ColdSolves counts projections answered by the from-scratch LDP path.
	ColdSolves int
	// WarmSolves counts projections answered by the warm-started
	// active-set path.
	WarmSolves int
	// Iterations is the total number of working-set changes across all
	// warm solves.
	Iterations int
}

// Solver computes Euclidean projections onto a fixed Region, reusing work
// across calls: each successful Project seeds the next one with its binding
// constraints and solution point.
//
// A Solver owns mutable iterate and cache state, so concurrent Project
// calls on one Solver require external synchronization. To project in
// parallel, give each goroutine its own Solver over the shared Region.
type Solver struct {
	region *Region

	// MaxIterations bounds the NNLS iterations of a cold solve and the
	// working-set changes of a warm solve. Zero picks a default
	// proportional to the number of stacked rows.
	MaxIterations int
	// Tolerance is the feasibility and optimality tolerance of the KKT
	// checks. Zero means 1e-9.
	Tolerance float64
	// Logger optionally traces solves. Nil disables all output.
	Logger *Logger

	warm  bool
	xprev []float64 // last solution, the next warm-start point
	wset  []int     // binding rows of the last solution
	lam   []float64 // multipliers of the stacked rows, last solution
	stats Stats

	hh []float64 // m, shifted right side of the cold solve
	lw []float64 // LDP workspace
	jw []int
	as asWork
}

// NewSolver creates a projection solver over the region. All working
// storage is allocated up front and reused by every Project call.
func NewSolver(r *Region) *Solver {
	return &Solver{
		region: r,
		xprev:  make([]float64, r.n),
		wset:   make([]int, 0, r.n),
		lam:    make([]float64, r.m),
		hh:     make([]float64, r.m),
		lw:     make([]float64, ldpWorkLen(r.m, r.n)),
		jw:     make([]int, r.m),
		as:     newASWork(r.m, r.n),
	}
}

// Region returns the region this solver projects onto.
func (s *Solver) Region() *Region { return s.region }

// Project returns the feasible point closest to goal in Euclidean distance.
// The result is a fresh slice owned by the caller.
//
// The first call (and any call after Reset or a failure) solves from
// scratch; later calls are seeded with the previous solution. The seed
// never changes the result, only the amount of work: the problem is
// strictly convex with a unique optimum, and the warm path verifies full
// optimality conditions before accepting. A warm attempt that runs into
// numerical trouble falls back to one cold solve before the call reports
// ErrSolveFailure.
func (s *Solver) Project(goal []float64) ([]float64, error) {

	r := s.region
	if len(goal) != r.n {
		return nil, fmt.Errorf("%w: len(goal)=%d, region dimension is %d", ErrDimensionMismatch, len(goal), r.n)
	}
	// A NaN component would drain the warm working set through always-false
	// comparisons; reject here so both paths fail alike.
	for i, v := range goal {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: goal component %d is not finite", ErrSolveFailure, i)
		}
	}

	x := make([]float64, r.n)

	if r.m == 0 { // unconstrained, the projection is the goal itself
		copy(x, goal)
		copy(s.xprev, x)
		s.wset = s.wset[:0]
		s.warm = true
		return x, nil
	}

	if s.warm && s.warmSolve(goal, x) {
		return x, nil
	}

	mode := r.coldProject(goal, x, s.lam, s.hh, s.lw, s.jw, s.MaxIterations)
	if mode != modeSolved {
		s.Reset()
		return nil, fmt.Errorf("%w: %v", ErrSolveFailure, mode)
	}

	// Seed the next call with the rows this solution binds.
	copy(s.xprev, x)
	s.wset = s.wset[:0]
	tol := s.tolerance()
	for j := 0; j < r.m && len(s.wset) < r.n; j++ {
		if s.lam[j] > tol {
			s.wset = append(s.wset, j)
		}
	}
	s.warm = true
	s.stats.ColdSolves++
	if s.Logger.enable(LogLast) {
		s.Logger.log("cold solve accepted: %d active rows\n", len(s.wset))
	}
	return x, nil
}

// Multipliers returns the Lagrange multipliers of the stacked inequality
// rows for the most recent successful projection, in region row order
// (linear rows, then finite lower bounds, then finite upper bounds). It
// returns nil before the first successful Project.
func (s *Solver) Multipliers() []float64 {
	if !s.warm {
		return nil
	}
	return append([]float64(nil), s.lam...)
}

// Stats returns cumulative solve counters.
func (s *Solver) Stats() Stats { return s.stats }

// Reset drops the warm-start cache; the next Project solves from scratch.
func (s *Solver) Reset() {
	s.warm = false
	s.wset = s.wset[:0]
}

func (s *Solver) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return defaultTolerance
}
