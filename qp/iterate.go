// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"fmt"

	"github.com/curioloop/qpgraph/gauss"
)

// Status is the final task status after optimization.
type Status int

const (
	// Converged the returned point satisfies the KKT conditions.
	Converged Status = iota
	// ExceedMaxIter more than max iterations in the active-set loop.
	ExceedMaxIter
)

// Summary contains a summary of the optimization process.
type Summary struct {
	Status  Status // Final task status after optimization.
	NumIter int    // Number of outer iterations performed.
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool         // Whether the optimization converged.
	X       gauss.Values // Final primal point.
	Summary              // Optimization summary.
}

// workspace is the mutable per-call state: a working copy of the graph
// whose row tags reflect the current active set, and the primal point.
type workspace struct {
	working *gauss.Graph
	x       gauss.Values
}

// iterate performs one active-set iteration in place and reports
// whether convergence was reached.
//
//  1. Solve the working graph for a candidate x*.
//  2. No progress possible (x* equals the current point): solve the
//     dual graph at x* and release the worst violating active
//     inequality; converged when there is none.
//  3. Otherwise run the ratio test along p = x* - x, activate the
//     blocking row if any, and step x ← x + alpha*p.
func (s *Solver) iterate(w *workspace) (bool, error) {
	next, err := w.working.Solve()
	if err != nil {
		return false, err
	}

	if next.Equals(w.x, s.stop.Accuracy) {
		lambdas, err := s.buildDualGraph(w.working, next).Solve()
		if err != nil {
			return false, fmt.Errorf("dual solve: %w", err)
		}
		factorIx, rowIx := s.worstActive(w.working, lambdas)
		if !updateWorkingSet(w.working, factorIx, rowIx, false) {
			// every active inequality has a non-positive multiplier
			return true, nil
		}
		s.log.log(LogIter, "release row (%d,%d)\n", factorIx, rowIx)
		return false, nil
	}

	p := next.Sub(w.x)
	alpha, factorIx, rowIx := s.stepSize(w.working, w.x, p)
	if updateWorkingSet(w.working, factorIx, rowIx, true) {
		s.log.log(LogIter, "activate row (%d,%d)\n", factorIx, rowIx)
	}
	w.x.AddScaled(alpha, p)
	s.log.log(LogIter, "step alpha=%g\n", alpha)
	return false, nil
}

// Optimize runs the active-set iteration from the given initial point
// until convergence or the iteration cap. The initial point must assign
// a value to every variable of the graph and should be feasible; each
// call owns a fresh working graph, so concurrent calls on one Solver
// are safe.
//
// On convergence the returned point satisfies the KKT conditions of the
// full problem. A propagated solve failure (for example redundant
// active constraints making the working system singular) is returned as
// an error wrapping gauss.ErrSingular. Hitting the iteration cap is not
// an error: the result carries Status ExceedMaxIter and OK false.
func (s *Solver) Optimize(initial gauss.Values) (*Result, error) {
	for k, d := range s.dims {
		if len(initial.At(k)) != d {
			return nil, fmt.Errorf("qp: variable %d: %w", k, gauss.ErrMissingValue)
		}
	}
	w := &workspace{working: s.graph.Clone(), x: initial.Clone()}

	if len(s.constraints) == 0 {
		// no constraint rows: plain least squares, single solve
		x, err := w.working.Solve()
		if err != nil {
			return nil, fmt.Errorf("qp: %w", err)
		}
		s.log.log(LogIter, "unconstrained solve\n")
		return &Result{OK: true, X: x, Summary: Summary{Converged, 1}}, nil
	}

	for iter := 1; iter <= s.stop.MaxIterations; iter++ {
		s.log.log(LogIter, "iteration %d\n", iter)
		done, err := s.iterate(w)
		if err != nil {
			return nil, fmt.Errorf("qp: iteration %d: %w", iter, err)
		}
		if done {
			s.log.log(LogLast, "converged after %d iterations\n", iter)
			return &Result{OK: true, X: w.x, Summary: Summary{Converged, iter}}, nil
		}
	}
	s.log.log(LogLast, "iteration limit %d exceeded\n", s.stop.MaxIterations)
	return &Result{OK: false, X: w.x, Summary: Summary{ExceedMaxIter, s.stop.MaxIterations}}, nil
}
