// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qp solves convex quadratic programs expressed as Gaussian
// factor graphs with a primal-dual active-set method.
//
// minimize ½xᵀGx - gᵀx subject to
//   - equality rows: aⱼᵀx = bⱼ
//   - inequality rows: aⱼᵀx ≤ bⱼ
//
// where the objective and the constraint rows are scattered over the
// factors of a sparse graph. Each outer iteration solves the working
// graph with the current active set enforced as equalities, then either
// steps toward the minimizer (bounded by a ratio test over the inactive
// inequalities) or, at a stationary point of the working set, recovers
// Lagrange multipliers from an auxiliary dual graph and releases the
// most violating active inequality. Convergence is declared when no
// active inequality carries a positive multiplier.
//
// # Reference
//
// J. Nocedal, S.J. Wright: "Numerical Optimization", 2nd ed.,
// Springer, 2006. Chapter 16.5 (active-set methods for convex QP).
package qp

import (
	"errors"
	"slices"

	"github.com/curioloop/qpgraph/gauss"
)

// DualMode selects how the multiplier system is solved.
type DualMode int

const (
	// DualExact enforces the stationarity equations as hard rows, so
	// the multipliers satisfy them exactly.
	DualExact DualMode = iota
	// DualLeastSquares solves the stationarity equations with unit
	// weights: faster, approximate.
	DualLeastSquares
)

// Termination specifies the stopping criteria of the active-set loop.
type Termination struct {
	// The iteration stops with ExceedMaxIter when the number of outer
	// iterations exceeds the limit. The cap is the safeguard against
	// cycling on degenerate active sets.
	MaxIterations int
	// Two primal points closer than Accuracy in every entry are
	// considered equal when testing for progress.
	Accuracy float64
}

const (
	defaultMaxIter  = 100
	defaultAccuracy = 1e-5
)

// Problem specifies a QP for the solver.
type Problem struct {
	// Graph holds the quadratic cost factors and the constraint-bearing
	// factors. It is never mutated by the solver.
	Graph *gauss.Graph
	// Stop holds the termination criteria. Zero values select the
	// defaults (100 iterations, 1e-5).
	Stop Termination
	// Dual selects the multiplier solve mode.
	Dual DualMode
	// Log receives per-iteration progress when non-nil.
	Log *Logger
}

// Solver is an active-set QP solver over a factor graph. The original
// graph and the derived free-Hessian subgraph are immutable after New,
// so a single Solver may serve concurrent Optimize calls.
type Solver struct {
	graph *gauss.Graph
	stop  Termination
	dual  DualMode
	log   *Logger

	// indices of constraint-bearing factors in graph order
	constraints []int
	// keys of variables appearing in some constraint, ascending
	conKeys []gauss.Key
	// value dimension of every variable
	dims map[gauss.Key]int
	// variable → incident factors of the original graph
	fullIndex gauss.VariableIndex
	// quadratic-only subgraph holding the unconstrained information of
	// the constrained variables, used to compute gradients for duals
	freeHessians *gauss.Graph
	// variable → incident factors of the free-Hessian subgraph
	freeIndex gauss.VariableIndex
}

// New validates the problem and builds the solver: classifies the
// constraint rows, collects the constrained variables and derives the
// free-Hessian subgraph once.
func (p *Problem) New() (*Solver, error) {
	stop := p.Stop
	if stop.MaxIterations == 0 {
		stop.MaxIterations = defaultMaxIter
	}
	if stop.Accuracy == 0 {
		stop.Accuracy = defaultAccuracy
	}

	switch {
	case p.Graph == nil || p.Graph.Len() == 0:
		return nil, errors.New("qp: problem graph is required")
	case stop.MaxIterations < 0:
		return nil, errors.New("qp: max iterations must be positive")
	case stop.Accuracy < 0:
		return nil, errors.New("qp: accuracy must be positive")
	case p.Dual != DualExact && p.Dual != DualLeastSquares:
		return nil, errors.New("qp: unknown dual mode")
	}

	s := &Solver{
		graph:     p.Graph,
		stop:      stop,
		dual:      p.Dual,
		log:       p.Log,
		dims:      p.Graph.Dims(),
		fullIndex: p.Graph.VariableIndex(),
	}

	conKeys := make(map[gauss.Key]bool)
	for i := 0; i < p.Graph.Len(); i++ {
		jf, ok := p.Graph.JacobianAt(i)
		if !ok || !jf.Constrained() {
			continue
		}
		s.constraints = append(s.constraints, i)
		for _, k := range jf.Keys() {
			conKeys[k] = true
		}
	}
	for k := range conKeys {
		s.conKeys = append(s.conKeys, k)
	}
	slices.Sort(s.conKeys)

	s.freeHessians = s.freeHessiansOf(conKeys)
	s.freeIndex = s.freeHessians.VariableIndex()

	return s, nil
}

// freeHessiansOf collects every factor touching a constrained variable
// and converts it into quadratic form with the constraint rows
// stripped. A factor whose rows are all constraints carries no
// unconstrained information and is dropped.
func (s *Solver) freeHessiansOf(conKeys map[gauss.Key]bool) *gauss.Graph {
	touched := make(map[int]bool)
	for k := range conKeys {
		for _, fi := range s.fullIndex[k] {
			touched[fi] = true
		}
	}
	order := make([]int, 0, len(touched))
	for fi := range touched {
		order = append(order, fi)
	}
	slices.Sort(order)

	sub := gauss.NewGraph()
	for _, fi := range order {
		switch f := s.graph.At(fi).(type) {
		case *gauss.Hessian:
			sub.Add(f)
		case *gauss.Jacobian:
			if f.Constrained() && !hasFreeRow(f) {
				continue
			}
			// conversion zeroes the precision of constraint rows, so a
			// mixed factor contributes only its soft part
			sub.Add(gauss.HessianFromJacobian(f))
		}
	}
	return sub
}

func hasFreeRow(j *gauss.Jacobian) bool {
	for r := 0; r < j.Rows(); r++ {
		if j.Tag(r).Kind == gauss.RowFree {
			return true
		}
	}
	return false
}

// Constraints returns the indices of the constraint-bearing factors.
func (s *Solver) Constraints() []int { return slices.Clone(s.constraints) }

// ConstrainedKeys returns the variables appearing in some constraint.
func (s *Solver) ConstrainedKeys() []gauss.Key { return slices.Clone(s.conKeys) }
