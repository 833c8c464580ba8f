// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/qpgraph/gauss"
)

// buildDualGraph assembles the multiplier system at the primal point x0.
// For each constrained variable xᵢ one factor encodes the stationarity
// condition of the Lagrangian,
//
//	∑ₖ ∇cₖ(xᵢ)ᵀ λₖ = ∇f(xᵢ) = ∑ⱼ Gᵢⱼxⱼ - gᵢ
//
// with the gradient accumulated over the free-Hessian subgraph and one
// multiplier variable λₖ per constraint factor, keyed by the factor's
// index in the original graph. Columns of inactive or free rows are
// zeroed and their multiplier entries pinned to zero by auxiliary unit
// rows; without the pins the system would be under-determined.
//
// A constrained variable with no incident free-Hessian factor keeps a
// zero gradient: fully constrained, no free information, not an error.
func (s *Solver) buildDualGraph(working *gauss.Graph, x0 gauss.Values) *gauss.Graph {
	dual := gauss.NewGraph()

	type pin struct{ factor, row int }

	for _, xi := range s.conKeys {
		dim := s.dims[xi]

		// grad f(xᵢ) = ∑ⱼ Gᵢⱼxⱼ - gᵢ over incident free hessians
		grad := make([]float64, dim)
		for _, fi := range s.freeIndex[xi] {
			h := s.freeHessians.At(fi).(*gauss.Hessian)
			i := h.Find(xi)
			for j, xj := range h.Keys() {
				var gij mat.Matrix
				if i <= j {
					gij = h.Info(i, j)
				} else {
					gij = h.Info(j, i).T()
				}
				mulAdd(grad, gij, x0[xj])
			}
			// subtract the linear term gᵢ
			for r, g := range h.Linear(i) {
				grad[r] -= g
			}
		}

		// multiplier terms Aₖ = ∇cₖ(xᵢ)ᵀ from the incident constraints
		var lkeys []gauss.Key
		var lblocks []*mat.Dense
		var pins []pin
		for _, fi := range s.fullIndex[xi] {
			jf, ok := working.JacobianAt(fi)
			if !ok || !jf.Constrained() {
				continue
			}
			ak := transposed(jf.A(jf.Find(xi)))
			for r := 0; r < jf.Rows(); r++ {
				if jf.Tag(r).Hard() {
					continue
				}
				// free or inactive row: no multiplier equation, zero
				// the column and pin the entry later
				zeroCol(ak, r)
				pins = append(pins, pin{fi, r})
			}
			lkeys = append(lkeys, gauss.Key(fi))
			lblocks = append(lblocks, ak)
		}

		var tags []gauss.RowTag
		if s.dual == DualExact {
			tags = gauss.EqualityRows(dim)
		} else {
			tags = gauss.UnitRows(dim)
		}
		dual.Add(gauss.NewJacobian(lkeys, lblocks, grad, tags))

		for _, p := range pins {
			jf, _ := working.JacobianAt(p.factor)
			sel := mat.NewDense(1, jf.Rows(), nil)
			sel.Set(0, p.row, 1)
			dual.Add(gauss.NewJacobian(
				[]gauss.Key{gauss.Key(p.factor)},
				[]*mat.Dense{sel},
				[]float64{0},
				gauss.UnitRows(1)))
		}
	}

	return dual
}

// worstActive scans every row that is an inequality in the original
// graph and active in the working graph, and returns the one with the
// largest multiplier among those exceeding zero. A non-positive
// multiplier never violates optimality, so (-1,-1) signals that the
// current point is optimal. Exact ties keep the first row seen.
func (s *Solver) worstActive(working *gauss.Graph, lambdas gauss.Values) (factorIx, rowIx int) {
	factorIx, rowIx = -1, -1
	maxLambda := 0.0
	for _, fi := range s.constraints {
		org, _ := s.graph.JacobianAt(fi)
		cur, _ := working.JacobianAt(fi)
		lam := lambdas.At(gauss.Key(fi))
		for r := 0; r < org.Rows(); r++ {
			if org.Tag(r).Kind != gauss.RowInequality || !cur.Tag(r).Active {
				continue
			}
			if r < len(lam) && lam[r] > maxLambda {
				factorIx, rowIx, maxLambda = fi, r, lam[r]
			}
		}
	}
	return
}

// mulAdd performs dst += m*x.
func mulAdd(dst []float64, m mat.Matrix, x []float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c && j < len(x); j++ {
			dst[i] += m.At(i, j) * x[j]
		}
	}
}

// transposed returns a dense copy of mᵀ.
func transposed(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	t := mat.NewDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.Set(j, i, m.At(i, j))
		}
	}
	return t
}

// zeroCol clears column j of m.
func zeroCol(m *mat.Dense, j int) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		m.Set(i, j, 0)
	}
}
