// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import (
	"gonum.org/v1/gonum/mat"
)

// Hessian is a quadratic factor ½xᵀGx - gᵀx + ½f over the stacked
// variables of the factor. Only the upper-triangular blocks Gᵢⱼ (i ≤ j)
// are stored; a reader needing Gⱼᵢ takes the transpose.
type Hessian struct {
	keys []Key
	dims []int
	info [][]*mat.Dense // info[i][j] for j ≥ i
	lin  [][]float64    // linear term gᵢ per variable
	f    float64
}

// Keys returns the ordered variable keys.
func (h *Hessian) Keys() []Key { return h.keys }

// Find returns the position of k in the factor ordering, or -1.
func (h *Hessian) Find(k Key) int {
	for i, key := range h.keys {
		if key == k {
			return i
		}
	}
	return -1
}

// Dim returns the value dimension of the i-th variable.
func (h *Hessian) Dim(i int) int { return h.dims[i] }

// Info returns the information block Gᵢⱼ. It panics unless i ≤ j.
func (h *Hessian) Info(i, j int) *mat.Dense {
	if i > j {
		panic("gauss: hessian info is upper triangular, transpose Info(j,i)")
	}
	return h.info[i][j]
}

// Linear returns the linear term gᵢ of the i-th variable.
func (h *Hessian) Linear(i int) []float64 { return h.lin[i] }

// Constant returns the scalar term f.
func (h *Hessian) Constant() float64 { return h.f }

// Clone returns the factor itself: a Hessian has no mutable state.
func (h *Hessian) Clone() Factor { return h }

// HessianFromJacobian converts a Jacobian factor into quadratic
// normal-equations form G = AᵀWA, g = AᵀWb, f = bᵀWb, where W holds the
// row precisions. Constraint rows have zero precision, so a mixed factor
// converts into the free-information part only and a fully constrained
// factor converts into an all-zero quadratic.
func HessianFromJacobian(j *Jacobian) *Hessian {
	p := len(j.keys)
	h := &Hessian{
		keys: j.keys,
		dims: make([]int, p),
		info: make([][]*mat.Dense, p),
		lin:  make([][]float64, p),
	}

	w := make([]float64, j.Rows())
	for r := range w {
		w[r] = j.tags[r].Precision()
	}

	for i := 0; i < p; i++ {
		h.dims[i] = j.Dim(i)
		h.info[i] = make([]*mat.Dense, p)
		h.lin[i] = make([]float64, h.dims[i])
	}
	for i := 0; i < p; i++ {
		for jj := i; jj < p; jj++ {
			h.info[i][jj] = mat.NewDense(h.dims[i], h.dims[jj], nil)
		}
	}

	for r := 0; r < j.Rows(); r++ {
		if w[r] == 0 {
			continue
		}
		wb := w[r] * j.b[r]
		for i := 0; i < p; i++ {
			ai := j.blocks[i].RawRowView(r)
			axpy(wb, ai, h.lin[i])
			for jj := i; jj < p; jj++ {
				g := h.info[i][jj]
				aj := j.blocks[jj].RawRowView(r)
				// Gᵢⱼ += w aᵢ ⊗ aⱼ
				for ri, vi := range ai {
					row := g.RawRowView(ri)
					axpy(w[r]*vi, aj, row)
				}
			}
		}
		h.f += wb * j.b[r]
	}

	return h
}
