// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Factor is one term of a Gaussian factor graph: either a Jacobian
// factor ½‖W(Ax - b)‖² with tagged constraint rows, or a Hessian factor
// ½xᵀGx - gᵀx + ½f in quadratic form.
type Factor interface {
	// Keys returns the ordered variable keys of the factor.
	Keys() []Key
	// Find returns the position of k in the factor ordering, or -1.
	Find(k Key) int
	// Dim returns the value dimension of the i-th variable.
	Dim(i int) int
	// Clone returns a copy safe to mutate independently.
	Clone() Factor
}

// Jacobian is a block linear factor A₁x₁ + ··· + Aₚxₚ - b with one
// RowTag per row. The blocks and right-hand side are immutable once
// built; only the tags change while solving.
type Jacobian struct {
	keys   []Key
	blocks []*mat.Dense // per key: rows × Dim(key)
	b      []float64
	tags   []RowTag
}

// NewJacobian builds a Jacobian factor. It panics when the block shapes
// disagree with b and tags; anything subtler is left to Solve.
func NewJacobian(keys []Key, blocks []*mat.Dense, b []float64, tags []RowTag) *Jacobian {
	if len(keys) != len(blocks) || len(b) != len(tags) {
		panic("gauss: jacobian shape mismatch")
	}
	for _, a := range blocks {
		if r, _ := a.Dims(); r != len(b) {
			panic("gauss: jacobian block rows mismatch")
		}
	}
	return &Jacobian{keys: keys, blocks: blocks, b: b, tags: tags}
}

// Keys returns the ordered variable keys.
func (j *Jacobian) Keys() []Key { return j.keys }

// Find returns the position of k in the factor ordering, or -1.
func (j *Jacobian) Find(k Key) int {
	return slices.Index(j.keys, k)
}

// Dim returns the value dimension of the i-th variable.
func (j *Jacobian) Dim(i int) int {
	_, c := j.blocks[i].Dims()
	return c
}

// Rows returns the number of rows of the factor.
func (j *Jacobian) Rows() int { return len(j.b) }

// A returns the block for the i-th variable.
func (j *Jacobian) A(i int) *mat.Dense { return j.blocks[i] }

// B returns the right-hand side vector.
func (j *Jacobian) B() []float64 { return j.b }

// Tag returns the status of row r.
func (j *Jacobian) Tag(r int) RowTag { return j.tags[r] }

// SetTag overwrites the status of row r.
func (j *Jacobian) SetTag(r int, t RowTag) { j.tags[r] = t }

// Constrained reports whether any row carries a constraint tag.
func (j *Jacobian) Constrained() bool {
	for _, t := range j.tags {
		if t.Constrained() {
			return true
		}
	}
	return false
}

// DotRow computes aᵣᵀx, the product of row r with the stacked values of
// the factor variables. Missing entries of x are treated as zero.
func (j *Jacobian) DotRow(r int, x Values) (d float64) {
	for i, k := range j.keys {
		d += dot(j.blocks[i].RawRowView(r), x[k])
	}
	return
}

// Clone copies the row tags so the clone's working status can change
// without touching the original. Blocks and b are shared: they are
// never mutated.
func (j *Jacobian) Clone() Factor {
	return &Jacobian{keys: j.keys, blocks: j.blocks, b: j.b, tags: slices.Clone(j.tags)}
}
