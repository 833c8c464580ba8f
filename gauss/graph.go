// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import "slices"

// Graph is an ordered list of Gaussian factors. Factor indices are
// stable: they double as multiplier keys while solving QPs.
type Graph struct {
	factors []Factor
}

// NewGraph builds a graph from the given factors.
func NewGraph(factors ...Factor) *Graph {
	return &Graph{factors: factors}
}

// Add appends a factor and returns its index.
func (g *Graph) Add(f Factor) int {
	g.factors = append(g.factors, f)
	return len(g.factors) - 1
}

// Len returns the number of factors.
func (g *Graph) Len() int { return len(g.factors) }

// At returns the i-th factor.
func (g *Graph) At(i int) Factor { return g.factors[i] }

// JacobianAt returns the i-th factor as a Jacobian, when it is one.
func (g *Graph) JacobianAt(i int) (*Jacobian, bool) {
	j, ok := g.factors[i].(*Jacobian)
	return j, ok
}

// Clone returns a working copy whose row tags can be flipped without
// affecting g.
func (g *Graph) Clone() *Graph {
	c := &Graph{factors: make([]Factor, len(g.factors))}
	for i, f := range g.factors {
		c.factors[i] = f.Clone()
	}
	return c
}

// VariableIndex maps each variable key to the indices of its incident
// factors, in graph order.
type VariableIndex map[Key][]int

// VariableIndex builds the variable-to-factors index of g.
func (g *Graph) VariableIndex() VariableIndex {
	idx := make(VariableIndex)
	for i, f := range g.factors {
		for _, k := range f.Keys() {
			idx[k] = append(idx[k], i)
		}
	}
	return idx
}

// Dims returns the value dimension of every variable in g.
func (g *Graph) Dims() map[Key]int {
	dims := make(map[Key]int)
	for _, f := range g.factors {
		for i, k := range f.Keys() {
			dims[k] = f.Dim(i)
		}
	}
	return dims
}

// sortedKeys returns the keys of idx in ascending order, for
// deterministic iteration.
func sortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
