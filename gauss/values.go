// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import (
	"math"
	"slices"
)

// Key identifies a variable in a factor graph.
type Key uint64

// Values maps each variable key to its value vector.
// A primal solution maps variable keys to estimates; a dual solution maps
// constraint-factor indices to Lagrange multiplier vectors.
type Values map[Key][]float64

// At returns the vector stored under k, or nil when absent.
func (v Values) At(k Key) []float64 {
	return v[k]
}

// Clone returns a deep copy of v.
func (v Values) Clone() Values {
	c := make(Values, len(v))
	for k, x := range v {
		c[k] = slices.Clone(x)
	}
	return c
}

// Keys returns the keys of v in ascending order.
func (v Values) Keys() []Key {
	keys := make([]Key, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Equals reports whether v and o hold the same keys and every entry
// agrees within tol.
func (v Values) Equals(o Values, tol float64) bool {
	if len(v) != len(o) {
		return false
	}
	for k, x := range v {
		y, ok := o[k]
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Abs(x[i]-y[i]) > tol {
				return false
			}
		}
	}
	return true
}

// Sub returns v - o over the keys of v.
func (v Values) Sub(o Values) Values {
	d := make(Values, len(v))
	for k, x := range v {
		y := o[k]
		z := slices.Clone(x)
		axpy(-1, y, z)
		d[k] = z
	}
	return d
}

// AddScaled performs v += alpha*p in place.
func (v Values) AddScaled(alpha float64, p Values) {
	for k, x := range p {
		axpy(alpha, x, v[k])
	}
}

// axpy performs y += a*x over min(len(x), len(y)) entries.
func axpy(a float64, x, y []float64) {
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		y[i] += a * x[i]
	}
}

// dot computes the inner product of x and y.
func dot(x, y []float64) (d float64) {
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		d += x[i] * y[i]
	}
	return
}
