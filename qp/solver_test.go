// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/qpgraph/gauss"
)

// squaredPrior encodes the cost (x_k - c)² as ½‖√2·x - √2·c‖².
func squaredPrior(k gauss.Key, c float64) *gauss.Jacobian {
	s2 := math.Sqrt2
	return gauss.NewJacobian(
		[]gauss.Key{k},
		[]*mat.Dense{mat.NewDense(1, 1, []float64{s2})},
		[]float64{s2 * c},
		gauss.UnitRows(1),
	)
}

// row builds a single-row factor over scalar variables.
func row(keys []gauss.Key, coeffs []float64, b float64, tag gauss.RowTag) *gauss.Jacobian {
	blocks := make([]*mat.Dense, len(keys))
	for i, c := range coeffs {
		blocks[i] = mat.NewDense(1, 1, []float64{c})
	}
	return gauss.NewJacobian(keys, blocks, []float64{b}, []gauss.RowTag{tag})
}

// scenarioA: minimize (x1-1)² + (x2-1)² subject to x1 + x2 ≤ 1.
func scenarioA() *gauss.Graph {
	return gauss.NewGraph(
		squaredPrior(1, 1),
		squaredPrior(2, 1),
		row([]gauss.Key{1, 2}, []float64{1, 1}, 1, gauss.Inequality()),
	)
}

// scenarioC: minimize x1² + x2² subject to x1 + x2 = 1.
func scenarioC() *gauss.Graph {
	return gauss.NewGraph(
		squaredPrior(1, 0),
		squaredPrior(2, 0),
		row([]gauss.Key{1, 2}, []float64{1, 1}, 1, gauss.Equality()),
	)
}

func TestNewValidation(t *testing.T) {
	_, err := (&Problem{}).New()
	assert.Error(t, err, "graph is required")

	_, err = (&Problem{Graph: gauss.NewGraph()}).New()
	assert.Error(t, err, "empty graph")

	_, err = (&Problem{Graph: scenarioA(), Stop: Termination{MaxIterations: -1}}).New()
	assert.Error(t, err)

	_, err = (&Problem{Graph: scenarioA(), Dual: DualMode(7)}).New()
	assert.Error(t, err)

	s, err := (&Problem{Graph: scenarioA()}).New()
	require.NoError(t, err)
	assert.Equal(t, defaultMaxIter, s.stop.MaxIterations)
	assert.Equal(t, defaultAccuracy, s.stop.Accuracy)
}

func TestConstraintClassification(t *testing.T) {
	s, err := (&Problem{Graph: scenarioA()}).New()
	require.NoError(t, err)

	assert.Equal(t, []int{2}, s.Constraints())
	assert.Equal(t, []gauss.Key{1, 2}, s.ConstrainedKeys())
}

func TestClassifyUnconstrained(t *testing.T) {
	g := gauss.NewGraph(squaredPrior(1, 2))
	s, err := (&Problem{Graph: g}).New()
	require.NoError(t, err)

	assert.Empty(t, s.Constraints())
	assert.Empty(t, s.ConstrainedKeys())
	assert.Equal(t, 0, s.freeHessians.Len())
}

func TestFreeHessiansDropPureConstraint(t *testing.T) {
	s, err := (&Problem{Graph: scenarioA()}).New()
	require.NoError(t, err)

	// the two priors convert, the pure constraint factor is dropped
	require.Equal(t, 2, s.freeHessians.Len())
	for i := 0; i < s.freeHessians.Len(); i++ {
		_, ok := s.freeHessians.At(i).(*gauss.Hessian)
		assert.True(t, ok)
	}
	assert.Len(t, s.freeIndex[1], 1, "one free factor per variable")
	assert.Len(t, s.freeIndex[2], 1)
}

func TestFreeHessiansMixedFactor(t *testing.T) {
	// one factor carrying a soft row on x1 and an equality row
	mixed := gauss.NewJacobian(
		[]gauss.Key{1},
		[]*mat.Dense{mat.NewDense(2, 1, []float64{1, 1})},
		[]float64{3, 0},
		[]gauss.RowTag{gauss.Free(1), gauss.Equality()},
	)
	s, err := (&Problem{Graph: gauss.NewGraph(mixed)}).New()
	require.NoError(t, err)

	require.Equal(t, 1, s.freeHessians.Len())
	h := s.freeHessians.At(0).(*gauss.Hessian)
	assert.InDelta(t, 1, h.Info(0, 0).At(0, 0), 1e-12, "only the soft row contributes")
	assert.InDelta(t, 3, h.Linear(0)[0], 1e-12)
}

func TestFreeHessiansKeepQuadratic(t *testing.T) {
	h := gauss.HessianFromJacobian(squaredPrior(1, 1))
	g := gauss.NewGraph(
		h,
		row([]gauss.Key{1}, []float64{1}, 0, gauss.Equality()),
	)
	s, err := (&Problem{Graph: g}).New()
	require.NoError(t, err)

	require.Equal(t, 1, s.freeHessians.Len())
	assert.Same(t, h, s.freeHessians.At(0), "quadratic factors are included unchanged")
}

func TestOriginalGraphNeverMutated(t *testing.T) {
	g := scenarioA()
	s, err := (&Problem{Graph: g}).New()
	require.NoError(t, err)

	_, err = s.Optimize(gauss.Values{1: {0}, 2: {0}})
	require.NoError(t, err)

	jf, _ := g.JacobianAt(2)
	assert.Equal(t, gauss.Inequality(), jf.Tag(0), "original row tags are ground truth")
}
