// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenario

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationRoundTrip(t *testing.T) {
	w := []float64{0.1, 0.2, 0.3}
	got := logRot(expRot(w))
	for i := range w {
		assert.InDelta(t, w[i], got[i], 1e-9)
	}

	// identity maps to the zero vector
	zero := logRot(expRot([]float64{0, 0, 0}))
	assert.InDelta(t, 0, math.Sqrt(dot3(zero, zero)), 1e-12)
}

func TestConstantTwistKinematics(t *testing.T) {
	s := &ConstantTwist{W: []float64{0, 0, 0.5}, V: []float64{2, 0, 0}}

	// at t=0 the body frame coincides with navigation
	v0 := s.Velocity(0)
	assert.InDelta(t, 2, v0[0], 1e-12)

	// a = R(W × V): centripetal, pointing along +y at t=0
	a0 := s.Acceleration(0)
	assert.InDelta(t, 0, a0[0], 1e-12)
	assert.InDelta(t, 1, a0[1], 1e-12)

	// speed is preserved under the screw motion
	v1 := s.Velocity(1.3)
	assert.InDelta(t, 2, math.Sqrt(dot3(v1, v1)), 1e-9)
}

func TestGravityCancels(t *testing.T) {
	s := &ConstantTwist{W: []float64{0, 0, 0}, V: []float64{0, 0, 0}}
	r := NewRunner(s, DefaultParams(), 0.01, Bias{})

	// a stationary body measures minus gravity as specific force
	f := r.ActualSpecificForce(0)
	assert.InDelta(t, 0, f[0], 1e-12)
	assert.InDelta(t, 0, f[1], 1e-12)
	assert.InDelta(t, 10, f[2], 1e-12)

	// and integrating it goes nowhere
	st := r.Integrate(1, false)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, st.P[i], 1e-9)
		assert.InDelta(t, 0, st.V[i], 1e-9)
	}
}

func TestIntegrateStraightLine(t *testing.T) {
	s := &ConstantTwist{W: []float64{0, 0, 0}, V: []float64{2, 0, 0}}
	r := NewRunner(s, DefaultParams(), 0.01, Bias{})

	st := r.Integrate(1, false)
	assert.InDelta(t, 2, st.P[0], 1e-6)
	assert.InDelta(t, 2, st.V[0], 1e-9)
	assert.InDelta(t, 0, st.P[1], 1e-9)
}

func TestMeasuredEqualsActualWithoutNoise(t *testing.T) {
	s := &ConstantTwist{W: []float64{0.1, 0, 0}, V: []float64{1, 0, 0}}
	r := NewRunner(s, DefaultParams(), 0.01, Bias{})

	w, f := r.MeasuredOmega(0.5), r.ActualOmega(0.5)
	for i := range w {
		assert.Equal(t, f[i], w[i])
	}
	mf, af := r.MeasuredSpecificForce(0.5), r.ActualSpecificForce(0.5)
	for i := range mf {
		assert.Equal(t, af[i], mf[i])
	}
}

func TestMeasuredBias(t *testing.T) {
	s := &ConstantTwist{W: []float64{0, 0, 0}, V: []float64{0, 0, 0}}
	bias := Bias{Gyroscope: []float64{0.1, 0, 0}, Accelerometer: []float64{0, 0.2, 0}}
	r := NewRunner(s, DefaultParams(), 0.01, bias)

	w := r.MeasuredOmega(0)
	assert.InDelta(t, 0.1, w[0], 1e-12)

	f := r.MeasuredSpecificForce(0)
	assert.InDelta(t, 0.2, f[1], 1e-12)
}

func TestSamplerDeterministic(t *testing.T) {
	a := NewSampler([]float64{0.5, 0.5, 0.5}, 42)
	b := NewSampler([]float64{0.5, 0.5, 0.5}, 42)
	assert.Equal(t, a.Sample(), b.Sample(), "same seed, same draws")
}

func TestEstimateNoiseCovariance(t *testing.T) {
	p := &Params{
		GyroSigmas:  []float64{0.1, 0.1, 0.1},
		AccelSigmas: []float64{0.2, 0.2, 0.2},
		Gravity:     []float64{0, 0, -10},
	}
	s := &ConstantTwist{W: []float64{0, 0, 0}, V: []float64{0, 0, 0}}
	r := NewRunner(s, p, 0.01, Bias{})

	cov := r.EstimateNoiseCovariance(5000)
	require.Equal(t, 6, cov.SymmetricDim())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.01, cov.At(i, i), 2e-3, "gyro variance")
		assert.InDelta(t, 0.04, cov.At(i+3, i+3), 5e-3, "accel variance")
	}
	assert.InDelta(t, 0, cov.At(0, 4), 2e-3, "axes are independent")
}

func TestEstimateCovarianceZeroNoise(t *testing.T) {
	s := &ConstantTwist{W: []float64{0, 0, 0.3}, V: []float64{1, 0, 0}}
	r := NewRunner(s, DefaultParams(), 0.01, Bias{})

	cov := r.EstimateCovariance(0.5, 20)
	require.Equal(t, 9, cov.SymmetricDim())
	for i := 0; i < 9; i++ {
		assert.InDelta(t, 0, cov.At(i, i), 1e-15, "noiseless runs have zero spread")
	}
}

func TestEstimateCovarianceVelocityGrowth(t *testing.T) {
	p := &Params{
		GyroSigmas:  []float64{0, 0, 0},
		AccelSigmas: []float64{0.1, 0.1, 0.1},
		Gravity:     []float64{0, 0, -10},
	}
	s := &ConstantTwist{W: []float64{0, 0, 0}, V: []float64{0, 0, 0}}
	r := NewRunner(s, p, 0.01, Bias{})

	// velocity error variance after T of white accel noise is σ²T
	cov := r.EstimateCovariance(1, 400)
	for i := 6; i < 9; i++ {
		assert.InEpsilon(t, 0.01, cov.At(i, i), 0.5)
	}
}
