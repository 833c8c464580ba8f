// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenario

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Bias is a constant sensor bias added to every measurement.
type Bias struct {
	Gyroscope     []float64
	Accelerometer []float64
}

// Params holds the sensor noise densities and gravity.
type Params struct {
	GyroSigmas  []float64 // rad/s/√Hz per axis
	AccelSigmas []float64 // m/s²/√Hz per axis
	Gravity     []float64 // navigation frame
}

// DefaultParams returns noiseless sensors with gravity along negative Z,
// g = 10 for easy debugging.
func DefaultParams() *Params {
	return &Params{
		GyroSigmas:  []float64{0, 0, 0},
		AccelSigmas: []float64{0, 0, 0},
		Gravity:     []float64{0, 0, -10},
	}
}

// NavState is an integrated navigation state.
type NavState struct {
	R *mat.Dense // body-to-navigation rotation
	P []float64  // position, navigation frame
	V []float64  // velocity, navigation frame
}

// Runner takes a trajectory scenario and generates IMU measurements
// along it, either exact or corrupted by bias and sampled noise.
type Runner struct {
	scenario Scenario
	params   *Params
	dt       float64
	sqrtDt   float64
	bias     Bias

	gyroSampler  *Sampler
	accelSampler *Sampler
}

// NewRunner builds a runner sampling at interval dt (default 1/100 s).
func NewRunner(s Scenario, p *Params, dt float64, bias Bias) *Runner {
	if dt <= 0 {
		dt = 1.0 / 100.0
	}
	if bias.Gyroscope == nil {
		bias.Gyroscope = make([]float64, 3)
	}
	if bias.Accelerometer == nil {
		bias.Accelerometer = make([]float64, 3)
	}
	return &Runner{
		scenario: s,
		params:   p,
		dt:       dt,
		sqrtDt:   math.Sqrt(dt),
		bias:     bias,
		// fixed seeds keep Monte Carlo runs repeatable
		gyroSampler:  NewSampler(p.GyroSigmas, 10),
		accelSampler: NewSampler(p.AccelSigmas, 29284),
	}
}

// Dt returns the sampling interval.
func (r *Runner) Dt() float64 { return r.dt }

// ActualOmega is the exact angular velocity in the body frame: what a
// perfect gyroscope would measure.
func (r *Runner) ActualOmega(t float64) []float64 {
	return r.scenario.Omega(t)
}

// ActualSpecificForce is the exact specific force in the body frame:
// acceleration minus gravity, rotated into the body.
func (r *Runner) ActualSpecificForce(t float64) []float64 {
	an := sub3(r.scenario.Acceleration(t), r.params.Gravity)
	return matTVec(r.scenario.Rotation(t), an)
}

// MeasuredOmega is the gyro reading corrupted by bias and sampled
// noise, scaled by 1/√dt to keep the discrete noise density.
func (r *Runner) MeasuredOmega(t float64) []float64 {
	w := add3(r.ActualOmega(t), r.bias.Gyroscope)
	return add3(w, scale3(r.gyroSampler.Sample(), 1/r.sqrtDt))
}

// MeasuredSpecificForce is the accelerometer reading corrupted by bias
// and sampled noise.
func (r *Runner) MeasuredSpecificForce(t float64) []float64 {
	f := add3(r.ActualSpecificForce(t), r.bias.Accelerometer)
	return add3(f, scale3(r.accelSampler.Sample(), 1/r.sqrtDt))
}

// Integrate accumulates measurements over [0,T] into a navigation
// state, starting from the scenario pose at t = 0. With corrupted set,
// the measured (noisy, biased) readings are integrated instead of the
// exact ones.
func (r *Runner) Integrate(tEnd float64, corrupted bool) NavState {
	state := NavState{
		R: r.scenario.Rotation(0),
		P: make([]float64, 3),
		V: r.scenario.Velocity(0),
	}
	for t := 0.0; t < tEnd; t += r.dt {
		var w, f []float64
		if corrupted {
			w, f = r.MeasuredOmega(t), r.MeasuredSpecificForce(t)
		} else {
			w, f = r.ActualOmega(t), r.ActualSpecificForce(t)
		}
		an := add3(matVec(state.R, f), r.params.Gravity)
		state.P = add3(state.P, add3(scale3(state.V, r.dt), scale3(an, 0.5*r.dt*r.dt)))
		state.V = add3(state.V, scale3(an, r.dt))
		var next mat.Dense
		next.Mul(state.R, expRot(scale3(w, r.dt)))
		state.R = &next
	}
	return state
}

// EstimateCovariance runs n corrupted integrations over [0,T] and
// returns the 9×9 sample covariance of the error against the exact
// integration, ordered rotation, position, velocity.
func (r *Runner) EstimateCovariance(tEnd float64, n int) *mat.SymDense {
	ref := r.Integrate(tEnd, false)
	data := mat.NewDense(n, 9, nil)
	row := make([]float64, 9)
	for i := 0; i < n; i++ {
		s := r.Integrate(tEnd, true)
		var dR mat.Dense
		dR.Mul(ref.R.T(), s.R)
		copy(row[0:3], logRot(&dR))
		copy(row[3:6], sub3(s.P, ref.P))
		copy(row[6:9], sub3(s.V, ref.V))
		data.SetRow(i, row)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	return &cov
}

// EstimateNoiseCovariance draws n raw sampler outputs and returns their
// 6×6 sample covariance, a sanity check that the samplers realize the
// configured densities.
func (r *Runner) EstimateNoiseCovariance(n int) *mat.SymDense {
	data := mat.NewDense(n, 6, nil)
	row := make([]float64, 6)
	for i := 0; i < n; i++ {
		copy(row[0:3], r.gyroSampler.Sample())
		copy(row[3:6], r.accelSampler.Sample())
		data.SetRow(i, row)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	return &cov
}
