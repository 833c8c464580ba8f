// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenario generates inertial measurements along known
// trajectories: a simple sampling helper for testing estimation
// pipelines, with no algorithmic depth.
package scenario

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scenario describes a trajectory as pose and velocity over time.
// Rotation is the body-to-navigation rotation nRb; Omega is expressed
// in the body frame, Velocity and Acceleration in the navigation frame.
type Scenario interface {
	Rotation(t float64) *mat.Dense
	Omega(t float64) []float64
	Velocity(t float64) []float64
	Acceleration(t float64) []float64
}

// ConstantTwist is a scenario with constant body-frame angular and
// linear velocity, the screw motion exp(t·[W V]).
type ConstantTwist struct {
	W, V []float64 // body frame
}

// Rotation returns exp(t[W]×).
func (s *ConstantTwist) Rotation(t float64) *mat.Dense {
	return expRot(scale3(s.W, t))
}

// Omega returns the constant body angular velocity.
func (s *ConstantTwist) Omega(float64) []float64 { return s.W }

// Velocity returns the linear velocity rotated into the navigation frame.
func (s *ConstantTwist) Velocity(t float64) []float64 {
	return matVec(s.Rotation(t), s.V)
}

// Acceleration returns d/dt(R V) = R(W × V).
func (s *ConstantTwist) Acceleration(t float64) []float64 {
	return matVec(s.Rotation(t), cross(s.W, s.V))
}

// expRot is the Rodrigues formula exp([w]×).
func expRot(w []float64) *mat.Dense {
	theta := math.Sqrt(dot3(w, w))
	r := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if theta == 0 {
		return r
	}
	a := math.Sin(theta) / theta
	b := (1 - math.Cos(theta)) / (theta * theta)
	k := skew(w)
	var k2 mat.Dense
	k2.Mul(k, k)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, r.At(i, j)+a*k.At(i, j)+b*k2.At(i, j))
		}
	}
	return r
}

// logRot recovers the rotation vector of R, the inverse of expRot.
// Accurate away from theta = pi, which is all the sampling needs.
func logRot(r *mat.Dense) []float64 {
	c := (r.At(0, 0) + r.At(1, 1) + r.At(2, 2) - 1) / 2
	c = math.Max(-1, math.Min(1, c))
	theta := math.Acos(c)
	w := []float64{
		r.At(2, 1) - r.At(1, 2),
		r.At(0, 2) - r.At(2, 0),
		r.At(1, 0) - r.At(0, 1),
	}
	if theta < 1e-10 {
		return scale3(w, 0.5)
	}
	return scale3(w, theta/(2*math.Sin(theta)))
}

func skew(w []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -w[2], w[1],
		w[2], 0, -w[0],
		-w[1], w[0], 0,
	})
}

func add3(x, y []float64) []float64 {
	return []float64{x[0] + y[0], x[1] + y[1], x[2] + y[2]}
}

func sub3(x, y []float64) []float64 {
	return []float64{x[0] - y[0], x[1] - y[1], x[2] - y[2]}
}

func scale3(x []float64, a float64) []float64 {
	return []float64{a * x[0], a * x[1], a * x[2]}
}

func dot3(x, y []float64) float64 {
	return x[0]*y[0] + x[1]*y[1] + x[2]*y[2]
}

func cross(x, y []float64) []float64 {
	return []float64{
		x[1]*y[2] - x[2]*y[1],
		x[2]*y[0] - x[0]*y[2],
		x[0]*y[1] - x[1]*y[0],
	}
}

// matVec returns m·x for a 3×3 matrix.
func matVec(m *mat.Dense, x []float64) []float64 {
	y := make([]float64, 3)
	for i := 0; i < 3; i++ {
		y[i] = m.At(i, 0)*x[0] + m.At(i, 1)*x[1] + m.At(i, 2)*x[2]
	}
	return y
}

// matTVec returns mᵀ·x for a 3×3 matrix.
func matTVec(m *mat.Dense, x []float64) []float64 {
	y := make([]float64, 3)
	for i := 0; i < 3; i++ {
		y[i] = m.At(0, i)*x[0] + m.At(1, i)*x[1] + m.At(2, i)*x[2]
	}
	return y
}
