// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenario

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws zero-mean Gaussian vectors with a diagonal covariance,
// one independent normal per axis. A fixed seed makes runs repeatable.
type Sampler struct {
	dists []distuv.Normal
}

// NewSampler builds a sampler with the given per-axis standard
// deviations and seed.
func NewSampler(sigmas []float64, seed uint64) *Sampler {
	src := rand.NewSource(seed)
	s := &Sampler{dists: make([]distuv.Normal, len(sigmas))}
	for i, sigma := range sigmas {
		s.dists[i] = distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	}
	return s
}

// Sample draws one vector.
func (s *Sampler) Sample() []float64 {
	x := make([]float64, len(s.dists))
	for i, d := range s.dists {
		if d.Sigma > 0 {
			x[i] = d.Rand()
		}
	}
	return x
}
