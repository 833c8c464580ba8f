// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import "github.com/curioloop/qpgraph/gauss"

// updateWorkingSet flips the active status of one inequality row of the
// working graph in place: active joins the working set as an equality,
// inactive releases it. Negative indices are the "no target identified"
// sentinel; the update is not applied and false is returned.
func updateWorkingSet(working *gauss.Graph, factorIx, rowIx int, active bool) bool {
	if factorIx < 0 || rowIx < 0 {
		return false
	}
	jf, ok := working.JacobianAt(factorIx)
	if !ok {
		return false
	}
	t := jf.Tag(rowIx)
	t.Active = active
	jf.SetTag(rowIx, t)
	return true
}

// stepSize runs the ratio test: the largest alpha in (0,1] such that
// xk + alpha*p violates no currently inactive inequality,
//
//	alpha = min over rows { (bⱼ - aⱼᵀxk) / aⱼᵀp : aⱼᵀp > 0 }
//
// clamped to a full step of 1. Rows with aⱼᵀp ≤ 0 cannot be worsened by
// the step and are skipped. Returns the blocking factor and row, or
// (-1,-1) when nothing blocks. A row replaces the incumbent only when
// its alpha is strictly smaller, so the first row seen wins exact ties.
func (s *Solver) stepSize(working *gauss.Graph, xk, p gauss.Values) (alpha float64, factorIx, rowIx int) {
	alpha, factorIx, rowIx = 1.0, -1, -1
	for _, fi := range s.constraints {
		jf, _ := working.JacobianAt(fi)
		for r := 0; r < jf.Rows(); r++ {
			if t := jf.Tag(r); t.Kind != gauss.RowInequality || t.Active {
				continue
			}
			ajTp := jf.DotRow(r, p)
			if ajTp <= 0 {
				continue
			}
			ajTx := jf.DotRow(r, xk)
			a := (jf.B()[r] - ajTx) / ajTp
			if a < alpha {
				alpha, factorIx, rowIx = a, fi, r
			}
		}
	}
	return
}
