// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// layout assigns a contiguous offset to every variable of the graph,
// in ascending key order.
type layout struct {
	keys []Key
	off  map[Key]int
	n    int
}

func (g *Graph) layout() layout {
	dims := g.Dims()
	lay := layout{keys: sortedKeys(dims), off: make(map[Key]int, len(dims))}
	for _, k := range lay.keys {
		lay.off[k] = lay.n
		lay.n += dims[k]
	}
	return lay
}

func (lay *layout) unpack(x []float64, dims map[Key]int) Values {
	v := make(Values, len(lay.keys))
	for _, k := range lay.keys {
		o := lay.off[k]
		v[k] = append([]float64(nil), x[o:o+dims[k]]...)
	}
	return v
}

// Solve computes the minimizer of the graph under the current row tags:
//   - free rows enter as weighted least-squares terms,
//   - equality rows and active inequality rows are enforced exactly,
//   - inactive inequality rows contribute nothing,
//   - Hessian factors contribute their information directly.
//
// Soft information is accumulated into normal equations Hx = g and hard
// rows are stacked into Cx = d. Without hard rows the system is solved
// by Cholesky factorization; with hard rows the particular solution of
// Cx = d comes from an SVD pseudo-inverse (exact for consistent
// systems, least-squares otherwise) and the soft objective is minimized
// over the nullspace of C. Rank deficiency of the soft system surfaces
// as ErrSingular.
func (g *Graph) Solve() (Values, error) {
	lay := g.layout()
	if lay.n == 0 {
		return Values{}, nil
	}
	dims := g.Dims()

	h := mat.NewDense(lay.n, lay.n, nil)
	gv := make([]float64, lay.n)
	var hard [][]float64
	var d []float64
	soft := false

	row := make([]float64, lay.n)
	for _, f := range g.factors {
		switch f := f.(type) {
		case *Hessian:
			soft = true
			addHessian(h, gv, f, &lay)
		case *Jacobian:
			for r := 0; r < f.Rows(); r++ {
				tag := f.Tag(r)
				if tag.Ignored() {
					continue
				}
				for i := range row {
					row[i] = 0
				}
				for i, k := range f.keys {
					copy(row[lay.off[k]:], f.blocks[i].RawRowView(r))
				}
				if tag.Hard() {
					hard = append(hard, append([]float64(nil), row...))
					d = append(d, f.b[r])
					continue
				}
				soft = true
				w := tag.Precision()
				// H += w aᵀa, g += w b a
				for i, vi := range row {
					if vi == 0 {
						continue
					}
					axpy(w*vi, row, h.RawRowView(i))
				}
				axpy(w*f.b[r], row, gv)
			}
		default:
			return nil, fmt.Errorf("%w: unknown factor type %T", ErrShape, f)
		}
	}

	x, err := solveDense(h, gv, hard, d, soft)
	if err != nil {
		return nil, err
	}
	return lay.unpack(x, dims), nil
}

// addHessian accumulates a quadratic factor into the stacked normal
// equations.
func addHessian(h *mat.Dense, gv []float64, f *Hessian, lay *layout) {
	for i, ki := range f.keys {
		oi := lay.off[ki]
		axpy(1, f.lin[i], gv[oi:])
		for j := i; j < len(f.keys); j++ {
			oj := lay.off[f.keys[j]]
			gij := f.info[i][j]
			ri, ci := gij.Dims()
			for a := 0; a < ri; a++ {
				axpy(1, gij.RawRowView(a), h.RawRowView(oi+a)[oj:])
				if i != j {
					// mirror the transpose block
					for b := 0; b < ci; b++ {
						h.Set(oj+b, oi+a, h.At(oj+b, oi+a)+gij.At(a, b))
					}
				}
			}
		}
	}
}

// solveDense solves the assembled system.
func solveDense(h *mat.Dense, gv []float64, hard [][]float64, d []float64, soft bool) ([]float64, error) {
	n := len(gv)

	if len(hard) == 0 {
		return solveNormal(h, gv, n)
	}

	mh := len(hard)
	c := mat.NewDense(mh, n, nil)
	for i, r := range hard {
		c.SetRow(i, r)
	}

	var svd mat.SVD
	if !svd.Factorize(c, mat.SVDFull) {
		return nil, fmt.Errorf("%w: SVD of constraint rows failed", ErrSingular)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	tol := 0.0
	if len(sv) > 0 {
		tol = float64(max(mh, n)) * 1e-14 * sv[0]
	}
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}

	// particular solution x0 = Σᵢ (uᵢᵀd / sᵢ) vᵢ
	x0 := make([]float64, n)
	for i := 0; i < rank; i++ {
		ud := 0.0
		for r := 0; r < mh; r++ {
			ud += u.At(r, i) * d[r]
		}
		ud /= sv[i]
		for r := 0; r < n; r++ {
			x0[r] += ud * v.At(r, i)
		}
	}
	if rank == n {
		return x0, nil
	}

	// minimize the soft objective over x0 + N z, N = nullspace basis
	q := n - rank
	nb := v.Slice(0, n, rank, n)
	if !soft {
		return x0, nil // minimum-norm solution
	}

	hx0 := make([]float64, n)
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		hx0[i] = dot(h.RawRowView(i), x0)
		rhs[i] = gv[i] - hx0[i]
	}

	m := mat.NewDense(q, q, nil)
	var hn mat.Dense
	hn.Mul(h, nb)
	m.Mul(nb.T(), &hn)
	rz := make([]float64, q)
	for i := 0; i < q; i++ {
		for r := 0; r < n; r++ {
			rz[i] += nb.At(r, i) * rhs[r]
		}
	}

	z, err := solveNormal(m, rz, q)
	if err != nil {
		return nil, err
	}
	for i := 0; i < q; i++ {
		for r := 0; r < n; r++ {
			x0[r] += nb.At(r, i) * z[i]
		}
	}
	return x0, nil
}

// solveNormal solves the symmetric positive definite system Hx = g by
// Cholesky factorization.
func solveNormal(h *mat.Dense, gv []float64, n int) ([]float64, error) {
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(h.At(i, j)+h.At(j, i)))
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, fmt.Errorf("%w: normal equations not positive definite", ErrSingular)
	}
	x := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(x, mat.NewVecDense(n, gv)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	out := make([]float64, n)
	copy(out, x.RawVector().Data)
	return out, nil
}


// Error computes ½‖W(Ax-b)‖² + quadratic terms of the graph at x, over
// rows that currently contribute. Useful for diagnostics and tests.
func (g *Graph) Error(x Values) float64 {
	var e float64
	for _, f := range g.factors {
		switch f := f.(type) {
		case *Jacobian:
			for r := 0; r < f.Rows(); r++ {
				tag := f.Tag(r)
				if tag.Kind != RowFree {
					continue
				}
				res := f.DotRow(r, x) - f.b[r]
				e += 0.5 * tag.Precision() * res * res
			}
		case *Hessian:
			for i, ki := range f.keys {
				xi := x[ki]
				e -= dot(f.lin[i], xi)
				for j := i; j < len(f.keys); j++ {
					xj := x[f.keys[j]]
					gij := f.info[i][j]
					ri, _ := gij.Dims()
					s := 0.0
					for a := 0; a < ri; a++ {
						s += xi[a] * dot(gij.RawRowView(a), xj)
					}
					if i == j {
						e += 0.5 * s
					} else {
						e += s
					}
				}
			}
			e += 0.5 * f.f
		}
	}
	return e
}
