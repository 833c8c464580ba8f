// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

// RowKind classifies one row of a Jacobian factor.
type RowKind uint8

const (
	// RowFree is a soft Gaussian cost row with standard deviation Sigma.
	RowFree RowKind = iota
	// RowEquality is a hard equality constraint row, always enforced.
	RowEquality
	// RowInequality is an inequality constraint row. It contributes
	// nothing while inactive and is enforced as an equality once its
	// Active flag is set.
	RowInequality
)

// RowTag is the explicit per-row constraint status. It replaces the
// usual trick of overloading the noise sigma sign, so there are no
// sentinel values to compare against.
type RowTag struct {
	Kind   RowKind
	Sigma  float64 // standard deviation, RowFree only
	Active bool    // RowInequality only: enforced as equality when true
}

// Free returns a soft row tag with standard deviation sigma.
func Free(sigma float64) RowTag { return RowTag{Kind: RowFree, Sigma: sigma} }

// Equality returns a hard equality row tag.
func Equality() RowTag { return RowTag{Kind: RowEquality} }

// Inequality returns an inactive inequality row tag.
func Inequality() RowTag { return RowTag{Kind: RowInequality} }

// Hard reports whether the row is currently enforced as an exact equality.
func (t RowTag) Hard() bool {
	return t.Kind == RowEquality || (t.Kind == RowInequality && t.Active)
}

// Ignored reports whether the row currently contributes nothing.
func (t RowTag) Ignored() bool {
	return t.Kind == RowInequality && !t.Active
}

// Constrained reports whether the row is a constraint row of either kind,
// regardless of its current active status.
func (t RowTag) Constrained() bool {
	return t.Kind != RowFree
}

// Precision returns the information weight 1/sigma² of a free row and
// zero for constraint rows.
func (t RowTag) Precision() float64 {
	if t.Kind != RowFree || t.Sigma == 0 {
		return 0
	}
	return 1 / (t.Sigma * t.Sigma)
}

// UnitRows returns n free rows with unit standard deviation.
func UnitRows(n int) []RowTag {
	tags := make([]RowTag, n)
	for i := range tags {
		tags[i] = Free(1)
	}
	return tags
}

// SigmaRows returns free rows with the given standard deviations.
func SigmaRows(sigmas []float64) []RowTag {
	tags := make([]RowTag, len(sigmas))
	for i, s := range sigmas {
		tags[i] = Free(s)
	}
	return tags
}

// EqualityRows returns n hard equality rows.
func EqualityRows(n int) []RowTag {
	tags := make([]RowTag, n)
	for i := range tags {
		tags[i] = Equality()
	}
	return tags
}
