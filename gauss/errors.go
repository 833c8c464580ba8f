// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gauss

import "errors"

var (
	// ErrSingular indicates the assembled system has no unique solution,
	// e.g. a rank-deficient Hessian or redundant active constraints.
	ErrSingular = errors.New("gauss: singular system")
	// ErrShape indicates inconsistent block dimensions between factors.
	ErrShape = errors.New("gauss: dimension mismatch")
	// ErrMissingValue indicates a variable referenced by a factor has no
	// entry in the supplied value container.
	ErrMissingValue = errors.New("gauss: missing variable value")
)
