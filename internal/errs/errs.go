// Package errs defines the error categories shared across modules.
// Callers classify failures with errors.Is against these sentinels.
package errs

import "errors"

var (
	// ErrInput marks failures caused by malformed or inconsistent caller input.
	ErrInput = errors.New("invalid input")

	// ErrDegenerate marks failures caused by numerically unusable data
	// (NaN/Inf moments, non-finite covariance entries).
	ErrDegenerate = errors.New("numeric degeneracy")

	// ErrOptimization marks solver failures (non-convergence, no feasible point).
	ErrOptimization = errors.New("optimization failure")

	// ErrConstraint marks results that violate portfolio constraints beyond
	// tolerance after post-processing.
	ErrConstraint = errors.New("constraint violation")
)
