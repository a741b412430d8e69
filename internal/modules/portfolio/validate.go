// Package portfolio validates solved allocations and derives the summary
// metrics used to compare strategies.
package portfolio

import (
	"fmt"

	"github.com/Romequinco/cartera/internal/modules/markowitz"
)

// DefaultTolerance is the numeric slack for post-hoc constraint checks.
const DefaultTolerance = 1e-6

// Report collects constraint findings for one portfolio. Violations are
// reported rather than blocking: a flagged result is still returned to the
// caller for inspection.
type Report struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks the long-only, budget, and RF-cap constraints, plus the
// expected vector length when expectedAssets > 0.
func Validate(p *markowitz.Portfolio, expectedAssets int, tol float64) *Report {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	r := &Report{Valid: true}
	if p == nil {
		r.Valid = false
		r.Errors = append(r.Errors, "no portfolio")
		return r
	}

	sum := p.RFWeight
	for i, w := range p.Weights {
		sum += w
		if w < -tol {
			r.Valid = false
			r.Errors = append(r.Errors, fmt.Sprintf("negative weight %.8f for %s", w, p.Names[i]))
		}
		if w > 0.5 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("weight above 50%% for %s: %.4f", p.Names[i], w))
		}
	}

	if diff := sum - 1.0; diff > tol || diff < -tol {
		r.Valid = false
		r.Errors = append(r.Errors, fmt.Sprintf("weights sum to %.8f, expected 1", sum))
	}

	if p.RFWeight < -tol || p.RFWeight > markowitz.RFCap+tol {
		r.Valid = false
		r.Errors = append(r.Errors, fmt.Sprintf("risk-free weight %.8f outside [0, %.2f]", p.RFWeight, markowitz.RFCap))
	}

	if expectedAssets > 0 && len(p.Weights) != expectedAssets {
		r.Valid = false
		r.Errors = append(r.Errors, fmt.Sprintf("%d weights, expected %d", len(p.Weights), expectedAssets))
	}

	return r
}
