// Package solver wraps gonum/optimize with the penalty-method plumbing shared
// by the portfolio optimizers: box bounds enforced by projection, quadratic
// penalties for equality constraints, and a BFGS solve with a Nelder-Mead
// fallback.
package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/Romequinco/cartera/internal/errs"
)

// PenaltyWeight scales the quadratic penalties that enforce equality
// constraints inside the unconstrained solver.
const PenaltyWeight = 1000.0

// Bounds holds per-variable box constraints applied by projection.
type Bounds struct {
	Lo []float64
	Hi []float64
}

// NewBounds allocates zero lower bounds and the given uniform upper bound.
func NewBounds(n int, hi float64) Bounds {
	b := Bounds{Lo: make([]float64, n), Hi: make([]float64, n)}
	for i := range b.Hi {
		b.Hi[i] = hi
	}
	return b
}

// Project clamps x into the box.
func (b Bounds) Project(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(b.Lo[i], math.Min(b.Hi[i], x[i]))
	}
	return proj
}

// Minimize solves the problem with BFGS, falling back to Nelder-Mead when the
// first attempt does not reach an accepted status. A non-optimal status from
// both attempts is a hard failure carrying the solver's status.
func Minimize(problem optimize.Problem, initial []float64) ([]float64, error) {
	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err == nil && successStatuses[result.Status] {
		return result.X, nil
	}

	result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrOptimization, err)
	}
	if !successStatuses[result.Status] {
		return nil, fmt.Errorf("%w: optimization did not converge: status=%v", errs.ErrOptimization, result.Status)
	}
	return result.X, nil
}

// QuadForm computes x' Sigma x.
func QuadForm(sigma [][]float64, x []float64) float64 {
	var total float64
	for i := range x {
		for j := range x {
			total += x[i] * x[j] * sigma[i][j]
		}
	}
	return total
}

// Dot computes mu' x over min(len(mu), len(x)) entries.
func Dot(mu, x []float64) float64 {
	var total float64
	for i := range mu {
		total += mu[i] * x[i]
	}
	return total
}
