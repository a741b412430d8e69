// Package markowitz solves the constrained mean-variance programs:
// long-only risky weights plus a risk-free sleeve capped at 10%, with the
// full budget invested.
package markowitz

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/solver"
)

// RFCap is the maximum weight allowed in the risk-free asset.
const RFCap = 0.1

// Portfolio is a solved allocation with its realized metrics.
// Weights are risky-asset weights aligned with Names; RFWeight completes the
// budget: sum(Weights) + RFWeight = 1.
type Portfolio struct {
	Names        []string
	Weights      []float64
	RFWeight     float64
	Return       float64 // annualized, includes the risk-free sleeve
	Volatility   float64 // annualized
	Sharpe       float64
	RFCapApplied bool // max-Sharpe clamp-and-renormalize was applied
}

// Optimizer solves mean-variance programs over a moment estimate.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a new mean-variance optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "markowitz").Logger(),
	}
}

// MaximizeUtility solves the lambda-penalized program
//
//	max  w'mu + w_rf*rf - lambda * w'Sigma w
//	s.t. sum(w) + w_rf = 1, w >= 0, 0 <= w_rf <= 0.1
//
// Larger lambda buys less variance at the cost of expected return.
func (o *Optimizer) MaximizeUtility(est *statistics.Estimate, rf, lambda float64) (*Portfolio, error) {
	if err := checkEstimate(est); err != nil {
		return nil, err
	}
	if lambda <= 0 {
		return nil, fmt.Errorf("%w: lambda must be positive, got %f", errs.ErrInput, lambda)
	}

	n := est.NumAssets()
	mu := est.MeanAnnual
	sigma := est.CovAnnual
	b := budgetBounds(n)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := b.Project(x)
			w, wrf := xp[:n], xp[n]

			obj := -(solver.Dot(mu, w) + wrf*rf - lambda*solver.QuadForm(sigma, w))

			sum := wrf
			for _, v := range w {
				sum += v
			}
			obj += solver.PenaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			xp := b.Project(x)
			w, wrf := xp[:n], xp[n]

			sum := wrf
			for _, v := range w {
				sum += v
			}
			budgetGrad := 2 * solver.PenaltyWeight * (sum - 1.0)

			for i := 0; i < n; i++ {
				grad[i] = -mu[i] + budgetGrad
				for j := 0; j < n; j++ {
					grad[i] += 2 * lambda * sigma[i][j] * w[j]
				}
			}
			grad[n] = -rf + budgetGrad
		},
	}

	x, err := solver.Minimize(problem, initialPoint(n))
	if err != nil {
		return nil, err
	}

	p, err := BuildPortfolio(est, rf, b.Project(x))
	if err != nil {
		return nil, err
	}

	o.log.Debug().
		Float64("lambda", lambda).
		Float64("return", p.Return).
		Float64("volatility", p.Volatility).
		Msg("Utility optimization complete")
	return p, nil
}

// MaxSharpe maximizes the Sharpe ratio through the standard homogenization:
//
//	min  y'Sigma y
//	s.t. y'mu + y_rf*rf = 1, y >= 0, y_rf >= 0
//
// then w = y / (sum(y) + y_rf). If the recovered w_rf exceeds the 10% cap it
// is clamped and the risky weights are renormalized to absorb the remainder.
// That clamp is an approximation rather than a re-solve, and the result is
// flagged with RFCapApplied when it fires.
func (o *Optimizer) MaxSharpe(est *statistics.Estimate, rf float64) (*Portfolio, error) {
	if err := checkEstimate(est); err != nil {
		return nil, err
	}

	n := est.NumAssets()
	mu := est.MeanAnnual
	sigma := est.CovAnnual

	// Homogenized variables are unnormalized: only the lower bound binds.
	b := solver.NewBounds(n+1, math.Inf(1))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := b.Project(x)
			y, yrf := xp[:n], xp[n]

			obj := solver.QuadForm(sigma, y)
			excess := solver.Dot(mu, y) + yrf*rf - 1.0
			obj += solver.PenaltyWeight * excess * excess
			return obj
		},
		Grad: func(grad, x []float64) {
			xp := b.Project(x)
			y, yrf := xp[:n], xp[n]

			excess := solver.Dot(mu, y) + yrf*rf - 1.0
			for i := 0; i < n; i++ {
				grad[i] = 2 * solver.PenaltyWeight * excess * mu[i]
				for j := 0; j < n; j++ {
					grad[i] += 2 * sigma[i][j] * y[j]
				}
			}
			grad[n] = 2 * solver.PenaltyWeight * excess * rf
		},
	}

	x, err := solver.Minimize(problem, initialPoint(n))
	if err != nil {
		return nil, err
	}

	xp := b.Project(x)
	total := 0.0
	for _, v := range xp {
		total += v
	}
	if total <= 1e-12 {
		return nil, fmt.Errorf("%w: homogenized solution collapsed to zero", errs.ErrDegenerate)
	}
	scaled := make([]float64, n+1)
	for i, v := range xp {
		scaled[i] = v / total
	}

	p, err := BuildPortfolio(est, rf, scaled)
	if err != nil {
		return nil, err
	}

	o.log.Debug().
		Float64("sharpe", p.Sharpe).
		Bool("rf_cap_applied", p.RFCapApplied).
		Msg("Max-Sharpe optimization complete")
	return p, nil
}

// MinVarianceForTarget minimizes portfolio variance subject to the expected
// return hitting the target, with the usual budget/long-only/RF-cap
// constraints. Callers sweeping a frontier should treat a missed target as an
// infeasible point, not an error.
func (o *Optimizer) MinVarianceForTarget(est *statistics.Estimate, rf, target float64) (*Portfolio, error) {
	if err := checkEstimate(est); err != nil {
		return nil, err
	}

	n := est.NumAssets()
	mu := est.MeanAnnual
	sigma := est.CovAnnual
	b := budgetBounds(n)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := b.Project(x)
			w, wrf := xp[:n], xp[n]

			obj := solver.QuadForm(sigma, w)

			sum := wrf
			for _, v := range w {
				sum += v
			}
			obj += solver.PenaltyWeight * (sum - 1.0) * (sum - 1.0)

			ret := solver.Dot(mu, w) + wrf*rf
			obj += solver.PenaltyWeight * (ret - target) * (ret - target)
			return obj
		},
		Grad: func(grad, x []float64) {
			xp := b.Project(x)
			w, wrf := xp[:n], xp[n]

			sum := wrf
			for _, v := range w {
				sum += v
			}
			budgetGrad := 2 * solver.PenaltyWeight * (sum - 1.0)

			ret := solver.Dot(mu, w) + wrf*rf
			retGrad := 2 * solver.PenaltyWeight * (ret - target)

			for i := 0; i < n; i++ {
				grad[i] = budgetGrad + retGrad*mu[i]
				for j := 0; j < n; j++ {
					grad[i] += 2 * sigma[i][j] * w[j]
				}
			}
			grad[n] = budgetGrad + retGrad*rf
		},
	}

	x, err := solver.Minimize(problem, initialPoint(n))
	if err != nil {
		return nil, err
	}

	return BuildPortfolio(est, rf, b.Project(x))
}

// BuildPortfolio normalizes a projected (n+1)-vector solution so the budget
// holds exactly, applies the RF cap, and computes realized metrics. The last
// element of x is the risk-free weight.
func BuildPortfolio(est *statistics.Estimate, rf float64, x []float64) (*Portfolio, error) {
	n := est.NumAssets()
	w := make([]float64, n)
	copy(w, x[:n])
	wrf := x[n]

	total := wrf
	for _, v := range w {
		total += v
	}
	if total <= 1e-12 {
		return nil, fmt.Errorf("%w: solution has no mass to normalize", errs.ErrDegenerate)
	}
	for i := range w {
		w[i] /= total
	}
	wrf /= total

	p := &Portfolio{Names: est.Names, Weights: w, RFWeight: wrf}

	if wrf > RFCap {
		// Clamp and push the excess back into the risky sleeve. This keeps
		// relative risky proportions but is not a re-optimization.
		riskySum := 1.0 - wrf
		p.RFWeight = RFCap
		p.RFCapApplied = true
		if riskySum > 1e-12 {
			scale := (1.0 - RFCap) / riskySum
			for i := range w {
				w[i] *= scale
			}
		} else {
			// Degenerate all-cash solution: spread the risky sleeve evenly.
			for i := range w {
				w[i] = (1.0 - RFCap) / float64(n)
			}
		}
	}

	p.Return = solver.Dot(est.MeanAnnual, w) + p.RFWeight*rf
	variance := solver.QuadForm(est.CovAnnual, w)
	if variance < 0 {
		variance = 0
	}
	p.Volatility = math.Sqrt(variance)
	if p.Volatility > 0 {
		p.Sharpe = (p.Return - rf) / p.Volatility
	}

	return p, nil
}

// budgetBounds boxes the risky weights into [0,1] and the RF weight into
// [0, RFCap].
func budgetBounds(n int) solver.Bounds {
	b := solver.NewBounds(n+1, 1.0)
	b.Hi[n] = RFCap
	return b
}

func initialPoint(n int) []float64 {
	initial := make([]float64, n+1)
	for i := 0; i < n; i++ {
		initial[i] = 1.0 / float64(n)
	}
	return initial
}

func checkEstimate(est *statistics.Estimate) error {
	if est == nil || est.NumAssets() == 0 {
		return fmt.Errorf("%w: empty estimate", errs.ErrInput)
	}
	return nil
}
