// Package topdown implements the factor-tracking ("top-down") portfolio
// construction: track a target factor-exposure vector while penalizing
// portfolio risk and turnover from a prior allocation.
package topdown

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/solver"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// Exposure-weight methods.
const (
	WeightUniform         = "uniform"
	WeightInverseVariance = "inverse-variance"
)

const (
	// DefaultLambdaRisk scales the w'Sigma w risk penalty.
	DefaultLambdaRisk = 1.0
	// DefaultTauTurnover scales the ||w - w_prev||^2 turnover penalty.
	DefaultTauTurnover = 0.1

	// varianceFloor keeps inverse-variance weights finite for factors with
	// no cross-sectional dispersion.
	varianceFloor = 1e-8
)

// Config controls one tracking solve. The penalty scales are pointers so an
// explicit zero (penalty switched off) is distinguishable from "use the
// default".
type Config struct {
	LambdaRisk   *float64  // nil means DefaultLambdaRisk
	TauTurnover  *float64  // nil means DefaultTauTurnover
	WeightMethod string    // uniform | inverse-variance
	PrevWeights  []float64 // prior risky weights; equal-weight when nil
}

func (c Config) withDefaults() Config {
	if c.WeightMethod == "" {
		c.WeightMethod = WeightInverseVariance
	}
	return c
}

func (c Config) lambdaRisk() float64 {
	if c.LambdaRisk == nil {
		return DefaultLambdaRisk
	}
	return *c.LambdaRisk
}

func (c Config) tauTurnover() float64 {
	if c.TauTurnover == nil {
		return DefaultTauTurnover
	}
	return *c.TauTurnover
}

// Result is a solved tracking portfolio with its factor diagnostics.
type Result struct {
	Portfolio     *markowitz.Portfolio
	Exposures     []float64 // realized X'w
	Targets       []float64
	FactorWeights []float64 // W_k used in the tracking term
	TrackingError float64   // sum_k W_k (exposure_k - target_k)^2
}

// Optimizer solves factor-tracking programs.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a new tracking optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "topdown").Logger(),
	}
}

// ExposureWeights computes the per-factor tracking weights W_k from the
// N x K loading matrix. Inverse-variance weights are floored and normalized
// so they sum to K; uniform weights are all ones.
func ExposureWeights(X [][]float64, method string) ([]float64, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, fmt.Errorf("%w: empty loading matrix", errs.ErrInput)
	}
	k := len(X[0])

	switch method {
	case WeightUniform:
		wk := make([]float64, k)
		for i := range wk {
			wk[i] = 1.0
		}
		return wk, nil

	case WeightInverseVariance:
		wk := make([]float64, k)
		col := make([]float64, len(X))
		var sum float64
		for f := 0; f < k; f++ {
			for i := range X {
				col[i] = X[i][f]
			}
			v := formulas.Variance(col)
			if v < varianceFloor {
				v = varianceFloor
			}
			wk[f] = 1.0 / v
			sum += wk[f]
		}
		for f := range wk {
			wk[f] = wk[f] / sum * float64(k)
		}
		return wk, nil

	default:
		return nil, fmt.Errorf("%w: unknown exposure-weight method %q", errs.ErrInput, method)
	}
}

// Optimize solves
//
//	min  (X'w - b)' diag(W_k) (X'w - b) + lambda*w'Sigma w + tau*||w - w_prev||^2
//	s.t. sum(w) + w_rf = 1, w >= 0, 0 <= w_rf <= 0.1
//
// A non-optimal solver status is surfaced as a failure.
func (o *Optimizer) Optimize(est *statistics.Estimate, rf float64, X [][]float64, targets []float64, cfg Config) (*Result, error) {
	if est == nil || est.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: empty estimate", errs.ErrInput)
	}
	n := est.NumAssets()
	if len(X) != n {
		return nil, fmt.Errorf("%w: loading matrix has %d rows, expected %d", errs.ErrInput, len(X), n)
	}
	k := len(targets)
	for i := range X {
		if len(X[i]) != k {
			return nil, fmt.Errorf("%w: loading row %d has %d factors, expected %d", errs.ErrInput, i, len(X[i]), k)
		}
	}

	cfg = cfg.withDefaults()
	lambda, tau := cfg.lambdaRisk(), cfg.tauTurnover()
	prev := cfg.PrevWeights
	if prev == nil {
		prev = make([]float64, n)
		for i := range prev {
			prev[i] = 1.0 / float64(n)
		}
	} else if len(prev) != n {
		return nil, fmt.Errorf("%w: prior weights length %d, expected %d", errs.ErrInput, len(prev), n)
	}

	wk, err := ExposureWeights(X, cfg.WeightMethod)
	if err != nil {
		return nil, err
	}

	sigma := est.CovAnnual
	b := solver.NewBounds(n+1, 1.0)
	b.Hi[n] = markowitz.RFCap

	exposures := func(w []float64) []float64 {
		e := make([]float64, k)
		for f := 0; f < k; f++ {
			for i := 0; i < n; i++ {
				e[f] += X[i][f] * w[i]
			}
		}
		return e
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := b.Project(x)
			w, wrf := xp[:n], xp[n]

			var tracking float64
			for f, e := range exposures(w) {
				d := e - targets[f]
				tracking += wk[f] * d * d
			}

			var turnover float64
			for i := range w {
				d := w[i] - prev[i]
				turnover += d * d
			}

			obj := tracking + lambda*solver.QuadForm(sigma, w) + tau*turnover

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

			e := exposures(w)
			sum := wrf
			for _, v := range w {
				sum += v
			}
			budgetGrad := 2 * solver.PenaltyWeight * (sum - 1.0)

			for i := 0; i < n; i++ {
				grad[i] = budgetGrad + 2*tau*(w[i]-prev[i])
				for f := 0; f < k; f++ {
					grad[i] += 2 * wk[f] * (e[f] - targets[f]) * X[i][f]
				}
				for j := 0; j < n; j++ {
					grad[i] += 2 * lambda * sigma[i][j] * w[j]
				}
			}
			grad[n] = budgetGrad
		},
	}

	initial := make([]float64, n+1)
	copy(initial, prev)

	x, err := solver.Minimize(problem, initial)
	if err != nil {
		return nil, err
	}

	p, err := markowitz.BuildPortfolio(est, rf, b.Project(x))
	if err != nil {
		return nil, err
	}

	res := &Result{
		Portfolio:     p,
		Exposures:     exposures(p.Weights),
		Targets:       targets,
		FactorWeights: wk,
	}
	for f := range targets {
		d := res.Exposures[f] - targets[f]
		res.TrackingError += wk[f] * d * d
	}

	o.log.Debug().
		Float64("tracking_error", res.TrackingError).
		Float64("volatility", p.Volatility).
		Str("weight_method", cfg.WeightMethod).
		Msg("Tracking optimization complete")
	return res, nil
}
