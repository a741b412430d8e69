package markowitz

import (
	"fmt"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

// DefaultWindows are the trailing estimation windows used by the sensitivity
// sweep: one, two, and three years of daily data, plus the full sample (0).
var DefaultWindows = []int{252, 504, 756, 0}

// WindowResult captures how the max-Sharpe allocation shifts when moments
// are estimated over a different trailing window.
type WindowResult struct {
	Window         int // 0 means the full sample
	Portfolio      *Portfolio
	Herfindahl     float64 // sum of squared risky weights
	NumSignificant int     // risky weights above 1%
}

// Sensitivity re-estimates moments over each window and re-solves max-Sharpe.
// Windows longer than the sample are skipped with a warning; a solve failure
// on one window is logged and skipped so the sweep continues.
func (o *Optimizer) Sensitivity(estimator *statistics.Estimator, series *returns.Series, rf float64, windows []int) ([]WindowResult, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", errs.ErrInput)
	}
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	var out []WindowResult
	for _, w := range windows {
		if w > series.NumDays() {
			o.log.Warn().
				Int("window", w).
				Int("sample", series.NumDays()).
				Msg("Window exceeds sample, skipped")
			continue
		}

		est, err := estimator.Estimate(series, w)
		if err != nil {
			o.log.Warn().Int("window", w).Err(err).Msg("Moment estimation failed, window skipped")
			continue
		}

		p, err := o.MaxSharpe(est, rf)
		if err != nil {
			o.log.Warn().Int("window", w).Err(err).Msg("Max-Sharpe solve failed, window skipped")
			continue
		}

		res := WindowResult{Window: w, Portfolio: p}
		for _, wi := range p.Weights {
			res.Herfindahl += wi * wi
			if wi > 0.01 {
				res.NumSignificant++
			}
		}
		out = append(out, res)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no window produced a portfolio", errs.ErrOptimization)
	}
	return out, nil
}
