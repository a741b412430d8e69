package markowitz

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/pkg/formulas"
)

const (
	// DefaultFrontierPoints is the target-return grid size.
	DefaultFrontierPoints = 50

	// targetTolerance decides whether a min-variance solve actually hit its
	// return target; points further away are infeasible and dropped.
	targetTolerance = 1e-3
)

// FrontierPoint is one feasible point on the efficient frontier.
type FrontierPoint struct {
	Target    float64
	Portfolio *Portfolio
}

// EfficientFrontier sweeps target returns from the risk-free rate up to 95%
// of the best single-asset expected return, solving a min-variance program at
// each grid point. Infeasible targets (solver failure or a missed target) are
// dropped from the frontier rather than failing the sweep. Solves run
// concurrently; the output stays ordered by target.
func (o *Optimizer) EfficientFrontier(est *statistics.Estimate, rf float64, nPoints int) ([]FrontierPoint, error) {
	if err := checkEstimate(est); err != nil {
		return nil, err
	}
	if nPoints <= 0 {
		nPoints = DefaultFrontierPoints
	}

	muMax := math.Inf(-1)
	for _, m := range est.MeanAnnual {
		muMax = math.Max(muMax, m)
	}
	upper := muMax * 0.95
	if upper <= rf {
		return nil, fmt.Errorf("%w: no asset earns above the risk-free rate (max mu %.6f, rf %.6f)",
			errs.ErrDegenerate, muMax, rf)
	}

	targets := formulas.Linspace(rf, upper, nPoints)
	results := make([]*Portfolio, nPoints)

	var g errgroup.Group
	g.SetLimit(8)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			p, err := o.MinVarianceForTarget(est, rf, target)
			if err != nil {
				// Infeasible or non-convergent grid point: drop it.
				o.log.Debug().Float64("target", target).Err(err).Msg("Frontier point dropped")
				return nil
			}
			if math.Abs(p.Return-target) > targetTolerance {
				o.log.Debug().
					Float64("target", target).
					Float64("achieved", p.Return).
					Msg("Frontier point missed its target, dropped")
				return nil
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var frontier []FrontierPoint
	for i, p := range results {
		if p != nil {
			frontier = append(frontier, FrontierPoint{Target: targets[i], Portfolio: p})
		}
	}
	if len(frontier) == 0 {
		return nil, fmt.Errorf("%w: every frontier point was infeasible", errs.ErrOptimization)
	}

	o.log.Info().
		Int("requested", nPoints).
		Int("feasible", len(frontier)).
		Msg("Efficient frontier computed")
	return frontier, nil
}
