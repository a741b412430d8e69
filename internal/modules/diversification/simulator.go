// Package diversification measures how portfolio volatility decays with the
// number of equally weighted holdings, and finds the size where adding more
// assets stops paying.
package diversification

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// DefaultSizes is the ladder of portfolio sizes simulated when the caller
// does not provide one.
var DefaultSizes = []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15, 20, 25, 30, 40, 50}

const (
	// DefaultNumSims is the number of random portfolios drawn per size.
	DefaultNumSims = 100
	// DefaultSeed keeps simulation output reproducible across runs.
	DefaultSeed = 42
	// DefaultThresholdPct is the marginal volatility reduction (in percent)
	// below which adding another asset is considered not worth it.
	DefaultThresholdPct = 2.0
)

// Config controls the Monte Carlo simulation.
type Config struct {
	Sizes   []int
	NumSims int
	Seed    int64
}

func (c Config) withDefaults() Config {
	if len(c.Sizes) == 0 {
		c.Sizes = DefaultSizes
	}
	if c.NumSims <= 0 {
		c.NumSims = DefaultNumSims
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// Curve is the simulated volatility curve over portfolio sizes.
// Reductions[i] is the marginal volatility reduction in percent relative to
// the previous size; it is NaN for the smallest size. VarTerm is the
// diversifiable (1/N)*Vbar component and CovTerm the mean pairwise
// covariance rhobar, both annualized and averaged across draws. The variance
// behind MeanVol weights rhobar by (1-1/N); CovTerm reports rhobar itself.
type Curve struct {
	Sizes      []int
	MeanVol    []float64
	StdVol     []float64
	VarTerm    []float64
	CovTerm    []float64
	Reductions []float64
}

// MarshalJSON encodes the undefined leading reduction as null; encoding/json
// rejects NaN outright.
func (c *Curve) MarshalJSON() ([]byte, error) {
	type alias Curve
	reductions := make([]*float64, len(c.Reductions))
	for i, v := range c.Reductions {
		if !math.IsNaN(v) {
			v := v
			reductions[i] = &v
		}
	}
	return json.Marshal(struct {
		*alias
		Reductions []*float64
	}{(*alias)(c), reductions})
}

// Simulator runs equal-weight diversification simulations.
type Simulator struct {
	log zerolog.Logger
}

// NewSimulator creates a new simulator.
func NewSimulator(log zerolog.Logger) *Simulator {
	return &Simulator{
		log: log.With().Str("component", "diversification").Logger(),
	}
}

// Simulate draws random equal-weight portfolios for each configured size and
// records the mean annualized volatility per size. Sizes larger than the
// universe are silently dropped. The run is deterministic for a given seed:
// each size gets its own derived random stream, so the errgroup fan-out does
// not affect results.
func (s *Simulator) Simulate(est *statistics.Estimate, cfg Config) (*Curve, error) {
	if est == nil {
		return nil, fmt.Errorf("%w: nil estimate", errs.ErrInput)
	}
	cfg = cfg.withDefaults()

	total := est.NumAssets()
	var sizes []int
	for _, n := range cfg.Sizes {
		if n >= 2 && n <= total {
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no portfolio size fits a universe of %d assets", errs.ErrInput, total)
	}
	sort.Ints(sizes)

	curve := &Curve{
		Sizes:      sizes,
		MeanVol:    make([]float64, len(sizes)),
		StdVol:     make([]float64, len(sizes)),
		VarTerm:    make([]float64, len(sizes)),
		CovTerm:    make([]float64, len(sizes)),
		Reductions: make([]float64, len(sizes)),
	}

	var g errgroup.Group
	g.SetLimit(len(sizes))
	for idx, n := range sizes {
		idx, n := idx, n
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(n)))
			vols := make([]float64, cfg.NumSims)
			var varTermSum, covTermSum float64
			for sim := 0; sim < cfg.NumSims; sim++ {
				subset := rng.Perm(total)[:n]
				d := decompose(est, subset)
				vols[sim] = d.volatility()
				varTermSum += d.varTerm
				covTermSum += d.avgCov
			}
			curve.MeanVol[idx] = formulas.Mean(vols)
			curve.StdVol[idx] = formulas.StdDev(vols)
			curve.VarTerm[idx] = varTermSum / float64(cfg.NumSims)
			curve.CovTerm[idx] = covTermSum / float64(cfg.NumSims)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	curve.Reductions[0] = math.NaN()
	for i := 1; i < len(sizes); i++ {
		prev := curve.MeanVol[i-1]
		if prev > 0 {
			curve.Reductions[i] = (prev - curve.MeanVol[i]) / prev * 100
		} else {
			curve.Reductions[i] = 0
		}
	}

	s.log.Debug().
		Ints("sizes", sizes).
		Int("simulations", cfg.NumSims).
		Int64("seed", cfg.Seed).
		Msg("Diversification simulation complete")

	return curve, nil
}

// decomposition carries the separately-averaged moments of an equal-weight
// subset: varTerm is the diversifiable (1/N)*Vbar term, avgCov the mean
// pairwise covariance rhobar, annualized. The portfolio variance is
//
//	sigma2_p = Vbar/N + rhobar*(N-1)/N
type decomposition struct {
	varTerm float64
	avgCov  float64
	n       int
}

func (d decomposition) volatility() float64 {
	variance := d.varTerm + d.avgCov*float64(d.n-1)/float64(d.n)
	if variance < 0 {
		// Strongly negative average covariance can drive the estimate below
		// zero; clamp instead of producing NaN.
		variance = 0
	}
	return math.Sqrt(variance)
}

func decompose(est *statistics.Estimate, indices []int) decomposition {
	n := len(indices)
	var varSum, covSum float64
	pairs := 0
	for a, i := range indices {
		varSum += est.CovAnnual[i][i]
		for b := a + 1; b < n; b++ {
			covSum += est.CovAnnual[i][indices[b]]
			pairs++
		}
	}
	avgVar := varSum / float64(n)
	avgCov := 0.0
	if pairs > 0 {
		avgCov = covSum / float64(pairs)
	}

	return decomposition{
		varTerm: avgVar / float64(n),
		avgCov:  avgCov,
		n:       n,
	}
}

// DetectOptimalN walks the curve and returns the first size whose marginal
// volatility reduction falls below threshold (percent). If no size crosses,
// the largest simulated size wins.
func DetectOptimalN(curve *Curve, thresholdPct float64) (int, error) {
	if curve == nil || len(curve.Sizes) == 0 {
		return 0, fmt.Errorf("%w: empty curve", errs.ErrInput)
	}
	if thresholdPct <= 0 {
		thresholdPct = DefaultThresholdPct
	}
	for i, r := range curve.Reductions {
		if math.IsNaN(r) {
			continue
		}
		if r < thresholdPct {
			return curve.Sizes[i], nil
		}
	}
	return curve.Sizes[len(curve.Sizes)-1], nil
}
