package diversification

import (
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// syntheticEstimate builds an estimate with constant variance and constant
// pairwise covariance, so every equal-weight subset of a given size has the
// same volatility and the curve is analytic.
func syntheticEstimate(n int, variance, cov float64) *statistics.Estimate {
	est := &statistics.Estimate{
		Names:      make([]string, n),
		NumObs:     252,
		MeanDaily:  make([]float64, n),
		CovDaily:   make([][]float64, n),
		MeanAnnual: make([]float64, n),
		CovAnnual:  make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		est.Names[i] = fmt.Sprintf("asset%d", i+1)
		est.MeanDaily[i] = 0.0005
		est.MeanAnnual[i] = 0.0005 * formulas.TradingDays
		est.CovDaily[i] = make([]float64, n)
		est.CovAnnual[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			c := cov
			if i == j {
				c = variance
			}
			est.CovDaily[i][j] = c
			est.CovAnnual[i][j] = c * formulas.TradingDays
		}
	}
	return est
}

func TestSimulateVolatilityScalesWithSqrtN(t *testing.T) {
	// Uncorrelated assets with identical variance: equal-weight volatility
	// must follow sigma*sqrt(252/N).
	variance := 1e-4
	est := syntheticEstimate(30, variance, 0)

	curve, err := NewSimulator(zerolog.Nop()).Simulate(est, Config{
		Sizes:   []int{2, 5, 10, 25},
		NumSims: 20,
	})
	require.NoError(t, err)
	require.Len(t, curve.MeanVol, 4)

	sigma := math.Sqrt(variance)
	for i, n := range curve.Sizes {
		expected := sigma * math.Sqrt(formulas.TradingDays/float64(n))
		assert.InDelta(t, expected, curve.MeanVol[i], 1e-9,
			"volatility for N=%d should scale as sigma*sqrt(252/N)", n)
		assert.InDelta(t, 0.0, curve.CovTerm[i], 1e-12,
			"uncorrelated universe has no covariance floor")
		assert.InDelta(t, 0.0, curve.StdVol[i], 1e-12,
			"identical subsets give zero dispersion across draws")
	}
}

func TestSimulateRecordsMeanPairwiseCovariance(t *testing.T) {
	// Constant-covariance universe: every subset decomposes identically, so
	// the recorded terms are exact. CovTerm is the mean pairwise covariance
	// itself, not the (1-1/N)-weighted slice of the variance.
	variance, cov := 2e-4, 0.5e-4
	est := syntheticEstimate(12, variance, cov)

	curve, err := NewSimulator(zerolog.Nop()).Simulate(est, Config{
		Sizes:   []int{2, 5, 10},
		NumSims: 8,
	})
	require.NoError(t, err)

	for i, n := range curve.Sizes {
		assert.InDelta(t, cov*formulas.TradingDays, curve.CovTerm[i], 1e-12,
			"CovTerm for N=%d must not carry the (N-1)/N factor", n)
		assert.InDelta(t, variance*formulas.TradingDays/float64(n), curve.VarTerm[i], 1e-12,
			"VarTerm for N=%d is the annualized Vbar/N term", n)
		expected := math.Sqrt((variance/float64(n) + cov*float64(n-1)/float64(n)) * formulas.TradingDays)
		assert.InDelta(t, expected, curve.MeanVol[i], 1e-9,
			"volatility for N=%d still weights the covariance by (N-1)/N", n)
	}
}

func TestSimulateSeedReproducibility(t *testing.T) {
	est := syntheticEstimate(20, 2e-4, 0.4e-4)
	sim := NewSimulator(zerolog.Nop())
	cfg := Config{NumSims: 50, Seed: 7}

	first, err := sim.Simulate(est, cfg)
	require.NoError(t, err)
	second, err := sim.Simulate(est, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Sizes, second.Sizes)
	for i := range first.MeanVol {
		assert.Equal(t, first.MeanVol[i], second.MeanVol[i],
			"same seed must reproduce the exact curve")
	}
}

func TestSimulateFiltersOversizedAndRejectsEmpty(t *testing.T) {
	est := syntheticEstimate(5, 1e-4, 0)
	sim := NewSimulator(zerolog.Nop())

	curve, err := sim.Simulate(est, Config{Sizes: []int{2, 4, 10, 50}, NumSims: 5})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, curve.Sizes, "sizes above the universe are dropped")

	_, err = sim.Simulate(est, Config{Sizes: []int{10, 50}, NumSims: 5})
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestDetectOptimalNFirstCrossing(t *testing.T) {
	// Constant correlation 0.33 puts the first sub-2% marginal reduction
	// exactly at N=7 on the default size ladder.
	est := syntheticEstimate(15, 1e-4, 0.33e-4)

	curve, err := NewSimulator(zerolog.Nop()).Simulate(est, Config{
		Sizes:   []int{2, 3, 4, 5, 6, 7, 8, 9, 10},
		NumSims: 10,
	})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(curve.Reductions[0]), "smallest size has no reduction")

	optimal, err := DetectOptimalN(curve, DefaultThresholdPct)
	require.NoError(t, err)
	assert.Equal(t, 7, optimal)
}

func TestDetectOptimalNNoCrossingReturnsLargest(t *testing.T) {
	curve := &Curve{
		Sizes:      []int{2, 5, 10},
		MeanVol:    []float64{0.30, 0.20, 0.10},
		Reductions: []float64{math.NaN(), 33.3, 50.0},
	}

	optimal, err := DetectOptimalN(curve, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 10, optimal)

	_, err = DetectOptimalN(nil, 2.0)
	assert.ErrorIs(t, err, errs.ErrInput)
}
