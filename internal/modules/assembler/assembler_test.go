package assembler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/selection"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

const budgetTol = 1e-6

// syntheticSeries builds a deterministic panel with per-asset drift and noise
// scale, so selection and optimization have real dispersion to work with.
func syntheticSeries(t *testing.T, days, assets int, seed int64) *returns.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	names := make([]string, assets)
	for j := range names {
		names[j] = string(rune('A' + j))
	}
	data := make([][]float64, days)
	for i := range data {
		row := make([]float64, assets)
		for j := range row {
			drift := 0.0002 * float64(j+1)
			scale := 0.005 + 0.002*float64(j)
			row[j] = drift + scale*rng.NormFloat64()
		}
		data[i] = row
	}
	s, err := returns.NewSeries(names, data)
	require.NoError(t, err)
	return s
}

func newAssembler() *Assembler {
	log := zerolog.Nop()
	return New(
		statistics.NewEstimator(log),
		selection.NewSelector(log),
		markowitz.NewOptimizer(log),
		nil,
		log,
	)
}

func TestReconstructRoundTrip(t *testing.T) {
	weights := []float64{0.5, 0.3, 0.15}
	indices := []int{7, 2, 4}
	wrf := 0.05

	full, renormalized, err := Reconstruct(weights, indices, 10, wrf)
	require.NoError(t, err)
	assert.False(t, renormalized)
	require.Len(t, full, 10)

	for k, idx := range indices {
		assert.Equal(t, weights[k], full[idx], "selected index %d", idx)
	}
	selected := map[int]bool{7: true, 2: true, 4: true}
	for i, w := range full {
		if !selected[i] {
			assert.Zero(t, w, "non-selected index %d", i)
		}
	}
}

func TestReconstructRenormalizesDrift(t *testing.T) {
	// Sums to 0.93 against a budget of 0.95: outside tolerance.
	full, renormalized, err := Reconstruct([]float64{0.6, 0.33}, []int{0, 3}, 5, 0.05)
	require.NoError(t, err)
	assert.True(t, renormalized)

	var sum float64
	for _, w := range full {
		sum += w
	}
	assert.InDelta(t, 0.95, sum, budgetTol)
	// Relative proportions survive the rescale.
	assert.InDelta(t, 0.6/0.33, full[0]/full[3], 1e-9)
}

func TestReconstructRejectsBadInput(t *testing.T) {
	_, _, err := Reconstruct([]float64{0.5}, []int{0, 1}, 5, 0)
	assert.ErrorIs(t, err, errs.ErrInput)

	_, _, err = Reconstruct([]float64{0.5}, []int{9}, 5, 0)
	assert.ErrorIs(t, err, errs.ErrInput)

	_, _, err = Reconstruct([]float64{0.0}, []int{1}, 5, 0.05)
	assert.ErrorIs(t, err, errs.ErrDegenerate)
}

func TestRunPipeline(t *testing.T) {
	series := syntheticSeries(t, 400, 8, 11)
	a := newAssembler()

	run, err := a.Run(series, Config{
		NumAssets: 4,
		RiskFree:  0.02,
	})
	require.NoError(t, err)

	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, StrategyMaxSharpe, run.Strategy)
	assert.NotEmpty(t, run.ID)
	require.NotNil(t, run.Selection)
	assert.Len(t, run.Selection.Indices, 4)

	// Full-universe vector: budget holds, non-selected assets stay at zero.
	require.Len(t, run.Portfolio.Weights, 8)
	sum := run.Portfolio.RFWeight
	selected := make(map[int]bool, 4)
	for _, idx := range run.Selection.Indices {
		selected[idx] = true
	}
	for i, w := range run.Portfolio.Weights {
		sum += w
		assert.GreaterOrEqual(t, w, -budgetTol)
		if !selected[i] {
			assert.InDelta(t, 0.0, w, budgetTol, "non-selected asset %d", i)
		}
	}
	assert.InDelta(t, 1.0, sum, budgetTol)

	require.NotNil(t, run.Validation)
	assert.True(t, run.Validation.Valid, "errors: %v", run.Validation.Errors)
	require.NotNil(t, run.Baseline)
	assert.False(t, math.IsNaN(run.Portfolio.Sharpe))
}

func TestRunUtilityStrategy(t *testing.T) {
	series := syntheticSeries(t, 400, 6, 7)
	a := newAssembler()

	run, err := a.Run(series, Config{
		NumAssets: 3,
		Strategy:  StrategyUtility,
		Lambda:    4.0,
		RiskFree:  0.02,
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyUtility, run.Strategy)
	assert.Equal(t, StateDone, run.State)
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	series := syntheticSeries(t, 300, 5, 3)
	a := newAssembler()

	_, err := a.Run(series, Config{NumAssets: 3, Strategy: "min_regret", RiskFree: 0.02})
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestRunAbortsOnSelectFailure(t *testing.T) {
	series := syntheticSeries(t, 300, 5, 3)
	a := newAssembler()

	// More assets requested than the universe holds.
	_, err := a.Run(series, Config{NumAssets: 12, RiskFree: 0.02})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestSweepRanksAndSkipsFailures(t *testing.T) {
	series := syntheticSeries(t, 400, 8, 19)
	a := newAssembler()

	res, err := a.Sweep(series, []int{3, 5, 20}, Config{RiskFree: 0.02})
	require.NoError(t, err)

	require.Len(t, res.Runs, 2, "oversized request fails, others survive")
	assert.Contains(t, res.Failed, 20)

	// Ranked by Sharpe, descending.
	assert.GreaterOrEqual(t, res.Runs[0].Portfolio.Sharpe, res.Runs[1].Portfolio.Sharpe)
	require.NotNil(t, res.Best())
	assert.Equal(t, res.Runs[0].ID, res.Best().ID)
}

func TestSweepAllFailed(t *testing.T) {
	series := syntheticSeries(t, 300, 4, 1)
	a := newAssembler()

	_, err := a.Sweep(series, []int{50, 60}, Config{RiskFree: 0.02})
	assert.ErrorIs(t, err, errs.ErrOptimization)
}

func TestSweepRejectsEmptySizes(t *testing.T) {
	series := syntheticSeries(t, 300, 4, 1)
	a := newAssembler()

	_, err := a.Sweep(series, nil, Config{RiskFree: 0.02})
	assert.ErrorIs(t, err, errs.ErrInput)
}
