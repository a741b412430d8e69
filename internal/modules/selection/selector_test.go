package selection

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

func estimateFrom(t *testing.T, names []string, data [][]float64) *statistics.Estimate {
	t.Helper()
	s, err := returns.NewSeries(names, data)
	require.NoError(t, err)
	est, err := statistics.NewEstimator(zerolog.Nop()).Estimate(s, 0)
	require.NoError(t, err)
	return est
}

// Three assets: A has the best risk-adjusted returns, B mirrors A (highly
// correlated), C is flat noise.
func testEstimate(t *testing.T) *statistics.Estimate {
	t.Helper()
	return estimateFrom(t,
		[]string{"A", "B", "C"},
		[][]float64{
			{0.010, 0.011, 0.001},
			{0.012, 0.013, -0.002},
			{0.008, 0.009, 0.002},
			{0.011, 0.012, -0.001},
			{0.009, 0.010, 0.001},
		})
}

func TestScoreWeightsMustSumToOne(t *testing.T) {
	est := testEstimate(t)
	sel := NewSelector(zerolog.Nop())

	_, err := sel.Score(est, Config{QualityWeight: 0.9, DiversificationWeight: 0.3})
	assert.ErrorIs(t, err, errs.ErrInput)

	_, err = sel.Score(est, Config{QualityWeight: 0.5, DiversificationWeight: 0.5})
	assert.NoError(t, err)
}

func TestScoreRange(t *testing.T) {
	est := testEstimate(t)

	scores, err := NewSelector(zerolog.Nop()).Score(est, Config{RiskFree: 0.02})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	for _, sc := range scores {
		assert.GreaterOrEqual(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0)
	}

	// A and B mirror each other, so both carry a high average correlation
	assert.Greater(t, scores[0].AvgCorr, scores[2].AvgCorr)
}

func TestSelectRanksByScore(t *testing.T) {
	est := testEstimate(t)
	sel := NewSelector(zerolog.Nop())

	res, err := sel.Select(est, 2, Config{RiskFree: 0.02})
	require.NoError(t, err)
	require.Len(t, res.Selected, 2)
	require.Len(t, res.Indices, 2)

	assert.GreaterOrEqual(t, res.Selected[0].Score, res.Selected[1].Score)

	// Indices point back into the universe
	for i, a := range res.Selected {
		assert.Equal(t, est.Names[a.Index], a.Name)
		assert.Equal(t, a.Index, res.Indices[i])
	}
}

func TestSelectRejectsOversizedRequest(t *testing.T) {
	est := testEstimate(t)
	sel := NewSelector(zerolog.Nop())

	_, err := sel.Select(est, 10, Config{})
	assert.ErrorIs(t, err, errs.ErrInput)

	_, err = sel.Select(est, 0, Config{})
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestSelectFlagsHighlyCorrelatedSubset(t *testing.T) {
	// A and B move in lockstep; selecting both should trip the warning flag.
	est := estimateFrom(t,
		[]string{"A", "B"},
		[][]float64{
			{0.010, 0.010},
			{0.012, 0.012},
			{0.008, 0.008},
			{0.011, 0.011},
		})

	res, err := NewSelector(zerolog.Nop()).Select(est, 2, Config{})
	require.NoError(t, err)

	assert.Greater(t, res.SubsetMeanCorr, HighCorrelationThreshold)
	assert.True(t, res.HighCorrelation)
}

func TestScoreNeutralNormalizationWhenNoSpread(t *testing.T) {
	// Identical assets: min == max for every metric, all scores neutral.
	est := estimateFrom(t,
		[]string{"A", "B"},
		[][]float64{
			{0.01, 0.01},
			{0.02, 0.02},
			{0.03, 0.03},
		})

	scores, err := NewSelector(zerolog.Nop()).Score(est, Config{})
	require.NoError(t, err)
	for _, sc := range scores {
		assert.InDelta(t, 0.5, sc.Score, 1e-12)
	}
}
