package statistics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/returns"
	"github.com/Romequinco/cartera/pkg/formulas"
)

func mustSeries(t *testing.T, names []string, data [][]float64) *returns.Series {
	t.Helper()
	s, err := returns.NewSeries(names, data)
	require.NoError(t, err)
	return s
}

func TestEstimateMoments(t *testing.T) {
	s := mustSeries(t, []string{"A", "B"}, [][]float64{
		{0.01, 0.02},
		{0.02, 0.01},
		{0.03, 0.03},
	})

	est, err := NewEstimator(zerolog.Nop()).Estimate(s, 0)
	require.NoError(t, err)
	require.NotNil(t, est)

	assert.InDelta(t, 0.02, est.MeanDaily[0], 1e-12)
	assert.InDelta(t, 0.02, est.MeanDaily[1], 1e-12)

	// Sample variance (ddof=1) of {0.01, 0.02, 0.03} is 1e-4
	assert.InDelta(t, 1e-4, est.CovDaily[0][0], 1e-12)
	// Annualization is linear
	assert.InDelta(t, est.CovDaily[0][1]*formulas.TradingDays, est.CovAnnual[0][1], 1e-15)
	assert.InDelta(t, est.MeanDaily[0]*formulas.TradingDays, est.MeanAnnual[0], 1e-15)

	// Symmetry
	assert.Equal(t, est.CovDaily[0][1], est.CovDaily[1][0])
}

func TestEstimateRejectsShortSample(t *testing.T) {
	s := mustSeries(t, []string{"A"}, [][]float64{{0.01}})

	_, err := NewEstimator(zerolog.Nop()).Estimate(s, 0)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestEstimateWindow(t *testing.T) {
	data := make([][]float64, 10)
	for i := range data {
		v := 0.001 * float64(i)
		data[i] = []float64{v, -v}
	}
	s := mustSeries(t, []string{"A", "B"}, data)

	est, err := NewEstimator(zerolog.Nop()).Estimate(s, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, est.NumObs)

	// Trailing window picks rows 6..9
	assert.InDelta(t, 0.0075, est.MeanDaily[0], 1e-12)

	_, err = NewEstimator(zerolog.Nop()).Estimate(s, 11)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestCorrelations(t *testing.T) {
	s := mustSeries(t, []string{"A", "B", "C"}, [][]float64{
		{0.01, -0.01, 0.00},
		{0.02, -0.02, 0.00},
		{0.03, -0.03, 0.00},
		{0.01, -0.01, 0.00},
	})

	est, err := NewEstimator(zerolog.Nop()).Estimate(s, 0)
	require.NoError(t, err)

	corr := est.Correlations()
	assert.InDelta(t, 1.0, corr[0][0], 1e-12)
	assert.InDelta(t, -1.0, corr[0][1], 1e-9, "perfectly anti-correlated pair")
	assert.Equal(t, 0.0, corr[0][2], "zero-variance asset has zero correlation")
}

func TestSubset(t *testing.T) {
	s := mustSeries(t, []string{"A", "B", "C"}, [][]float64{
		{0.01, 0.02, 0.03},
		{0.03, 0.01, 0.02},
		{0.02, 0.03, 0.01},
	})

	est, err := NewEstimator(zerolog.Nop()).Estimate(s, 0)
	require.NoError(t, err)

	sub, err := est.Subset([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, sub.Names)
	assert.Equal(t, est.MeanDaily[2], sub.MeanDaily[0])
	assert.Equal(t, est.CovDaily[2][0], sub.CovDaily[0][1])

	_, err = est.Subset(nil)
	assert.ErrorIs(t, err, errs.ErrInput)
}
