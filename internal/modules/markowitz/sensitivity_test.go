package markowitz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

// randomSeries builds a deterministic pseudo-random return panel with a
// positive drift so max-Sharpe solves stay well-posed.
func randomSeries(t *testing.T, days, assets int) *returns.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	names := make([]string, assets)
	for j := range names {
		names[j] = fmt.Sprintf("asset%d", j+1)
	}
	data := make([][]float64, days)
	for i := range data {
		row := make([]float64, assets)
		for j := range row {
			row[j] = 0.001 + 0.01*rng.NormFloat64()
		}
		data[i] = row
	}
	s, err := returns.NewSeries(names, data)
	require.NoError(t, err)
	return s
}

func TestSensitivitySkipsOversizedWindows(t *testing.T) {
	series := randomSeries(t, 300, 4)
	estimator := statistics.NewEstimator(zerolog.Nop())
	o := NewOptimizer(zerolog.Nop())

	results, err := o.Sensitivity(estimator, series, 0.02, nil)
	require.NoError(t, err)

	// Of the default windows {252, 504, 756, full}, only 252 and the full
	// sample fit a 300-day panel.
	require.Len(t, results, 2)
	assert.Equal(t, 252, results[0].Window)
	assert.Equal(t, 0, results[1].Window)

	for _, r := range results {
		assertConstraints(t, r.Portfolio)
		assert.Greater(t, r.Herfindahl, 0.0)
		assert.LessOrEqual(t, r.Herfindahl, 1.0+budgetTol)
		assert.GreaterOrEqual(t, r.NumSignificant, 1)
	}
}

func TestSensitivityNilSeries(t *testing.T) {
	o := NewOptimizer(zerolog.Nop())
	_, err := o.Sensitivity(statistics.NewEstimator(zerolog.Nop()), nil, 0.02, nil)
	assert.ErrorIs(t, err, errs.ErrInput)
}
