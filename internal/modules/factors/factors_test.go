package factors

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/returns"
	"github.com/Romequinco/cartera/pkg/formulas"
)

func panel(t *testing.T, days, assets int, fill func(day, asset int) float64) *returns.Series {
	t.Helper()
	names := make([]string, assets)
	for j := range names {
		names[j] = fmt.Sprintf("asset%d", j+1)
	}
	data := make([][]float64, days)
	for i := range data {
		row := make([]float64, assets)
		for j := range row {
			row[j] = fill(i, j)
		}
		data[i] = row
	}
	s, err := returns.NewSeries(names, data)
	require.NoError(t, err)
	return s
}

func TestBuildRejectsShortPanel(t *testing.T) {
	s := panel(t, 100, 3, func(int, int) float64 { return 0.001 })

	_, err := NewBuilder(zerolog.Nop()).Build(s, 0.02)
	assert.ErrorIs(t, err, errs.ErrInput)
}

func TestMomentumSkipsRecentMonth(t *testing.T) {
	// Constant daily return everywhere except a large spike inside the
	// skipped final month: momentum must ignore the spike.
	base := 0.001
	s := panel(t, 300, 1, func(day, _ int) float64 {
		if day == 295 {
			return 0.50
		}
		return base
	})

	l, err := NewBuilder(zerolog.Nop()).Build(s, 0.0)
	require.NoError(t, err)

	// 12-2 window covers 231 constant days
	expected := 1.0
	for i := 0; i < momentumLookback-momentumSkip; i++ {
		expected *= 1 + base
	}
	expected -= 1

	assert.InDelta(t, expected, l.Raw[0][0], 1e-9)
}

func TestDegenerateFlatUniverse(t *testing.T) {
	// Identical constant returns: no market variance, no vol, no dispersion.
	s := panel(t, 260, 3, func(int, int) float64 { return 0.001 })

	l, err := NewBuilder(zerolog.Nop()).Build(s, 0.0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, l.Raw[i][4], "zero market variance falls back to beta 1.0")
		assert.Equal(t, 0.0, l.Raw[i][1], "constant returns have zero rolling vol")
		for f := 0; f < l.NumFactors(); f++ {
			assert.Equal(t, 0.0, l.Z[i][f], "no cross-sectional dispersion z-scores to zero")
		}
	}
}

func TestZScoresAndBetaAverage(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := panel(t, 300, 5, func(day, asset int) float64 {
		return 0.0005*float64(asset+1) + 0.01*rng.NormFloat64()
	})

	l, err := NewBuilder(zerolog.Nop()).Build(s, 0.02)
	require.NoError(t, err)
	require.Len(t, l.Z, 5)
	require.Equal(t, len(Names), l.NumFactors())

	// Each z-scored factor column is centered
	for f := 0; f < l.NumFactors(); f++ {
		var mean float64
		for i := 0; i < 5; i++ {
			mean += l.Z[i][f]
		}
		mean /= 5
		assert.InDelta(t, 0.0, mean, 1e-9, "factor %s should be centered", l.Factors[f])
	}

	// Betas against the equal-weight market average to exactly 1
	var betaSum float64
	for i := 0; i < 5; i++ {
		betaSum += l.Raw[i][4]
	}
	assert.InDelta(t, 1.0, betaSum/5, 1e-9)

	// Rolling volatilities are annualized and positive
	for i := 0; i < 5; i++ {
		assert.Greater(t, l.Raw[i][2], 0.0)
		assert.InDelta(t, 0.01*math.Sqrt(formulas.TradingDays), l.Raw[i][3], 0.05)
	}
}
