package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 3.0, Mean(data), 1e-12)
	// Sample std dev (ddof=1) of 1..5 is sqrt(2.5)
	assert.InDelta(t, math.Sqrt(2.5), StdDev(data), 1e-12)
}

func TestEmptyInputsReturnZero(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{1.0}))
	assert.Equal(t, 0.0, Variance(nil))
	assert.Equal(t, 0.0, Correlation([]float64{1, 2}, []float64{1}))
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

func TestDailyRiskFree(t *testing.T) {
	rf := DailyRiskFree(0.02)

	// Compounding the daily rate over a year recovers the annual rate
	assert.InDelta(t, 0.02, math.Pow(1+rf, TradingDays)-1, 1e-10)
	assert.Greater(t, rf, 0.0)
	assert.Less(t, rf, 0.02/250)
}

func TestSharpeRatioZeroDispersion(t *testing.T) {
	flat := []float64{0.001, 0.001, 0.001, 0.001}
	assert.Equal(t, 0.0, SharpeRatio(flat, 0.02))
}

func TestCalculateReturns(t *testing.T) {
	prices := []float64{100, 110, 99}
	returns := CalculateReturns(prices)

	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestLinspace(t *testing.T) {
	pts := Linspace(0, 1, 5)

	assert.Len(t, pts, 5)
	assert.Equal(t, 0.0, pts[0])
	assert.Equal(t, 1.0, pts[4])
	assert.InDelta(t, 0.25, pts[1], 1e-12)
}
