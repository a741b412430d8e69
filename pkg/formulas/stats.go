// Package formulas provides the shared financial math used across modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDays is the annualization base for daily return series.
const TradingDays = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDays)
}

// AnnualizedReturn scales a mean daily return to an annual figure.
func AnnualizedReturn(meanDaily float64) float64 {
	return meanDaily * TradingDays
}

// DailyRiskFree converts an annual risk-free rate to its daily equivalent
// using geometric compounding: (1+rf)^(1/252) - 1.
func DailyRiskFree(annual float64) float64 {
	return math.Pow(1+annual, 1.0/TradingDays) - 1
}

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
// Returns 0 when the series has no dispersion.
func SharpeRatio(dailyReturns []float64, rfAnnual float64) float64 {
	sd := StdDev(dailyReturns)
	if sd == 0 {
		return 0
	}
	excess := Mean(dailyReturns) - DailyRiskFree(rfAnnual)
	return excess / sd * math.Sqrt(TradingDays)
}

// CalculateReturns converts prices to simple percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}
