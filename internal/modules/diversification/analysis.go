package diversification

import (
	"fmt"
	"math"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// EqualWeightResult describes the naive 1/N portfolio over the full universe,
// with its variance decomposed into the average-variance and
// average-covariance terms.
type EqualWeightResult struct {
	NumAssets     int
	Return        float64 // annualized
	Volatility    float64 // annualized
	Sharpe        float64
	AvgVariance   float64 // daily Vbar/N term before annualization
	AvgCovariance float64 // daily mean pairwise covariance rhobar
	Degenerate    bool    // true when negative total variance was clamped to 0
}

// AnalyzeEqualWeight computes the equal-weight portfolio over all assets in
// the estimate.
func AnalyzeEqualWeight(est *statistics.Estimate, rfAnnual float64) (*EqualWeightResult, error) {
	if est == nil || est.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: empty estimate", errs.ErrInput)
	}
	n := est.NumAssets()

	var muSum float64
	for _, m := range est.MeanAnnual {
		muSum += m
	}
	ret := muSum / float64(n)

	var varSum, covSum float64
	pairs := 0
	for i := 0; i < n; i++ {
		varSum += est.CovDaily[i][i]
		for j := i + 1; j < n; j++ {
			covSum += est.CovDaily[i][j]
			pairs++
		}
	}
	avgVar := varSum / float64(n)
	avgCov := 0.0
	if pairs > 0 {
		avgCov = covSum / float64(pairs)
	}

	varTerm := avgVar / float64(n)
	variance := (varTerm + avgCov*float64(n-1)/float64(n)) * formulas.TradingDays

	res := &EqualWeightResult{
		NumAssets:     n,
		Return:        ret,
		AvgVariance:   varTerm,
		AvgCovariance: avgCov,
	}
	if variance < 0 {
		variance = 0
		res.Degenerate = true
	}
	res.Volatility = math.Sqrt(variance)
	if res.Volatility > 0 {
		res.Sharpe = (ret - rfAnnual) / res.Volatility
	}
	return res, nil
}

// Contribution describes one asset's share of the equal-weight portfolio's
// return and risk.
type Contribution struct {
	Asset         string
	ReturnContrib float64 // w * mu_i, annualized
	RiskContrib   float64 // w * Cov(R_i, R_p), annualized
	IsDiversifier bool    // risk contribution below the equal share
}

// Contributions decomposes the equal-weight portfolio's return and variance
// per asset. An asset is flagged as a diversifier when its risk contribution
// is below 1/N of the portfolio variance.
func Contributions(est *statistics.Estimate) ([]Contribution, error) {
	if est == nil || est.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: empty estimate", errs.ErrInput)
	}
	n := est.NumAssets()
	w := 1.0 / float64(n)

	// Cov(R_i, R_p) = sum_j w_j * Sigma_ij
	covWithPort := make([]float64, n)
	var portVariance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			covWithPort[i] += w * est.CovAnnual[i][j]
		}
		portVariance += w * covWithPort[i]
	}

	equalShare := portVariance / float64(n)
	out := make([]Contribution, n)
	for i := 0; i < n; i++ {
		rc := w * covWithPort[i]
		out[i] = Contribution{
			Asset:         est.Names[i],
			ReturnContrib: w * est.MeanAnnual[i],
			RiskContrib:   rc,
			IsDiversifier: rc < equalShare,
		}
	}
	return out, nil
}
