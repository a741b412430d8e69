// Package statistics estimates the return moments that feed every optimizer.
package statistics

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/returns"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// Estimate holds sample moments for a set of assets, in daily and
// annualized form. Annualization is mu*252 and Sigma*252.
type Estimate struct {
	Names      []string
	NumObs     int
	MeanDaily  []float64
	CovDaily   [][]float64
	MeanAnnual []float64
	CovAnnual  [][]float64
}

// NumAssets returns the number of assets covered by the estimate.
func (e *Estimate) NumAssets() int {
	return len(e.Names)
}

// Correlations builds the correlation matrix from the daily covariance.
// Zero-variance assets get zero correlation against everything.
func (e *Estimate) Correlations() [][]float64 {
	n := len(e.Names)
	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		corr[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			si := math.Sqrt(e.CovDaily[i][i])
			sj := math.Sqrt(e.CovDaily[j][j])
			if si > 0 && sj > 0 {
				c := e.CovDaily[i][j] / (si * sj)
				corr[i][j] = c
				corr[j][i] = c
			}
		}
	}
	return corr
}

// Subset extracts the estimate restricted to the given asset indices.
func (e *Estimate) Subset(indices []int) (*Estimate, error) {
	k := len(indices)
	if k == 0 {
		return nil, fmt.Errorf("%w: empty subset", errs.ErrInput)
	}
	sub := &Estimate{
		Names:      make([]string, k),
		NumObs:     e.NumObs,
		MeanDaily:  make([]float64, k),
		CovDaily:   make([][]float64, k),
		MeanAnnual: make([]float64, k),
		CovAnnual:  make([][]float64, k),
	}
	for a, i := range indices {
		if i < 0 || i >= len(e.Names) {
			return nil, fmt.Errorf("%w: asset index %d out of range", errs.ErrInput, i)
		}
		sub.Names[a] = e.Names[i]
		sub.MeanDaily[a] = e.MeanDaily[i]
		sub.MeanAnnual[a] = e.MeanAnnual[i]
		sub.CovDaily[a] = make([]float64, k)
		sub.CovAnnual[a] = make([]float64, k)
		for b, j := range indices {
			sub.CovDaily[a][b] = e.CovDaily[i][j]
			sub.CovAnnual[a][b] = e.CovAnnual[i][j]
		}
	}
	return sub, nil
}

// Estimator computes sample moments from return series.
type Estimator struct {
	log zerolog.Logger
}

// NewEstimator creates a new moment estimator.
func NewEstimator(log zerolog.Logger) *Estimator {
	return &Estimator{
		log: log.With().Str("component", "statistics").Logger(),
	}
}

// Estimate computes sample mean and covariance (ddof=1) from the given
// series, optionally restricted to the trailing window of observations.
// window <= 0 uses the full sample.
func (e *Estimator) Estimate(series *returns.Series, window int) (*Estimate, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", errs.ErrInput)
	}
	if window > 0 && window > series.NumDays() {
		return nil, fmt.Errorf("%w: window %d exceeds sample length %d", errs.ErrInput, window, series.NumDays())
	}

	s := series.Window(window)
	n := s.NumAssets()
	T := s.NumDays()
	if T < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations for sample covariance, got %d", errs.ErrInput, T)
	}

	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = s.Column(j)
	}

	est := &Estimate{
		Names:      s.Names,
		NumObs:     T,
		MeanDaily:  make([]float64, n),
		CovDaily:   make([][]float64, n),
		MeanAnnual: make([]float64, n),
		CovAnnual:  make([][]float64, n),
	}

	for i := 0; i < n; i++ {
		est.MeanDaily[i] = stat.Mean(cols[i], nil)
		est.MeanAnnual[i] = est.MeanDaily[i] * formulas.TradingDays
		est.CovDaily[i] = make([]float64, n)
		est.CovAnnual[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(cols[i], cols[j], nil)
			est.CovDaily[i][j] = c
			est.CovDaily[j][i] = c
			est.CovAnnual[i][j] = c * formulas.TradingDays
			est.CovAnnual[j][i] = c * formulas.TradingDays
		}
	}

	if err := checkFinite(est); err != nil {
		return nil, err
	}

	e.log.Debug().
		Int("assets", n).
		Int("observations", T).
		Msg("Estimated return moments")

	return est, nil
}

func checkFinite(est *Estimate) error {
	for i, m := range est.MeanDaily {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: non-finite mean for %s", errs.ErrDegenerate, est.Names[i])
		}
	}
	for i := range est.CovDaily {
		for j, c := range est.CovDaily[i] {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: non-finite covariance between %s and %s", errs.ErrDegenerate, est.Names[i], est.Names[j])
			}
		}
	}
	return nil
}
