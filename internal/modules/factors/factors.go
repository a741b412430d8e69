// Package factors builds the standardized factor-loading matrix used by the
// tracking optimizer: momentum, rolling volatilities, market beta, and
// historical Sharpe, z-scored cross-sectionally.
package factors

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/returns"
	"github.com/Romequinco/cartera/pkg/formulas"
)

// Factor names, in matrix column order.
const (
	FactorMomentum   = "momentum"
	FactorVol21d     = "vol_21d"
	FactorVol63d     = "vol_63d"
	FactorVol252d    = "vol_252d"
	FactorBeta       = "beta"
	FactorSharpeHist = "sharpe_hist"
)

// Names lists the factors in column order.
var Names = []string{
	FactorMomentum,
	FactorVol21d,
	FactorVol63d,
	FactorVol252d,
	FactorBeta,
	FactorSharpeHist,
}

const (
	// Momentum 12-2: trailing year excluding the most recent month.
	momentumLookback = 252
	momentumSkip     = 21

	// minSample is the shortest panel the signal set can be built from.
	minSample = momentumLookback + 1
)

var volWindows = []int{21, 63, 252}

// Loadings is the N x K factor matrix for a universe.
type Loadings struct {
	Assets  []string
	Factors []string
	Raw     [][]float64 // raw signal values
	Z       [][]float64 // cross-sectionally z-scored
}

// NumFactors returns K.
func (l *Loadings) NumFactors() int {
	return len(l.Factors)
}

// Builder computes factor loadings from return panels.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a factor builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "factors").Logger(),
	}
}

// Build computes every factor for every asset and z-scores each factor
// across the universe. The panel must cover at least a year of daily data.
func (b *Builder) Build(series *returns.Series, rfAnnual float64) (*Loadings, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", errs.ErrInput)
	}
	if series.NumDays() < minSample {
		return nil, fmt.Errorf("%w: factor signals need %d observations, got %d",
			errs.ErrInput, minSample, series.NumDays())
	}

	n := series.NumAssets()
	market := marketReturns(series)
	marketVar := formulas.Variance(market)

	raw := make([][]float64, n)
	for i := 0; i < n; i++ {
		col := series.Column(i)
		raw[i] = make([]float64, len(Names))
		raw[i][0] = momentum(col)
		raw[i][1] = rollingVol(col, volWindows[0])
		raw[i][2] = rollingVol(col, volWindows[1])
		raw[i][3] = rollingVol(col, volWindows[2])
		raw[i][4] = b.beta(series.Names[i], col, market, marketVar)
		raw[i][5] = formulas.SharpeRatio(col, rfAnnual)
	}

	l := &Loadings{
		Assets:  series.Names,
		Factors: Names,
		Raw:     raw,
		Z:       zscore(raw, len(Names)),
	}

	b.log.Debug().
		Int("assets", n).
		Int("factors", l.NumFactors()).
		Msg("Factor loadings built")
	return l, nil
}

// marketReturns is the equal-weight average return across the universe.
func marketReturns(series *returns.Series) []float64 {
	out := make([]float64, series.NumDays())
	n := float64(series.NumAssets())
	for i, row := range series.Data {
		var sum float64
		for _, v := range row {
			sum += v
		}
		out[i] = sum / n
	}
	return out
}

// momentum is the 12-2 cumulative return: compound growth over the trailing
// year excluding the most recent month.
func momentum(col []float64) float64 {
	end := len(col) - momentumSkip
	start := len(col) - momentumLookback
	growth := 1.0
	for _, r := range col[start:end] {
		growth *= 1 + r
	}
	return growth - 1
}

// rollingVol is the latest rolling standard deviation over the window,
// annualized.
func rollingVol(col []float64, window int) float64 {
	std := talib.StdDev(col, window, 1.0)
	return std[len(std)-1] * math.Sqrt(formulas.TradingDays)
}

// beta regresses the asset on the equal-weight market. A flat market has no
// variance to regress against, so beta falls back to the neutral 1.0.
func (b *Builder) beta(name string, col, market []float64, marketVar float64) float64 {
	if marketVar == 0 {
		b.log.Warn().Str("asset", name).Msg("Market variance is zero, beta set to 1.0")
		return 1.0
	}
	return formulas.Covariance(col, market) / marketVar
}

// zscore standardizes each factor column across assets. A factor with no
// cross-sectional dispersion maps to all zeros.
func zscore(raw [][]float64, k int) [][]float64 {
	n := len(raw)
	z := make([][]float64, n)
	for i := range z {
		z[i] = make([]float64, k)
	}
	col := make([]float64, n)
	for f := 0; f < k; f++ {
		for i := 0; i < n; i++ {
			col[i] = raw[i][f]
		}
		mean := formulas.Mean(col)
		std := formulas.StdDev(col)
		if std == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			z[i][f] = (col[i] - mean) / std
		}
	}
	return z
}
