// Package selection ranks assets by a composite quality/decorrelation score
// and picks the subset that feeds the optimizers.
package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/pkg/formulas"
)

const (
	// DefaultQualityWeight and DefaultDiversificationWeight balance the
	// composite score toward historical risk-adjusted performance.
	DefaultQualityWeight         = 0.7
	DefaultDiversificationWeight = 0.3

	// HighCorrelationThreshold flags a selected subset whose mean pairwise
	// correlation undermines the diversification premise.
	HighCorrelationThreshold = 0.80

	weightSumTolerance = 1e-6
)

// Config controls scoring and selection.
type Config struct {
	RiskFree              float64 // annual
	QualityWeight         float64
	DiversificationWeight float64
}

func (c Config) withDefaults() Config {
	if c.QualityWeight == 0 && c.DiversificationWeight == 0 {
		c.QualityWeight = DefaultQualityWeight
		c.DiversificationWeight = DefaultDiversificationWeight
	}
	return c
}

// AssetScore holds the per-asset metrics behind a selection decision.
type AssetScore struct {
	Index         int // position in the universe
	Name          string
	Sharpe        float64 // annualized
	Return        float64 // annualized
	Volatility    float64 // annualized
	AvgCorr       float64 // mean correlation against the rest of the universe
	Decorrelation float64 // 1 - AvgCorr
	Score         float64
}

// Result is a ranked selection of assets.
type Result struct {
	Selected        []AssetScore // top-k by score, descending
	Indices         []int        // universe indices of the selected assets
	SubsetMeanCorr  float64      // mean pairwise correlation among selected
	HighCorrelation bool         // SubsetMeanCorr above the warning threshold
}

// Selector scores and selects assets.
type Selector struct {
	log zerolog.Logger
}

// NewSelector creates a new asset selector.
func NewSelector(log zerolog.Logger) *Selector {
	return &Selector{
		log: log.With().Str("component", "selection").Logger(),
	}
}

// Score computes the composite score for every asset in the estimate.
// Raw Sharpe and decorrelation are min-max scaled to [0,1] across the
// universe before combining; a degenerate spread maps everything to a
// neutral 0.5.
func (s *Selector) Score(est *statistics.Estimate, cfg Config) ([]AssetScore, error) {
	if est == nil || est.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: empty estimate", errs.ErrInput)
	}
	cfg = cfg.withDefaults()
	if math.Abs(cfg.QualityWeight+cfg.DiversificationWeight-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("%w: selection weights sum to %f, expected 1",
			errs.ErrInput, cfg.QualityWeight+cfg.DiversificationWeight)
	}

	n := est.NumAssets()
	rfDaily := formulas.DailyRiskFree(cfg.RiskFree)
	corr := est.Correlations()

	scores := make([]AssetScore, n)
	for i := 0; i < n; i++ {
		sd := math.Sqrt(est.CovDaily[i][i])
		sharpe := 0.0
		if sd > 0 {
			sharpe = (est.MeanDaily[i] - rfDaily) / sd * math.Sqrt(formulas.TradingDays)
		} else {
			// Zero-variance asset: Sharpe is undefined, fall back to 0.
			s.log.Warn().Str("asset", est.Names[i]).Msg("Zero volatility, Sharpe set to 0")
		}

		var corrSum float64
		for j := 0; j < n; j++ {
			if j != i {
				corrSum += corr[i][j]
			}
		}
		avgCorr := 0.0
		if n > 1 {
			avgCorr = corrSum / float64(n-1)
		}

		scores[i] = AssetScore{
			Index:         i,
			Name:          est.Names[i],
			Sharpe:        sharpe,
			Return:        est.MeanAnnual[i],
			Volatility:    sd * math.Sqrt(formulas.TradingDays),
			AvgCorr:       avgCorr,
			Decorrelation: 1 - avgCorr,
		}
	}

	sharpeNorm := minMaxNormalize(scores, func(a AssetScore) float64 { return a.Sharpe })
	decorrNorm := minMaxNormalize(scores, func(a AssetScore) float64 { return a.Decorrelation })
	for i := range scores {
		scores[i].Score = cfg.QualityWeight*sharpeNorm[i] + cfg.DiversificationWeight*decorrNorm[i]
	}

	return scores, nil
}

// Select ranks the universe and returns the top k assets.
func (s *Selector) Select(est *statistics.Estimate, k int, cfg Config) (*Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: selection size must be positive, got %d", errs.ErrInput, k)
	}
	if est != nil && k > est.NumAssets() {
		return nil, fmt.Errorf("%w: selection size %d exceeds universe of %d assets",
			errs.ErrInput, k, est.NumAssets())
	}

	scores, err := s.Score(est, cfg)
	if err != nil {
		return nil, err
	}

	ranked := make([]AssetScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	selected := ranked[:k]
	indices := make([]int, k)
	for i, a := range selected {
		indices[i] = a.Index
	}

	res := &Result{
		Selected:       selected,
		Indices:        indices,
		SubsetMeanCorr: subsetMeanCorrelation(est, indices),
	}
	if res.SubsetMeanCorr > HighCorrelationThreshold {
		res.HighCorrelation = true
		s.log.Warn().
			Float64("mean_correlation", res.SubsetMeanCorr).
			Msg("Selected assets are highly correlated")
	}

	return res, nil
}

func minMaxNormalize(scores []AssetScore, metric func(AssetScore) float64) []float64 {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, a := range scores {
		v := metric(a)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]float64, len(scores))
	if hi == lo {
		// No spread to scale: every asset sits at the neutral midpoint.
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, a := range scores {
		out[i] = (metric(a) - lo) / (hi - lo)
	}
	return out
}

// subsetMeanCorrelation averages the upper-triangle correlations among the
// selected assets.
func subsetMeanCorrelation(est *statistics.Estimate, indices []int) float64 {
	if len(indices) < 2 {
		return 0
	}
	corr := est.Correlations()
	var sum float64
	pairs := 0
	for a := 0; a < len(indices); a++ {
		for b := a + 1; b < len(indices); b++ {
			sum += corr[indices[a]][indices[b]]
			pairs++
		}
	}
	return sum / float64(pairs)
}
