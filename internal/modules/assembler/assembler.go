// Package assembler orchestrates the full construction pipeline: select a
// subset of the universe, estimate its moments, optimize, and map the solved
// sub-portfolio back onto the full universe.
package assembler

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/portfolio"
	"github.com/Romequinco/cartera/internal/modules/selection"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

// Pipeline states, strictly sequential. A failure before RECONSTRUCT aborts
// the run with no partial output.
type State string

const (
	StateSelect      State = "SELECT"
	StateEstimate    State = "ESTIMATE"
	StateOptimize    State = "OPTIMIZE"
	StateReconstruct State = "RECONSTRUCT"
	StateDone        State = "DONE"
)

// Optimization strategies the pipeline can run.
const (
	StrategyMaxSharpe = "max_sharpe"
	StrategyUtility   = "utility"
)

// RiskFreeKey marks the risk-free sleeve inside a persisted weight map; the
// underscore keeps it from colliding with asset names.
const RiskFreeKey = "_risk_free"

// reconstructTolerance bounds the acceptable drift between the reconstructed
// risky weight sum and 1 - w_rf before renormalization kicks in.
const reconstructTolerance = 1e-6

// Config controls one pipeline run.
type Config struct {
	NumAssets int
	Strategy  string  // max_sharpe (default) or utility
	Lambda    float64 // risk aversion for the utility strategy
	RiskFree  float64
	Window    int // trailing estimation window, 0 = full sample
	Selection selection.Config
}

// Run is the result of one pipeline execution.
type Run struct {
	ID           string
	CreatedAt    time.Time
	State        State
	Strategy     string
	NumAssets    int
	Selection    *selection.Result
	SubPortfolio *markowitz.Portfolio // weights over the selected subset
	Portfolio    *markowitz.Portfolio // reconstructed over the full universe
	Metrics      portfolio.Metrics
	Validation   *portfolio.Report
	Baseline     *diversification.EqualWeightResult // equal-weight full universe
	Renormalized bool                               // reconstruction drift was corrected
}

// Assembler wires the pipeline stages together.
type Assembler struct {
	estimator *statistics.Estimator
	selector  *selection.Selector
	optimizer *markowitz.Optimizer
	store     *returns.Store // optional run persistence
	log       zerolog.Logger
}

// New creates an assembler. store may be nil to skip persistence.
func New(estimator *statistics.Estimator, selector *selection.Selector, optimizer *markowitz.Optimizer, store *returns.Store, log zerolog.Logger) *Assembler {
	return &Assembler{
		estimator: estimator,
		selector:  selector,
		optimizer: optimizer,
		store:     store,
		log:       log.With().Str("component", "assembler").Logger(),
	}
}

// Run executes SELECT -> ESTIMATE -> OPTIMIZE -> RECONSTRUCT -> DONE.
func (a *Assembler) Run(series *returns.Series, cfg Config) (*Run, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", errs.ErrInput)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyMaxSharpe
	}

	run := &Run{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Strategy:  cfg.Strategy,
		NumAssets: cfg.NumAssets,
	}
	log := a.log.With().Str("run_id", run.ID).Logger()

	// SELECT
	run.State = StateSelect
	fullEst, err := a.estimator.Estimate(series, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("select stage: %w", err)
	}
	sel, err := a.selector.Select(fullEst, cfg.NumAssets, cfg.Selection)
	if err != nil {
		return nil, fmt.Errorf("select stage: %w", err)
	}
	run.Selection = sel

	// ESTIMATE over the selected subset
	run.State = StateEstimate
	subEst, err := fullEst.Subset(sel.Indices)
	if err != nil {
		return nil, fmt.Errorf("estimate stage: %w", err)
	}

	// OPTIMIZE
	run.State = StateOptimize
	var sub *markowitz.Portfolio
	switch cfg.Strategy {
	case StrategyMaxSharpe:
		sub, err = a.optimizer.MaxSharpe(subEst, cfg.RiskFree)
	case StrategyUtility:
		sub, err = a.optimizer.MaximizeUtility(subEst, cfg.RiskFree, cfg.Lambda)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", errs.ErrInput, cfg.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("optimize stage: %w", err)
	}
	run.SubPortfolio = sub

	// RECONSTRUCT onto the full universe
	run.State = StateReconstruct
	full, renormalized, err := Reconstruct(sub.Weights, sel.Indices, fullEst.NumAssets(), sub.RFWeight)
	if err != nil {
		return nil, fmt.Errorf("reconstruct stage: %w", err)
	}
	if renormalized {
		log.Warn().Msg("Reconstructed weights drifted from budget, renormalized")
	}
	run.Renormalized = renormalized

	p, err := markowitz.BuildPortfolio(fullEst, cfg.RiskFree, append(full, sub.RFWeight))
	if err != nil {
		return nil, fmt.Errorf("reconstruct stage: %w", err)
	}
	p.RFCapApplied = sub.RFCapApplied
	run.Portfolio = p

	run.Metrics = portfolio.Compute(p)
	run.Validation = portfolio.Validate(p, fullEst.NumAssets(), 0)
	if !run.Validation.Valid {
		// Post-hoc check: flagged, not fatal.
		log.Warn().Strs("errors", run.Validation.Errors).Msg("Reconstructed portfolio failed validation")
	}

	if baseline, err := diversification.AnalyzeEqualWeight(fullEst, cfg.RiskFree); err == nil {
		run.Baseline = baseline
	}

	run.State = StateDone
	log.Info().
		Str("strategy", cfg.Strategy).
		Int("selected", cfg.NumAssets).
		Float64("sharpe", p.Sharpe).
		Msg("Pipeline run complete")

	if a.store != nil {
		if err := a.persist(run); err != nil {
			log.Error().Err(err).Msg("Failed to persist run")
		}
	}

	return run, nil
}

// Reconstruct scatters n sub-portfolio weights onto a full universe vector;
// non-selected assets get zero. When the scattered sum drifts from 1 - wrf
// beyond tolerance it is renormalized and flagged.
func Reconstruct(weights []float64, indices []int, total int, wrf float64) ([]float64, bool, error) {
	if len(weights) != len(indices) {
		return nil, false, fmt.Errorf("%w: %d weights for %d indices", errs.ErrInput, len(weights), len(indices))
	}
	full := make([]float64, total)
	var sum float64
	for k, idx := range indices {
		if idx < 0 || idx >= total {
			return nil, false, fmt.Errorf("%w: index %d outside universe of %d", errs.ErrInput, idx, total)
		}
		full[idx] = weights[k]
		sum += weights[k]
	}

	target := 1.0 - wrf
	if math.Abs(sum-target) <= reconstructTolerance {
		return full, false, nil
	}
	if sum <= 0 {
		return nil, false, fmt.Errorf("%w: reconstructed weights sum to %.8f", errs.ErrDegenerate, sum)
	}
	scale := target / sum
	for i := range full {
		full[i] *= scale
	}
	return full, true, nil
}

func (a *Assembler) persist(run *Run) error {
	weights := make(map[string]float64, len(run.Portfolio.Weights)+1)
	for i, w := range run.Portfolio.Weights {
		if w > 0 {
			weights[run.Portfolio.Names[i]] = w
		}
	}
	weights[RiskFreeKey] = run.Portfolio.RFWeight

	blob, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return a.store.SaveRun(
		run.ID,
		run.CreatedAt.Unix(),
		run.Strategy,
		run.NumAssets,
		run.Portfolio.Sharpe,
		run.Portfolio.Return,
		run.Portfolio.Volatility,
		string(blob),
	)
}
