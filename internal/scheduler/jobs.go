package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Romequinco/cartera/internal/modules/calculations"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

// CachePruneJob removes expired cache entries.
type CachePruneJob struct {
	cache *calculations.Cache
	log   zerolog.Logger
}

func NewCachePruneJob(cache *calculations.Cache, log zerolog.Logger) *CachePruneJob {
	return &CachePruneJob{
		cache: cache,
		log:   log.With().Str("job", "cache_prune").Logger(),
	}
}

func (j *CachePruneJob) Name() string { return "cache_prune" }

func (j *CachePruneJob) Run() error {
	n, err := j.cache.Prune()
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	if n > 0 {
		j.log.Info().Int64("removed", n).Msg("Pruned expired cache entries")
	}
	return nil
}

// WarmupJob recomputes the diversification curve and efficient frontier for
// the stored universe so interactive requests hit a fresh cache.
type WarmupJob struct {
	store     *returns.Store
	cache     *calculations.Cache
	estimator *statistics.Estimator
	simulator *diversification.Simulator
	optimizer *markowitz.Optimizer
	riskFree  float64
	seed      int64
	numSims   int
	log       zerolog.Logger
}

func NewWarmupJob(
	store *returns.Store,
	cache *calculations.Cache,
	estimator *statistics.Estimator,
	simulator *diversification.Simulator,
	optimizer *markowitz.Optimizer,
	riskFree float64,
	seed int64,
	numSims int,
	log zerolog.Logger,
) *WarmupJob {
	return &WarmupJob{
		store:     store,
		cache:     cache,
		estimator: estimator,
		simulator: simulator,
		optimizer: optimizer,
		riskFree:  riskFree,
		seed:      seed,
		numSims:   numSims,
		log:       log.With().Str("job", "warmup").Logger(),
	}
}

func (j *WarmupJob) Name() string { return "warmup" }

func (j *WarmupJob) Run() error {
	series, err := j.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}
	if series == nil {
		j.log.Debug().Msg("No universe stored, nothing to warm")
		return nil
	}

	est, err := j.estimator.Estimate(series, 0)
	if err != nil {
		return fmt.Errorf("failed to estimate moments: %w", err)
	}

	curve, err := j.simulator.Simulate(est, diversification.Config{
		NumSims: j.numSims,
		Seed:    j.seed,
	})
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	simKey := calculations.Key("simulation", est.Names, est.NumObs, []int(nil), j.numSims, j.seed)
	if err := j.cache.Set(simKey, curve, 0); err != nil {
		return fmt.Errorf("failed to cache simulation: %w", err)
	}

	points, err := j.optimizer.EfficientFrontier(est, j.riskFree, 0)
	if err != nil {
		// A degenerate universe is not a job failure worth alerting on.
		j.log.Warn().Err(err).Msg("Frontier warmup skipped")
		return nil
	}
	frontierKey := calculations.Key("frontier", est.Names, est.NumObs, j.riskFree, 0)
	if err := j.cache.Set(frontierKey, points, 0); err != nil {
		return fmt.Errorf("failed to cache frontier: %w", err)
	}

	j.log.Info().
		Int("sizes", len(curve.Sizes)).
		Int("frontier_points", len(points)).
		Msg("Warmed analytics caches")
	return nil
}
