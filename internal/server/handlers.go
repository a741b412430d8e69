package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Romequinco/cartera/internal/config"
	"github.com/Romequinco/cartera/internal/database"
	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/assembler"
	"github.com/Romequinco/cartera/internal/modules/calculations"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/factors"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/portfolio"
	"github.com/Romequinco/cartera/internal/modules/selection"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/modules/topdown"
	"github.com/Romequinco/cartera/internal/returns"
)

// HandlerDeps collects everything the API handlers need.
type HandlerDeps struct {
	Log       zerolog.Logger
	Config    *config.Config
	ReturnsDB *database.DB
	CacheDB   *database.DB
	Store     *returns.Store
	Cache     *calculations.Cache
	Estimator *statistics.Estimator
	Selector  *selection.Selector
	Optimizer *markowitz.Optimizer
	Simulator *diversification.Simulator
	Factors   *factors.Builder
	TopDown   *topdown.Optimizer
	Assembler *assembler.Assembler
}

// Handlers serves the analytics API. The active universe is held in memory
// behind a lock and reloaded from the store on startup.
type Handlers struct {
	HandlerDeps
	log zerolog.Logger

	mu     sync.RWMutex
	series *returns.Series
}

func NewHandlers(deps HandlerDeps) *Handlers {
	h := &Handlers{
		HandlerDeps: deps,
		log:         deps.Log.With().Str("component", "handlers").Logger(),
	}
	if series, err := deps.Store.Load(); err != nil {
		h.log.Error().Err(err).Msg("Failed to load stored universe")
	} else if series != nil {
		h.series = series
		h.log.Info().Int("assets", series.NumAssets()).Int("days", series.NumDays()).Msg("Loaded stored universe")
	}
	return h
}

func (h *Handlers) currentSeries() (*returns.Series, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.series, h.series != nil
}

// estimate resolves the active universe into moment estimates over window.
func (h *Handlers) estimate(window int) (*statistics.Estimate, *returns.Series, error) {
	series, ok := h.currentSeries()
	if !ok {
		return nil, nil, errs.ErrInput
	}
	est, err := h.Estimator.Estimate(series, window)
	if err != nil {
		return nil, nil, err
	}
	return est, series, nil
}

// HandleHealth pings both databases and reports per-store status. Any
// failing check degrades the endpoint to 503.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, 2)
	status := http.StatusOK
	for name, db := range map[string]*database.DB{
		"returns_db": h.ReturnsDB,
		"cache_db":   h.CacheDB,
	} {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	h.writeJSON(w, status, map[string]any{
		"status":  state,
		"service": "cartera",
		"checks":  checks,
	})
}

// HandleUploadUniverse replaces the active universe. Accepts CSV
// (text/csv, optional leading date column) or JSON {names, data}.
func (h *Handlers) HandleUploadUniverse(w http.ResponseWriter, r *http.Request) {
	var series *returns.Series
	var err error

	if strings.Contains(r.Header.Get("Content-Type"), "csv") {
		series, err = returns.ReadCSV(r.Body)
	} else {
		var body struct {
			Names []string    `json:"names"`
			Data  [][]float64 `json:"data"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		series, err = returns.NewSeries(body.Names, body.Data)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.Store.Save(series); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist universe")
		h.writeError(w, http.StatusInternalServerError, "failed to persist universe")
		return
	}
	for _, ns := range []string{"simulation", "frontier"} {
		if err := h.Cache.InvalidateNamespace(ns); err != nil {
			h.log.Error().Err(err).Str("namespace", ns).Msg("Failed to invalidate cache")
		}
	}

	h.mu.Lock()
	h.series = series
	h.mu.Unlock()

	h.log.Info().Int("assets", series.NumAssets()).Int("days", series.NumDays()).Msg("Universe replaced")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"assets": series.NumAssets(),
		"days":   series.NumDays(),
	})
}

// HandleGetUniverse reports the active universe summary.
func (h *Handlers) HandleGetUniverse(w http.ResponseWriter, r *http.Request) {
	series, ok := h.currentSeries()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no universe loaded")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"names":  series.Names,
		"assets": series.NumAssets(),
		"days":   series.NumDays(),
	})
}

// HandleSimulate runs the diversification Monte Carlo.
func (h *Handlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sizes   []int `json:"sizes"`
		NumSims int   `json:"num_sims"`
		Seed    int64 `json:"seed"`
		Window  int   `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Seed == 0 {
		body.Seed = h.Config.SimSeed
	}
	if body.NumSims == 0 {
		body.NumSims = h.Config.SimCount
	}

	est, _, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	key := calculations.Key("simulation", est.Names, est.NumObs, body.Sizes, body.NumSims, body.Seed)
	var curve diversification.Curve
	if err := h.Cache.Get(key, &curve); err == nil {
		h.writeJSON(w, http.StatusOK, &curve)
		return
	}

	result, err := h.Simulator.Simulate(est, diversification.Config{
		Sizes:   body.Sizes,
		NumSims: body.NumSims,
		Seed:    body.Seed,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Cache.Set(key, result, 0); err != nil {
		h.log.Error().Err(err).Msg("Failed to cache simulation curve")
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleOptimalN runs the default simulation and reports the smallest size
// whose marginal volatility reduction falls below the threshold.
func (h *Handlers) HandleOptimalN(w http.ResponseWriter, r *http.Request) {
	threshold := queryFloat(r, "threshold", 2.0)

	est, _, err := h.estimate(0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	curve, err := h.Simulator.Simulate(est, diversification.Config{
		NumSims: h.Config.SimCount,
		Seed:    h.Config.SimSeed,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	optimal, err := diversification.DetectOptimalN(curve, threshold)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"optimal_n":     optimal,
		"threshold_pct": threshold,
		"sizes":         curve.Sizes,
		"mean_vol":      curve.MeanVol,
	})
}

// HandleEqualWeight reports the naive 1/N benchmark for the full universe.
func (h *Handlers) HandleEqualWeight(w http.ResponseWriter, r *http.Request) {
	est, _, err := h.estimate(0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	result, err := diversification.AnalyzeEqualWeight(est, h.Config.RiskFreeRate)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleContributions decomposes the equal-weight portfolio's return and
// risk per asset.
func (h *Handlers) HandleContributions(w http.ResponseWriter, r *http.Request) {
	est, _, err := h.estimate(0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	contribs, err := diversification.Contributions(est)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contribs)
}

// HandleSelect picks the top-n universe subset by composite score.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		N                     int      `json:"n"`
		RiskFree              *float64 `json:"risk_free"`
		QualityWeight         float64  `json:"quality_weight"`
		DiversificationWeight float64  `json:"diversification_weight"`
		Window                int      `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	est, _, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	result, err := h.Selector.Select(est, body.N, selection.Config{
		RiskFree:              h.riskFree(body.RiskFree),
		QualityWeight:         body.QualityWeight,
		DiversificationWeight: body.DiversificationWeight,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleScores returns the composite score for every asset, unranked.
func (h *Handlers) HandleScores(w http.ResponseWriter, r *http.Request) {
	est, _, err := h.estimate(0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	scores, err := h.Selector.Score(est, selection.Config{RiskFree: h.Config.RiskFreeRate})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scores)
}

// HandleOptimize solves one Markowitz program over the full universe.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Strategy string   `json:"strategy"` // max_sharpe | utility | min_variance_target
		Lambda   float64  `json:"lambda"`
		Target   float64  `json:"target"`
		RiskFree *float64 `json:"risk_free"`
		Window   int      `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	est, _, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rf := h.riskFree(body.RiskFree)

	var p *markowitz.Portfolio
	switch body.Strategy {
	case "", "max_sharpe":
		p, err = h.Optimizer.MaxSharpe(est, rf)
	case "utility":
		p, err = h.Optimizer.MaximizeUtility(est, rf, body.Lambda)
	case "min_variance_target":
		p, err = h.Optimizer.MinVarianceForTarget(est, rf, body.Target)
	default:
		h.writeError(w, http.StatusBadRequest, "unknown strategy: "+body.Strategy)
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// HandleFrontier traces the efficient frontier, cached per universe.
func (h *Handlers) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points   int      `json:"points"`
		RiskFree *float64 `json:"risk_free"`
		Window   int      `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	est, _, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rf := h.riskFree(body.RiskFree)

	key := calculations.Key("frontier", est.Names, est.NumObs, rf, body.Points)
	var cached []markowitz.FrontierPoint
	if err := h.Cache.Get(key, &cached); err == nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	points, err := h.Optimizer.EfficientFrontier(est, rf, body.Points)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Cache.Set(key, points, 0); err != nil {
		h.log.Error().Err(err).Msg("Failed to cache frontier")
	}
	h.writeJSON(w, http.StatusOK, points)
}

// HandleSensitivity re-solves max-Sharpe across trailing windows.
func (h *Handlers) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Windows  []int    `json:"windows"`
		RiskFree *float64 `json:"risk_free"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	series, ok := h.currentSeries()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no universe loaded")
		return
	}
	results, err := h.Optimizer.Sensitivity(h.Estimator, series, h.riskFree(body.RiskFree), body.Windows)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// HandleCompare solves every requested strategy over the same estimate and
// ranks them. A strategy that fails to solve is skipped; only an all-failed
// comparison is an error.
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Strategies []string `json:"strategies"` // default: max_sharpe and utility
		Lambda     float64  `json:"lambda"`
		Target     float64  `json:"target"`
		RiskFree   *float64 `json:"risk_free"`
		Window     int      `json:"window"`
		Criterion  string   `json:"criterion"` // sharpe | return | volatility
	}
	if !h.decode(w, r, &body) {
		return
	}
	est, _, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	rf := h.riskFree(body.RiskFree)

	strategies := body.Strategies
	if len(strategies) == 0 {
		strategies = []string{"max_sharpe", "utility"}
	}

	var candidates []portfolio.Candidate
	var lastErr error
	for _, name := range strategies {
		var p *markowitz.Portfolio
		switch name {
		case "max_sharpe":
			p, err = h.Optimizer.MaxSharpe(est, rf)
		case "utility":
			p, err = h.Optimizer.MaximizeUtility(est, rf, body.Lambda)
		case "min_variance_target":
			p, err = h.Optimizer.MinVarianceForTarget(est, rf, body.Target)
		default:
			h.writeError(w, http.StatusBadRequest, "unknown strategy: "+name)
			return
		}
		if err != nil {
			h.log.Warn().Err(err).Str("strategy", name).Msg("Comparison strategy failed")
			lastErr = err
			continue
		}
		candidates = append(candidates, portfolio.Candidate{Name: name, Portfolio: p})
	}
	if len(candidates) == 0 {
		h.writeDomainError(w, lastErr)
		return
	}

	best, _ := portfolio.Best(candidates, body.Criterion)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"table": portfolio.Compare(candidates),
		"best":  best.Name,
	})
}

// HandleLoadings builds the factor loading panel for the active universe.
func (h *Handlers) HandleLoadings(w http.ResponseWriter, r *http.Request) {
	series, ok := h.currentSeries()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no universe loaded")
		return
	}
	rf := queryFloat(r, "risk_free", h.Config.RiskFreeRate)
	loadings, err := h.Factors.Build(series, rf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loadings)
}

// HandleTopDown solves a factor-tracking portfolio for a named strategy or
// explicit target vector.
func (h *Handlers) HandleTopDown(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Strategy     string    `json:"strategy"`
		Targets      []float64 `json:"targets"`
		LambdaRisk   *float64  `json:"lambda_risk"`
		TauTurnover  *float64  `json:"tau_turnover"`
		WeightMethod string    `json:"weight_method"`
		PrevWeights  []float64 `json:"prev_weights"`
		RiskFree     *float64  `json:"risk_free"`
		Window       int       `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	est, series, err := h.estimate(body.Window)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	loadings, err := h.Factors.Build(series, h.riskFree(body.RiskFree))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	targets := body.Targets
	if body.Strategy != "" {
		strategy, ok := topdown.StrategyByName(body.Strategy)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown strategy: "+body.Strategy)
			return
		}
		targets = strategy.Vector(loadings.Factors)
	}
	if targets == nil {
		h.writeError(w, http.StatusBadRequest, "strategy or targets required")
		return
	}

	result, err := h.TopDown.Optimize(est, h.riskFree(body.RiskFree), loadings.Z, targets, topdown.Config{
		LambdaRisk:   body.LambdaRisk,
		TauTurnover:  body.TauTurnover,
		WeightMethod: body.WeightMethod,
		PrevWeights:  body.PrevWeights,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleStrategies lists the preset factor target profiles.
func (h *Handlers) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, topdown.Strategies)
}

// HandleRun executes one assembly pipeline run.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NumAssets int      `json:"num_assets"`
		Strategy  string   `json:"strategy"`
		Lambda    float64  `json:"lambda"`
		RiskFree  *float64 `json:"risk_free"`
		Window    int      `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	series, ok := h.currentSeries()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no universe loaded")
		return
	}
	run, err := h.Assembler.Run(series, assembler.Config{
		NumAssets: body.NumAssets,
		Strategy:  body.Strategy,
		Lambda:    body.Lambda,
		RiskFree:  h.riskFree(body.RiskFree),
		Window:    body.Window,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// HandleSweep runs the pipeline across candidate sizes.
func (h *Handlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sizes    []int    `json:"sizes"`
		Strategy string   `json:"strategy"`
		Lambda   float64  `json:"lambda"`
		RiskFree *float64 `json:"risk_free"`
		Window   int      `json:"window"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	series, ok := h.currentSeries()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no universe loaded")
		return
	}
	result, err := h.Assembler.Sweep(series, body.Sizes, assembler.Config{
		Strategy: body.Strategy,
		Lambda:   body.Lambda,
		RiskFree: h.riskFree(body.RiskFree),
		Window:   body.Window,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetRun fetches a persisted run summary.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	strategy, nAssets, sharpe, ret, vol, weightsJSON, err := h.Store.LoadRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		h.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	var weights map[string]float64
	if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Stored run weights are corrupt")
		h.writeError(w, http.StatusInternalServerError, "stored run is corrupt")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":         id,
		"strategy":   strategy,
		"n_assets":   nAssets,
		"sharpe":     sharpe,
		"return":     ret,
		"volatility": vol,
		"weights":    weights,
	})
}

// HandleExportRun renders a persisted run's risky weights as the terminal
// CSV artifact (asset, weight, rank).
func (h *Handlers) HandleExportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, _, _, _, _, weightsJSON, err := h.Store.LoadRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		h.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	var weights map[string]float64
	if err := json.Unmarshal([]byte(weightsJSON), &weights); err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Stored run weights are corrupt")
		h.writeError(w, http.StatusInternalServerError, "stored run is corrupt")
		return
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		if name != assembler.RiskFreeKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	p := &markowitz.Portfolio{
		Names:    names,
		Weights:  make([]float64, len(names)),
		RFWeight: weights[assembler.RiskFreeKey],
	}
	for i, name := range names {
		p.Weights[i] = weights[name]
	}

	rows, err := portfolio.ExportWeights(p)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "run-"+id+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := portfolio.WriteCSV(w, rows); err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to stream weight export")
	}
}

// riskFree falls back to the configured rate when the request omits the
// field. An explicit zero in the body is honored as-is.
func (h *Handlers) riskFree(v *float64) float64 {
	if v == nil {
		return h.Config.RiskFreeRate
	}
	return *v
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true // empty body means all defaults
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeDomainError maps module sentinel errors onto HTTP statuses.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrDegenerate), errors.Is(err, errs.ErrConstraint):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrOptimization):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unhandled handler error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
