package assembler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/returns"
)

// SweepResult pairs the runs that completed with the sizes that failed.
type SweepResult struct {
	Runs   []*Run // ranked by full-universe Sharpe, descending
	Failed map[int]string
}

// Best returns the top-ranked run, or nil when every size failed.
func (r *SweepResult) Best() *Run {
	if len(r.Runs) == 0 {
		return nil
	}
	return r.Runs[0]
}

// Sweep runs the pipeline once per candidate size, fanned out across cores.
// A failing size is recorded and skipped rather than aborting the sweep;
// only an all-failed sweep is an error.
func (a *Assembler) Sweep(series *returns.Series, sizes []int, cfg Config) (*SweepResult, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", errs.ErrInput)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes to sweep", errs.ErrInput)
	}

	runs := make([]*Run, len(sizes))
	var mu sync.Mutex
	failed := make(map[int]string)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, n := range sizes {
		i, n := i, n
		g.Go(func() error {
			runCfg := cfg
			runCfg.NumAssets = n
			run, err := a.Run(series, runCfg)
			if err != nil {
				a.log.Warn().Int("n", n).Err(err).Msg("Sweep size failed")
				mu.Lock()
				failed[n] = err.Error()
				mu.Unlock()
				return nil
			}
			runs[i] = run
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures land in the map

	result := &SweepResult{Failed: failed}
	for _, run := range runs {
		if run != nil {
			result.Runs = append(result.Runs, run)
		}
	}
	if len(result.Runs) == 0 {
		return nil, fmt.Errorf("%w: all %d sweep sizes failed", errs.ErrOptimization, len(sizes))
	}

	sort.SliceStable(result.Runs, func(i, j int) bool {
		return result.Runs[i].Portfolio.Sharpe > result.Runs[j].Portfolio.Sharpe
	})
	return result, nil
}
