package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/database"
	"github.com/Romequinco/cartera/internal/modules/calculations"
	"github.com/Romequinco/cartera/internal/modules/diversification"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
	"github.com/Romequinco/cartera/internal/modules/statistics"
	"github.com/Romequinco/cartera/internal/returns"
)

func newTestDB(t *testing.T, name string) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path: fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", t.Name(), name),
		Name: name,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

type countingJob struct {
	calls int
	err   error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.calls++
	return j.err
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.calls)

	job.err = errors.New("boom")
	assert.Error(t, s.RunNow(job))
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.NoError(t, s.AddJob("@every 1h", &countingJob{}))
}

func TestCachePruneJob(t *testing.T) {
	cache := calculations.NewCache(newTestDB(t, "cache"), zerolog.Nop())

	key := calculations.Key("frontier", "stale")
	require.NoError(t, cache.Set(key, 1.0, time.Minute))

	job := NewCachePruneJob(cache, zerolog.Nop())
	assert.Equal(t, "cache_prune", job.Name())
	require.NoError(t, job.Run())

	// Entry is still live, prune must keep it.
	var out float64
	assert.NoError(t, cache.Get(key, &out))
}

func TestWarmupJobWithoutUniverse(t *testing.T) {
	log := zerolog.Nop()
	store := returns.NewStore(newTestDB(t, "returns"))
	cache := calculations.NewCache(newTestDB(t, "cache"), log)

	job := NewWarmupJob(
		store, cache,
		statistics.NewEstimator(log),
		diversification.NewSimulator(log),
		markowitz.NewOptimizer(log),
		0.02, 42, 20,
		log,
	)
	assert.Equal(t, "warmup", job.Name())
	assert.NoError(t, job.Run(), "missing universe is not a failure")
}
