package returns

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Romequinco/cartera/internal/database"
	"github.com/Romequinco/cartera/internal/errs"
)

func TestNewSeriesValidation(t *testing.T) {
	_, err := NewSeries(nil, [][]float64{{0.01}})
	assert.ErrorIs(t, err, errs.ErrInput)

	_, err = NewSeries([]string{"A"}, nil)
	assert.ErrorIs(t, err, errs.ErrInput)

	_, err = NewSeries([]string{"A", "B"}, [][]float64{{0.01}})
	assert.ErrorIs(t, err, errs.ErrInput, "ragged rows should be rejected")

	_, err = NewSeries([]string{"A"}, [][]float64{{math.NaN()}})
	assert.ErrorIs(t, err, errs.ErrInput, "NaN returns should be rejected")
}

func TestSubsetAndWindow(t *testing.T) {
	s, err := NewSeries([]string{"A", "B", "C"}, [][]float64{
		{0.01, 0.02, 0.03},
		{0.04, 0.05, 0.06},
		{0.07, 0.08, 0.09},
	})
	require.NoError(t, err)

	sub, err := s.Subset([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, sub.Names)
	assert.Equal(t, []float64{0.03, 0.01}, sub.Data[0])

	_, err = s.Subset([]int{5})
	assert.ErrorIs(t, err, errs.ErrInput)

	w := s.Window(2)
	assert.Equal(t, 2, w.NumDays())
	assert.Equal(t, 0.04, w.Data[0][0])

	assert.Equal(t, 3, s.Window(0).NumDays(), "non-positive window keeps full sample")
	assert.Equal(t, 3, s.Window(100).NumDays(), "oversized window keeps full sample")
}

func TestReadCSV(t *testing.T) {
	input := "date,AAA,BBB\n2024-01-02,0.01,-0.02\n2024-01-03,0.005,0.015\n"
	s, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB"}, s.Names)
	assert.Equal(t, 2, s.NumDays())
	assert.InDelta(t, -0.02, s.Data[0][1], 1e-12)
}

func TestReadCSVRejectsBadValues(t *testing.T) {
	input := "AAA,BBB\n0.01,oops\n"
	_, err := ReadCSV(strings.NewReader(input))
	assert.ErrorIs(t, err, errs.ErrInput)
}

func newTestDB(t *testing.T, name string) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path: fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", t.Name(), name),
		Name: name,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreRoundTrip(t *testing.T) {
	db := newTestDB(t, "returns")
	store := NewStore(db)

	s, err := NewSeries([]string{"AAA", "BBB"}, [][]float64{
		{0.01, -0.02},
		{0.005, 0.015},
	})
	require.NoError(t, err)

	require.NoError(t, store.Save(s))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.ElementsMatch(t, s.Names, loaded.Names)
	assert.Equal(t, s.NumDays(), loaded.NumDays())

	// Values survive regardless of column ordering
	for j, name := range loaded.Names {
		orig := 0
		for k, n := range s.Names {
			if n == name {
				orig = k
			}
		}
		for i := range s.Data {
			assert.InDelta(t, s.Data[i][orig], loaded.Data[i][j], 1e-12)
		}
	}
}

func TestSaveRunAndLoadRun(t *testing.T) {
	db := newTestDB(t, "returns")
	store := NewStore(db)

	require.NoError(t, store.SaveRun("run-1", 1700000000, "max_sharpe", 7, 1.23, 0.08, 0.12, `{"AAA":0.5}`))

	strategy, n, sharpe, ret, vol, weights, err := store.LoadRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "max_sharpe", strategy)
	assert.Equal(t, 7, n)
	assert.InDelta(t, 1.23, sharpe, 1e-12)
	assert.InDelta(t, 0.08, ret, 1e-12)
	assert.InDelta(t, 0.12, vol, 1e-12)
	assert.Contains(t, weights, "AAA")
}
