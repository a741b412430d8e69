// Package returns holds daily return series and their persistence.
package returns

import (
	"fmt"
	"math"

	"github.com/Romequinco/cartera/internal/errs"
)

// Series is a rectangular matrix of daily simple returns.
// Rows are days in chronological order, columns are assets.
type Series struct {
	Names []string
	Data  [][]float64
}

// NewSeries validates and wraps a returns matrix.
func NewSeries(names []string, data [][]float64) (*Series, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no assets", errs.ErrInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no observations", errs.ErrInput)
	}
	for i, row := range data {
		if len(row) != len(names) {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", errs.ErrInput, i, len(row), len(names))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite return at row %d, asset %s", errs.ErrInput, i, names[j])
			}
		}
	}
	return &Series{Names: names, Data: data}, nil
}

// NumDays returns the number of observations.
func (s *Series) NumDays() int {
	return len(s.Data)
}

// NumAssets returns the number of assets.
func (s *Series) NumAssets() int {
	return len(s.Names)
}

// Column returns a copy of the return series for one asset.
func (s *Series) Column(j int) []float64 {
	col := make([]float64, len(s.Data))
	for i, row := range s.Data {
		col[i] = row[j]
	}
	return col
}

// Subset returns a new series containing only the given asset indices,
// in the given order.
func (s *Series) Subset(indices []int) (*Series, error) {
	names := make([]string, len(indices))
	data := make([][]float64, len(s.Data))
	for k, idx := range indices {
		if idx < 0 || idx >= len(s.Names) {
			return nil, fmt.Errorf("%w: asset index %d out of range", errs.ErrInput, idx)
		}
		names[k] = s.Names[idx]
	}
	for i, row := range s.Data {
		sub := make([]float64, len(indices))
		for k, idx := range indices {
			sub[k] = row[idx]
		}
		data[i] = sub
	}
	return &Series{Names: names, Data: data}, nil
}

// Window returns the last w observations. w <= 0 means the full sample.
func (s *Series) Window(w int) *Series {
	if w <= 0 || w >= len(s.Data) {
		return s
	}
	return &Series{Names: s.Names, Data: s.Data[len(s.Data)-w:]}
}
