package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Romequinco/cartera/internal/errs"
	"github.com/Romequinco/cartera/internal/modules/markowitz"
)

// WeightRow is one line of the terminal weight export.
type WeightRow struct {
	Asset  string
	Weight float64
	Rank   int
}

// ExportWeights lists risky weights sorted descending with 1-based ranks.
func ExportWeights(p *markowitz.Portfolio) ([]WeightRow, error) {
	if p == nil || len(p.Weights) == 0 {
		return nil, fmt.Errorf("%w: no portfolio to export", errs.ErrInput)
	}
	rows := make([]WeightRow, len(p.Weights))
	for i, w := range p.Weights {
		rows[i] = WeightRow{Asset: p.Names[i], Weight: w}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight > rows[j].Weight })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// WriteCSV writes the weight export in the delivery format.
func WriteCSV(w io.Writer, rows []WeightRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"asset", "weight", "rank"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Asset,
			strconv.FormatFloat(r.Weight, 'f', 8, 64),
			strconv.Itoa(r.Rank),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.Asset, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
