package returns

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Romequinco/cartera/internal/errs"
)

// ReadCSV parses a return series from CSV. The header row holds asset names;
// every following row holds one day of simple returns. An optional leading
// "date" column is ignored.
func ReadCSV(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", errs.ErrInput, err)
	}

	skipFirst := len(header) > 0 && (header[0] == "date" || header[0] == "Date" || header[0] == "")
	start := 0
	if skipFirst {
		start = 1
	}
	names := header[start:]
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: CSV header has no asset columns", errs.ErrInput)
	}

	var data [][]float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV line %d: %v", errs.ErrInput, line+1, err)
		}
		line++

		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", errs.ErrInput, line, len(record), len(header))
		}

		row := make([]float64, len(names))
		for j, field := range record[start:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %s: %v", errs.ErrInput, line, names[j], err)
			}
			row[j] = v
		}
		data = append(data, row)
	}

	return NewSeries(names, data)
}
