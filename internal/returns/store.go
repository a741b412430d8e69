package returns

import (
	"database/sql"
	"fmt"

	"github.com/Romequinco/cartera/internal/database"
)

// Store persists return series in the returns database.
type Store struct {
	db *database.DB
}

// NewStore creates a new store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Save replaces the stored universe with the given series.
func (s *Store) Save(series *Series) error {
	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM returns"); err != nil {
			return fmt.Errorf("failed to clear returns: %w", err)
		}

		stmt, err := tx.Prepare("INSERT INTO returns (asset, day, value) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for day, row := range series.Data {
			for j, v := range row {
				if _, err := stmt.Exec(series.Names[j], day, v); err != nil {
					return fmt.Errorf("failed to insert return for %s day %d: %w", series.Names[j], day, err)
				}
			}
		}
		return nil
	})
}

// Load reads the stored universe. Returns nil when the store is empty.
func (s *Store) Load() (*Series, error) {
	rows, err := s.db.Query("SELECT asset, day, value FROM returns ORDER BY day, asset")
	if err != nil {
		return nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	type cell struct {
		asset string
		day   int
		value float64
	}
	var cells []cell
	nameIndex := map[string]int{}
	var names []string
	maxDay := -1

	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.asset, &c.day, &c.value); err != nil {
			return nil, fmt.Errorf("failed to scan return row: %w", err)
		}
		if _, ok := nameIndex[c.asset]; !ok {
			nameIndex[c.asset] = len(names)
			names = append(names, c.asset)
		}
		if c.day > maxDay {
			maxDay = c.day
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate returns: %w", err)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	data := make([][]float64, maxDay+1)
	for i := range data {
		data[i] = make([]float64, len(names))
	}
	for _, c := range cells {
		data[c.day][nameIndex[c.asset]] = c.value
	}

	return NewSeries(names, data)
}

// SaveRun records a summary row for a completed assembly run.
func (s *Store) SaveRun(id string, createdAt int64, strategy string, nAssets int, sharpe, ret, vol float64, weightsJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, created_at, strategy, n_assets, sharpe, ret, vol, weights)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			strategy = excluded.strategy,
			n_assets = excluded.n_assets,
			sharpe = excluded.sharpe,
			ret = excluded.ret,
			vol = excluded.vol,
			weights = excluded.weights
	`, id, createdAt, strategy, nAssets, sharpe, ret, vol, weightsJSON)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", id, err)
	}
	return nil
}

// LoadRun retrieves a stored run summary by id.
// Returns sql.ErrNoRows when the run does not exist.
func (s *Store) LoadRun(id string) (strategy string, nAssets int, sharpe, ret, vol float64, weightsJSON string, err error) {
	err = s.db.QueryRow(
		"SELECT strategy, n_assets, sharpe, ret, vol, weights FROM runs WHERE id = ?", id,
	).Scan(&strategy, &nAssets, &sharpe, &ret, &vol, &weightsJSON)
	return
}
