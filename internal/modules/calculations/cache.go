// Package calculations caches the results of expensive analytics (Monte
// Carlo curves, efficient frontiers) so repeated requests with the same
// inputs skip the solve.
package calculations

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Romequinco/cartera/internal/database"
)

// DefaultTTL is how long a cached result stays valid.
const DefaultTTL = 6 * time.Hour

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = sql.ErrNoRows

// Cache stores msgpack-encoded results keyed by a namespaced input hash.
type Cache struct {
	db  *database.DB
	log zerolog.Logger
}

func NewCache(db *database.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calculations").Logger(),
	}
}

// Key derives a stable cache key from a namespace and the inputs that
// determine the result. Any change to an input changes the key.
func Key(namespace string, inputs ...any) string {
	h := sha256.New()
	for _, in := range inputs {
		fmt.Fprintf(h, "%v|", in)
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

// Set stores a value with the given TTL, replacing any existing entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	_, err = c.db.Exec(`
		INSERT INTO cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, blob, time.Now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Get loads a cached value into dest. Returns ErrMiss when the key is
// absent or past its expiration.
func (c *Cache) Get(key string, dest any) error {
	var blob []byte
	var expiresAt int64
	err := c.db.QueryRow("SELECT value, expires_at FROM cache WHERE key = ?", key).Scan(&blob, &expiresAt)
	if err != nil {
		return err
	}
	if time.Now().Unix() >= expiresAt {
		return ErrMiss
	}
	return msgpack.Unmarshal(blob, dest)
}

// Delete removes one entry.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

// InvalidateNamespace removes every entry under a namespace, used when the
// underlying return series changes.
func (c *Cache) InvalidateNamespace(namespace string) error {
	res, err := c.db.Exec("DELETE FROM cache WHERE key LIKE ?", namespace+":%")
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.log.Debug().Str("namespace", namespace).Int64("entries", n).Msg("Invalidated cache namespace")
	}
	return nil
}

// Prune deletes expired entries. Returns the number removed.
func (c *Cache) Prune() (int64, error) {
	res, err := c.db.Exec("DELETE FROM cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
