// ABOUTME: Badger-backed TTL cache for read-mostly JSON values
// ABOUTME: Serves resource list reads between writes and holds per-key TTL values like dashboard analytics
package cache

import (
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
)

// DefaultTTL applies when a cache is opened with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Cache stores JSON-encoded values with a fixed time to live.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (creating if needed) a cache in dir.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return open(badger.DefaultOptions(dir), ttl)
}

// OpenInMemory opens a cache that lives only for the process.
func OpenInMemory(ttl time.Duration) (*Cache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), ttl)
}

func open(opts badger.Options, ttl time.Duration) (*Cache, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Get decodes the value at key into out. It reports false on a miss or an
// expired entry.
func (c *Cache) Get(key string, out any) (bool, error) {
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err != nil {
		cacheRequests.WithLabelValues("error").Inc()
		return false, err
	}
	if found {
		cacheRequests.WithLabelValues("hit").Inc()
	} else {
		cacheRequests.WithLabelValues("miss").Inc()
	}
	return found, nil
}

// Set stores value at key for the cache TTL.
func (c *Cache) Set(key string, value any) error {
	return c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value at key for ttl. A non-positive ttl falls back to
// the cache TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(ttl))
	})
}

// Delete removes key. Missing keys are not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// DropPrefix removes every key starting with prefix.
func (c *Cache) DropPrefix(prefix string) error {
	if err := c.db.DropPrefix([]byte(prefix)); err != nil {
		return fmt.Errorf("drop prefix %s: %w", prefix, err)
	}
	return nil
}

// Close flushes and closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}
