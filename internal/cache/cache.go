// Package cache holds the shared response cache for inventory reads.
//
// The cache is deliberately all-or-nothing: any sync pass that creates
// entities clears it entirely, since a partial invalidation cannot know
// which list responses embedded the new records.
package cache

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var ErrKeyNotFound = errors.New("cache: key not found")

// Cache is an in-memory key/value response cache backed by badger.
// It is constructed once at process start and injected by reference;
// there is no package-level singleton.
type Cache struct {
	db *badger.DB
}

func New() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Get(key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (c *Cache) Set(key string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Clear drops every cached entry. Called after any entity-creating sync
// pass so stale inventory reads are never served.
func (c *Cache) Clear() error {
	if err := c.db.DropAll(); err != nil {
		zap.S().Named("cache").Errorf("failed to clear cache: %v", err)
		return err
	}
	zap.S().Named("cache").Info("response cache cleared")
	return nil
}

// Dump returns a snapshot of all cached entries, keyed by cache key.
func (c *Cache) Dump() (map[string][]byte, error) {
	entries := make(map[string][]byte)
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries[string(item.Key())] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
