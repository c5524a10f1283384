// Package store defines the key-value persistence the ledger snapshots into.
// Backends: in-memory, SQLite file (default), Redis and MongoDB.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been written
var ErrKeyNotFound = errors.New("store: key not found")

// Store is a byte-valued key-value store. There is no transaction across keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
