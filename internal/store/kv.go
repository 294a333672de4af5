package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// KeyValueStore is the only persistence the tournament needs. Writes are last-write-wins,
// there are no transactions across keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
