// Package staging holds full conversation content that is never persisted.
//
// Entries are addressed by single-use ids and live until they are cleared,
// expire, or are pushed out by the size bound.
package staging

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for unknown or expired ids.
var ErrNotFound = errors.New("staging: not found")

// Store is a bounded, expiring key/value area for staged content.
// Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, id string, payload []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	// Delete removes id and reports whether an entry existed.
	Delete(ctx context.Context, id string) (bool, error)
}
