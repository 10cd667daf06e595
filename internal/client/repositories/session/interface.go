// Package session stores the durable part of the user session in the local
// SQLite database: the bearer token, the cached User snapshot, and the
// timestamp of the last profile fetch.
package session

import (
	"context"
)

// Storage keys. KeyUserLastFetch holds a millisecond Unix timestamp as a
// decimal string.
const (
	KeyAccessToken   = "access_token"
	KeyUser          = "user"
	KeyUserLastFetch = "user_last_fetch"
)

// Repository is a small key-value store over the session table.
// Get returns (nil, nil) for a missing key. Clear removes every key in a
// single statement, so token and snapshot are always torn down together.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
