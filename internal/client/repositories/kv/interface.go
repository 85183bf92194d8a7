package kv

import "context"

// Repository is a byte-oriented key/value store.
//
// Get returns (nil, nil) when key is absent. SetMany writes all pairs or
// none.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
}
