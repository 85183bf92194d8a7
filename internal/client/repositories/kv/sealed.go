package kv

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mapfriends/internal/cryptox"
)

// SealedRepository encrypts values with cryptox before handing them to the
// wrapped Repository. Keys stay in clear text.
type SealedRepository struct {
	inner Repository
	key   []byte
}

func NewSealedRepository(inner Repository, key []byte) *SealedRepository {
	return &SealedRepository{inner: inner, key: key}
}

func (r *SealedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := r.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	v, err := cryptox.Open(sealed, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv[%s]: %w", key, err)
	}
	return v, nil
}

func (r *SealedRepository) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(value, r.key)
	if err != nil {
		return fmt.Errorf("failed to seal kv[%s]: %w", key, err)
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *SealedRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		s, err := cryptox.Seal(v, r.key)
		if err != nil {
			return fmt.Errorf("failed to seal kv[%s]: %w", k, err)
		}
		sealed[k] = s
	}
	return r.inner.SetMany(ctx, sealed)
}

func (r *SealedRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}
