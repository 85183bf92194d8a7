// Package storage persists the per-user profile and onboarding records on
// top of a kv.Repository. Records are JSON, keyed {namespace}:{kind}:{uid}.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mapfriends/internal/client/models"
	"github.com/dmitrijs2005/mapfriends/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mapfriends/internal/common"
	"github.com/dmitrijs2005/mapfriends/internal/logging"
)

const (
	KindProfile    = "profile"
	KindOnboarding = "onboarding"
)

// RecordStore reads and writes one record kind. Reads never fail: absent,
// unreadable or malformed records come back as nil.
type RecordStore[T any] struct {
	repo      kv.Repository
	namespace string
	kind      string
	log       logging.Logger
}

type (
	ProfileStore    = RecordStore[models.StoredProfile]
	OnboardingStore = RecordStore[models.OnboardingFlags]
)

func newRecordStore[T any](repo kv.Repository, namespace, kind string, log logging.Logger) *RecordStore[T] {
	return &RecordStore[T]{
		repo:      repo,
		namespace: namespace,
		kind:      kind,
		log:       log.With("kind", kind),
	}
}

// Key returns the storage key of uid's record.
func (s *RecordStore[T]) Key(uid string) string {
	return fmt.Sprintf("%s:%s:%s", s.namespace, s.kind, uid)
}

func (s *RecordStore[T]) Get(ctx context.Context, uid string) *T {
	key := s.Key(uid)

	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "read failed, treating record as absent", "key", key, "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn(ctx, "malformed record, treating as absent", "key", key, "error", err)
		return nil
	}
	return v
}

func (s *RecordStore[T]) Set(ctx context.Context, uid string, v T) error {
	key, raw, err := s.Entry(uid, v)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, key, raw)
}

// Entry returns the key and encoded value Set would write.
func (s *RecordStore[T]) Entry(uid string, v T) (string, []byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s record: %w", s.kind, err)
	}
	return s.Key(uid), raw, nil
}

// Store groups the stores of the active user's records.
type Store struct {
	Profiles   *ProfileStore
	Onboarding *OnboardingStore
	repo       kv.Repository
}

// New returns a Store over repo. An empty namespace uses
// common.DefaultStorageNamespace.
func New(repo kv.Repository, namespace string, log logging.Logger) *Store {
	if namespace == "" {
		namespace = common.DefaultStorageNamespace
	}
	log = log.With("module", "storage")
	return &Store{
		Profiles:   newRecordStore[models.StoredProfile](repo, namespace, KindProfile, log),
		Onboarding: newRecordStore[models.OnboardingFlags](repo, namespace, KindOnboarding, log),
		repo:       repo,
	}
}

// Commit writes the given records for uid in one step. Nil records are
// skipped; when both are set they are written atomically.
func (s *Store) Commit(ctx context.Context, uid string, p *models.StoredProfile, f *models.OnboardingFlags) error {
	values := make(map[string][]byte, 2)

	if p != nil {
		k, v, err := s.Profiles.Entry(uid, *p)
		if err != nil {
			return err
		}
		values[k] = v
	}
	if f != nil {
		k, v, err := s.Onboarding.Entry(uid, *f)
		if err != nil {
			return err
		}
		values[k] = v
	}

	switch len(values) {
	case 0:
		return nil
	case 1:
		for k, v := range values {
			return s.repo.Set(ctx, k, v)
		}
	}
	return s.repo.SetMany(ctx, values)
}
