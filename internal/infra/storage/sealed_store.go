package storage

import (
	"context"
	"errors"
	"fmt"

	"rag-chat-client/internal/domain/ports/repository"
	"rag-chat-client/internal/infra/security"
)

// Sealer encrypts values before they reach the backing store.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var _ repository.KeyValueStore = (*SealedStore)(nil)

// SealedStore encrypts the listed keys and passes every other key through.
// Values written before sealing was enabled are returned as-is.
type SealedStore struct {
	inner  repository.KeyValueStore
	sealer Sealer
	keys   map[string]struct{}
}

func NewSealedStore(inner repository.KeyValueStore, sealer Sealer, keys ...string) *SealedStore {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &SealedStore{inner: inner, sealer: sealer, keys: set}
}

func (s *SealedStore) sealed(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *SealedStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.inner.Get(ctx, key)
	if err != nil || !s.sealed(key) {
		return v, err
	}
	pt, err := s.sealer.Decrypt(v)
	if errors.Is(err, security.ErrNotSealed) {
		return v, nil
	}
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", key, err)
	}
	return pt, nil
}

func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	if !s.sealed(key) {
		return s.inner.Set(ctx, key, value)
	}
	ct, err := s.sealer.Encrypt(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, ct)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Close() error { return s.inner.Close() }
