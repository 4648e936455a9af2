// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/ports/repository"
)

var _ repository.KeyValueStore = (*memKV)(nil)

// memKV is a small in-memory KeyValueStore used by unit tests.
type memKV struct {
	mu     sync.Mutex
	values map[string]string
	setErr error // used by tests to simulate write failures
	delErr error
	sets   int
	ops    []string
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.ops = append(m.ops, "set "+key)
	m.values[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	m.ops = append(m.ops, "delete "+key)
	delete(m.values, key)
	return nil
}

func (m *memKV) Close() error { return nil }
