package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/ports/repository"
	"rag-chat-client/internal/infra/metrics"

	"gopkg.in/yaml.v3"
)

var _ repository.KeyValueStore = (*FileStore)(nil)

// FileStore keeps keys in a single YAML document, rewritten on every change.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore loads path if it exists. The directory is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: map[string]string{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if err := yaml.Unmarshal(b, &s.values); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		metrics.IncKVOp(DriverFile, "get", "miss")
		return "", domain.ErrNotFound
	}
	metrics.IncKVOp(DriverFile, "get", "hit")
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		metrics.IncKVOp(DriverFile, "set", "error")
		return err
	}
	metrics.IncKVOp(DriverFile, "set", "ok")
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

func (s *FileStore) Close() error { return nil }

// flush writes to a temp file and renames it over the target.
func (s *FileStore) flush() error {
	b, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rag-chat-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
