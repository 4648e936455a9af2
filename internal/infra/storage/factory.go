package storage

import (
	"context"
	"fmt"

	"rag-chat-client/internal/config"
	"rag-chat-client/internal/domain/ports/repository"
	red "rag-chat-client/internal/infra/redis"
	"rag-chat-client/internal/infra/security"
)

// Driver names accepted in storage.driver.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Open builds the settings store selected by cfg.Storage.Driver. When an
// encryption key is configured the API key is sealed at rest.
func Open(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, error) {
	var (
		store repository.KeyValueStore
		err   error
	)
	switch cfg.Storage.Driver {
	case DriverFile:
		store, err = NewFileStore(cfg.Storage.Path)
	case DriverRedis:
		var cli *red.Client
		cli, err = red.NewClient(ctx, &cfg.Redis)
		if err == nil {
			store = red.NewKVStore(cli, cfg.Redis.TTL)
		}
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s store: %w", cfg.Storage.Driver, err)
	}

	if cfg.Security.EncryptionKey == "" {
		return store, nil
	}
	enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return NewSealedStore(store, enc, repository.KeyAPIKey), nil
}
