package usecase

import (
	"context"
	"errors"
	"strings"

	"rag-chat-client/internal/config"
	"rag-chat-client/internal/domain"
	"rag-chat-client/internal/domain/model"
	"rag-chat-client/internal/domain/ports/repository"
	"rag-chat-client/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ConfigStore = (*configStore)(nil)

// ConfigStore persists the connection settings and the session id in the
// key-value store, falling back to defaults for anything never saved.
type ConfigStore interface {
	Load(ctx context.Context) (model.APIConfig, error)
	// Save writes the non-empty fields of partial.
	Save(ctx context.Context, partial model.APIConfig) error
	// LoadSessionID returns "" when no session was saved.
	LoadSessionID(ctx context.Context) (string, error)
	SaveSessionID(ctx context.Context, id string) error
	// ClearSession forgets the saved session id. A missing id is not an error.
	ClearSession(ctx context.Context) error
}

type configStore struct {
	kv       repository.KeyValueStore
	defaults model.APIConfig
	log      *zerolog.Logger
	dev      bool
}

// NewConfigStore uses defaults for keys missing from kv. An empty endpoint
// default becomes config.DefaultEndpoint.
func NewConfigStore(kv repository.KeyValueStore, defaults model.APIConfig, logger *zerolog.Logger, dev bool) *configStore {
	if strings.TrimSpace(defaults.Endpoint) == "" {
		defaults.Endpoint = config.DefaultEndpoint
	}
	l := logger.With().Str("component", "ConfigStore").Logger()
	return &configStore{kv: kv, defaults: defaults, log: &l, dev: dev}
}

func (c *configStore) Load(ctx context.Context) (model.APIConfig, error) {
	cfg := c.defaults
	endpoint, err := c.get(ctx, repository.KeyEndpoint)
	if err != nil {
		return cfg, err
	}
	key, err := c.get(ctx, repository.KeyAPIKey)
	if err != nil {
		return cfg, err
	}
	cfg = cfg.Merge(model.APIConfig{Endpoint: endpoint, APIKey: key})
	c.log.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("api_key", logging.Redact(cfg.APIKey, c.dev)).
		Msg("config loaded")
	return cfg, nil
}

func (c *configStore) Save(ctx context.Context, partial model.APIConfig) error {
	if partial.Endpoint != "" {
		if err := c.kv.Set(ctx, repository.KeyEndpoint, partial.Endpoint); err != nil {
			return err
		}
	}
	if partial.APIKey != "" {
		if err := c.kv.Set(ctx, repository.KeyAPIKey, partial.APIKey); err != nil {
			return err
		}
	}
	return nil
}

func (c *configStore) LoadSessionID(ctx context.Context) (string, error) {
	return c.get(ctx, repository.KeySessionID)
}

func (c *configStore) SaveSessionID(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return c.kv.Set(ctx, repository.KeySessionID, id)
}

func (c *configStore) ClearSession(ctx context.Context) error {
	if err := c.kv.Delete(ctx, repository.KeySessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// get maps a missing key to "".
func (c *configStore) get(ctx context.Context, key string) (string, error) {
	v, err := c.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return v, err
}
