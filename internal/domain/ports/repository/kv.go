package repository

import (
	"context"
)

// Keys persisted by the client.
const (
	KeyEndpoint  = "rag_app_endpoint"
	KeyAPIKey    = "rag_app_api_key"
	KeySessionID = "rag_app_session_id"
)

// KeyValueStore is a flat string store. Get returns domain.ErrNotFound for
// missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
