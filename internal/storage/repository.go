package storage

import (
	"context"
	"errors"
)

// Well-known document keys
const (
	KeyAdmin       = "mb_admin"
	KeySettings    = "mb_settings"
	KeyCredentials = "mb_credentials"
	KeyHistory     = "mb_history"
)

// AllKeys lists every document the application owns
var AllKeys = []string{KeyAdmin, KeySettings, KeyCredentials, KeyHistory}

// DefaultMaxBytes mirrors the usual browser local storage quota
const DefaultMaxBytes = 5 << 20

// ErrStorageWriteFailed is returned when a document could not be persisted,
// either because the quota would be exceeded or the driver failed. Callers
// treat it as a recoverable warning: the previous value is left in place.
var ErrStorageWriteFailed = errors.New("storage write failed")

// Repository is a durable key/value store of JSON documents
type Repository interface {
	// Get returns the raw document. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error

	// Maintenance
	Close() error
	Migrate() error
}
