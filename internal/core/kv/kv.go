// Package kv defines the key-value store used to cache analysis responses.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Entry is a stored value with its metadata.
type Entry struct {
	Key       string
	Value     json.RawMessage
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KV is a persistent key-value store. Values are stored as JSON.
// Get on a missing or expired key returns an error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	ListKeys(ctx context.Context) ([]string, error)
	GetRaw(ctx context.Context, key string) (Entry, error)
}

// Sweeper removes expired entries.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// IsNotFound reports whether err is the missing-or-expired error from Get.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
