// Package idempotency suppresses duplicate processing of Telegram updates.
// A double-submitted message or callback executes its handler at most once
// per update key.
package idempotency

import (
	"context"
	"time"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Record marks the processing state of one update key.
type Record struct {
	Status   string
	Response []byte
}

// Store persists idempotency records and short-lived execution locks.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}
