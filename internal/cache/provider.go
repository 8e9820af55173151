// Package cache provides the read-through cache used in front of fleet store
// lookups. Callers must treat every cache failure as a miss; the store remains
// the source of truth.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss reports an absent key.
var ErrCacheMiss = errors.New("cache miss")

// Provider is the cache surface the store client depends on.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// NoopProvider satisfies Provider without storing anything, used when caching
// is disabled so call sites need no nil checks.
type NoopProvider struct{}

var _ Provider = NoopProvider{}

func (NoopProvider) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopProvider) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}

func (NoopProvider) Del(context.Context, string) error { return nil }

func (NoopProvider) Close() error { return nil }
