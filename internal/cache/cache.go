// Package cache keeps fetched reports and downloads between runs, in files or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zbtools/internal/config"
	"zbtools/internal/logger"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Open returns the store selected by CACHE_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	const op = "Open"

	switch cfg.CacheBackend {
	case "redis":
		store, err := NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return store, nil
	case "none":
		return NopStore{}, nil
	default:
		store, err := NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return store, nil
	}
}

// NopStore caches nothing.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopStore) Delete(context.Context, string) error                     { return nil }

// FetchJSON decodes the cached value of key into dest, or calls loader, caches its
// result for ttl and decodes that. Cache write failures are logged, not returned.
func FetchJSON(ctx context.Context, store Store, key string, ttl time.Duration, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	log := logger.WithComponent("cache")

	payload, err := store.Get(ctx, key)
	switch {
	case err == nil:
		jsonErr := json.Unmarshal(payload, dest)
		if jsonErr == nil {
			log.Debug().Str("key", key).Msg("Cache hit")
			return nil
		}
		log.Warn().Err(jsonErr).Str("key", key).Msg("Discarding unreadable cache entry")
		if delErr := store.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("Failed to delete cache entry")
		}
	case errors.Is(err, ErrMiss):
	default:
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading fresh data")
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write cache entry")
	}
	return json.Unmarshal(raw, dest)
}

// FetchBytes returns the cached bytes of key, or calls loader and caches its result.
func FetchBytes(ctx context.Context, store Store, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	log := logger.WithComponent("cache")

	data, err := store.Get(ctx, key)
	if err == nil {
		log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Cache hit")
		return data, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading fresh data")
	}

	data, err = loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write cache entry")
	}
	return data, nil
}
