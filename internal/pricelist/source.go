package pricelist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"zbtools/internal/cache"
	"zbtools/internal/fields"
	"zbtools/internal/logger"
)

const cacheKey = "pricelist.xlsx"

// Source downloads the price list and keeps the workbook in the cache.
type Source struct {
	url     string
	ttl     time.Duration
	store   cache.Store
	client  *http.Client
	aliases fields.Aliases
	log     zerolog.Logger
}

// NewSource creates a price list source. A nil client uses http.DefaultClient.
func NewSource(url string, ttl time.Duration, store cache.Store, client *http.Client, aliases fields.Aliases) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	if store == nil {
		store = cache.NopStore{}
	}
	return &Source{
		url:     url,
		ttl:     ttl,
		store:   store,
		client:  client,
		aliases: aliases,
		log:     logger.WithComponent("pricelist"),
	}
}

// Load returns the parsed price list, downloading it when the cached copy is missing or stale.
func (s *Source) Load(ctx context.Context) (*List, error) {
	const op = "Load"

	if s.url == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoURL)
	}
	data, err := cache.FetchBytes(ctx, s.store, cacheKey, s.ttl, s.download)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := Parse(bytes.NewReader(data), s.aliases)
	if err != nil {
		if delErr := s.store.Delete(ctx, cacheKey); delErr != nil {
			s.log.Warn().Err(delErr).Msg("Failed to drop cached price list")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Invalidate drops the cached workbook so the next Load downloads it again.
func (s *Source) Invalidate(ctx context.Context) error {
	return s.store.Delete(ctx, cacheKey)
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download price list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download price list: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read price list: %w", err)
	}

	s.log.Info().
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Price list downloaded")
	return data, nil
}
