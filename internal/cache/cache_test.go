package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Firm  string `json:"firm"`
	Total string `json:"total"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestFetchJSONLoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{}

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	stores["file"] = fileStore
	stores["redis"], _ = newRedisStore(t)

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			calls := 0
			loader := func(context.Context) (any, error) {
				calls++
				return snapshot{Firm: "TT", Total: "1000.00"}, nil
			}

			var first, second snapshot
			require.NoError(t, FetchJSON(ctx, store, "outstanding:TT:2024-06-30", time.Hour, &first, loader))
			require.NoError(t, FetchJSON(ctx, store, "outstanding:TT:2024-06-30", time.Hour, &second, loader))

			assert.Equal(t, 1, calls)
			assert.Equal(t, first, second)
			assert.Equal(t, "1000.00", second.Total)

			require.NoError(t, store.Delete(ctx, "outstanding:TT:2024-06-30"))
			_, err := store.Get(ctx, "outstanding:TT:2024-06-30")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestFetchJSONLoaderError(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	boom := errors.New("zoho down")
	var dest snapshot
	err = FetchJSON(context.Background(), store, "k", time.Minute, &dest, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFetchJSONReplacesUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), time.Hour))

	var dest snapshot
	require.NoError(t, FetchJSON(ctx, store, "k", time.Hour, &dest, func(context.Context) (any, error) {
		return snapshot{Firm: "fresh"}, nil
	}))
	assert.Equal(t, "fresh", dest.Firm)
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "price/list.xlsx", []byte("xlsx"), time.Hour))
	got, err := store.Get(ctx, "price/list.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), got)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "price/list.xlsx")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("zbtools:k"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFetchBytes(t *testing.T) {
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) ([]byte, error) {
		calls++
		return []byte("data"), nil
	}

	store, _ := newRedisStore(t)
	for range 3 {
		data, err := FetchBytes(ctx, store, "bytes", time.Hour, loader)
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), data)
	}
	assert.Equal(t, 1, calls)

	for range 2 {
		_, err := FetchBytes(ctx, NopStore{}, "bytes", time.Hour, loader)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}
