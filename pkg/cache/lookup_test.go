package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type remoteUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	ID    int    `json:"id"`
}

var userKeys = cache.NewKeyspace("user", "users")

func TestLookup_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("successful fetch is cached", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		l := cache.NewLookup[remoteUser](store, userKeys)
		ctx := context.Background()

		var calls atomic.Int64
		fetch := func(context.Context) (remoteUser, error) {
			calls.Add(1)
			return remoteUser{ID: 3, Name: "Ada"}, nil
		}

		u, ok := l.Resolve(ctx, 3, fetch)
		require.True(t, ok)
		require.Equal(t, "Ada", u.Name)

		u, ok = l.Resolve(ctx, 3, fetch)
		require.True(t, ok)
		require.Equal(t, "Ada", u.Name)
		require.Equal(t, int64(1), calls.Load())

		_, err := store.Get(ctx, "user:external:3")
		require.NoError(t, err)
	})

	t.Run("timeout resolves to absent and is retried", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		l := cache.NewLookup[remoteUser](store, userKeys, cache.WithFetchTimeout(20*time.Millisecond))
		ctx := context.Background()

		var calls atomic.Int64
		slow := true
		fetch := func(ctx context.Context) (remoteUser, error) {
			calls.Add(1)
			if slow {
				<-ctx.Done()
				return remoteUser{}, ctx.Err()
			}
			return remoteUser{ID: 3, Name: "Ada"}, nil
		}

		u, ok := l.Resolve(ctx, 3, fetch)
		require.False(t, ok)
		require.Zero(t, u)
		require.Zero(t, store.Len(), "failures must not be cached")

		slow = false
		u, ok = l.Resolve(ctx, 3, fetch)
		require.True(t, ok)
		require.Equal(t, "Ada", u.Name)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("remote error resolves to absent", func(t *testing.T) {
		t.Parallel()

		l := cache.NewLookup[remoteUser](newStore(t), userKeys)

		_, ok := l.Resolve(context.Background(), 4, func(context.Context) (remoteUser, error) {
			return remoteUser{}, errors.New("status 500")
		})
		require.False(t, ok)
	})

	t.Run("store outage still resolves through the fetcher", func(t *testing.T) {
		t.Parallel()

		l := cache.NewLookup[remoteUser](brokenStore{}, userKeys)

		u, ok := l.Resolve(context.Background(), 3, func(context.Context) (remoteUser, error) {
			return remoteUser{ID: 3, Name: "Ada"}, nil
		})
		require.True(t, ok)
		require.Equal(t, 3, u.ID)
	})
}

func TestLookup_Forget(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	l := cache.NewLookup[remoteUser](store, userKeys)
	ctx := context.Background()

	_, ok := l.Resolve(ctx, 3, func(context.Context) (remoteUser, error) {
		return remoteUser{ID: 3}, nil
	})
	require.True(t, ok)

	l.Forget(ctx, 3)
	require.Zero(t, store.Len())
}
