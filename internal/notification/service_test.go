package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskhub/internal/notification"
	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

func TestService_Send(t *testing.T) {
	t.Parallel()

	t.Run("prefixes the message with the user name", func(t *testing.T) {
		t.Parallel()

		deps, _ := newDeps(t)
		svc := notification.NewService(&fakeRepo{}, knownUsers(), deps)

		n, err := svc.Send(context.Background(), 1, "New Task Assigned")
		require.NoError(t, err)
		assert.Equal(t, "Ada New Task Assigned", n.Message)
		assert.Equal(t, "Ada", n.UserName)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		t.Parallel()

		deps, _ := newDeps(t)
		repo := &fakeRepo{}
		svc := notification.NewService(repo, knownUsers(), deps)

		_, err := svc.Send(context.Background(), 9, "hello")
		require.ErrorIs(t, err, notification.ErrUserNotFound)
		assert.Empty(t, repo.rows)
	})

	t.Run("invalidates the all list and the recipient list only", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps(t)
		svc := notification.NewService(&fakeRepo{}, knownUsers(), deps)
		ctx := context.Background()

		_, err := svc.List(ctx, 1, 50)
		require.NoError(t, err)
		_, err = svc.ListByUser(ctx, 1, 1, 50)
		require.NoError(t, err)
		_, err = svc.ListByUser(ctx, 2, 1, 50)
		require.NoError(t, err)

		require.NoError(t, svc.Notify(ctx, 1, "hello"))

		for _, key := range []string{"notifications:all:page:1:size:50", "notifications:user:1:page:1:size:50"} {
			_, err := store.Get(ctx, key)
			assert.ErrorIs(t, err, cache.ErrNotFound, key)
		}
		_, err = store.Get(ctx, "notifications:user:2:page:1:size:50")
		assert.NoError(t, err)

		page, err := svc.ListByUser(ctx, 1, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	repo := &fakeRepo{}
	svc := notification.NewService(repo, knownUsers(), deps)
	ctx := context.Background()

	n, err := svc.Send(ctx, 2, "ping")
	require.NoError(t, err)
	page, err := svc.ListByUser(ctx, 2, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	require.NoError(t, svc.Delete(ctx, n.ID))
	require.ErrorIs(t, svc.Delete(ctx, n.ID), notification.ErrNotFound)

	page, err = svc.ListByUser(ctx, 2, 1, 50)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestService_DeleteAll(t *testing.T) {
	t.Parallel()

	deps, store := newDeps(t)
	svc := notification.NewService(&fakeRepo{}, knownUsers(), deps)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		_, err := svc.Send(ctx, id, "ping")
		require.NoError(t, err)
		_, err = svc.ListByUser(ctx, id, 1, 50)
		require.NoError(t, err)
		_, err = svc.ListByUser(ctx, id, 2, 10)
		require.NoError(t, err)
	}
	_, err := svc.List(ctx, 1, 50)
	require.NoError(t, err)
	require.NotZero(t, store.Len())

	require.NoError(t, svc.DeleteAll(ctx))
	assert.Zero(t, store.Len(), "per-user pages are removed too")

	page, err := svc.ListByUser(ctx, 1, 1, 50)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestService_ListTTL(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t)
	deps.TTL = platform.TTLs{Notifications: 50 * time.Millisecond}
	repo := &fakeRepo{}
	svc := notification.NewService(repo, knownUsers(), deps)
	ctx := context.Background()

	_, err := svc.List(ctx, 1, 50)
	require.NoError(t, err)
	_, err = svc.List(ctx, 1, 50)
	require.NoError(t, err)
	require.EqualValues(t, 1, repo.pages.Load())

	require.Eventually(t, func() bool {
		_, err := svc.List(ctx, 1, 50)
		return err == nil && repo.pages.Load() > 1
	}, time.Second, 20*time.Millisecond)
}
