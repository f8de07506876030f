package notification_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/internal/notification"
	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   []notification.Notification
	nextID int64

	pages atomic.Int64
}

func (r *fakeRepo) Page(_ context.Context, userID int64, offset, limit int) ([]notification.Notification, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var match []notification.Notification
	for _, n := range r.rows {
		if userID == 0 || n.UserID == userID {
			match = append(match, n)
		}
	}
	slices.SortFunc(match, func(a, b notification.Notification) int { return cmp.Compare(b.ID, a.ID) })
	if offset >= len(match) {
		return []notification.Notification{}, len(match), nil
	}
	return match[offset:min(offset+limit, len(match))], len(match), nil
}

func (r *fakeRepo) Create(_ context.Context, userID int64, userName, message string) (notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n := notification.Notification{ID: r.nextID, UserID: userID, UserName: userName, Message: message, CreatedAt: time.Now()}
	r.rows = append(r.rows, n)
	return n, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.rows {
		if n.ID == id {
			r.rows = slices.Delete(r.rows, i, i+1)
			return n, nil
		}
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (r *fakeRepo) DeleteAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	return nil
}

type users map[int64]user.User

func (u users) Resolve(_ context.Context, id int64) (user.User, bool) {
	v, ok := u[id]
	return v, ok
}

func knownUsers() users {
	return users{1: {ID: 1, Name: "Ada"}, 2: {ID: 2, Name: "Grace"}}
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}
