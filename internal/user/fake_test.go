package user_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// fakeRepo is an in-memory user table counting reads per method.
type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]user.User
	nextID int64

	gets, pages, counts atomic.Int64
}

func newFakeRepo(users ...user.User) *fakeRepo {
	r := &fakeRepo{rows: map[int64]user.User{}}
	for _, u := range users {
		r.rows[u.ID] = u
		r.nextID = max(r.nextID, u.ID)
	}
	return r
}

func (r *fakeRepo) Get(_ context.Context, id int64) (user.User, error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) Page(_ context.Context, offset, limit int) ([]user.User, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]user.User, 0, len(r.rows))
	for _, u := range r.rows {
		all = append(all, u)
	}
	slices.SortFunc(all, func(a, b user.User) int { return cmp.Compare(b.ID, a.ID) })

	if offset >= len(all) {
		return []user.User{}, len(all), nil
	}
	return all[offset:min(offset+limit, len(all))], len(all), nil
}

func (r *fakeRepo) Count(context.Context) (int64, error) {
	r.counts.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeRepo) Create(_ context.Context, in user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u := user.User{ID: r.nextID, Name: in.Name, Email: in.Email, Role: cmp.Or(in.Role, "User"), CreatedAt: time.Now()}
	r.rows[u.ID] = u
	return u, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, in user.Update) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	r.rows[id] = u
	return u, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}

func ptr[T any](v T) *T { return &v }
