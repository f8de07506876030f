package project_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/project"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]project.Project
	nextID int64
	clock  time.Time

	gets, pages, details atomic.Int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]project.Project{}, clock: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *fakeRepo) seed(typ string, n int) {
	for range n {
		_, _ = r.Create(context.Background(), project.NewProject{Name: "p", Type: typ, CreatedBy: 1})
	}
}

func (r *fakeRepo) Get(_ context.Context, id int64) (project.Project, error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Page(_ context.Context, typ string, offset, limit int) ([]project.Project, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	var match []project.Project
	for _, p := range r.rows {
		if typ == "" || p.Type == typ {
			match = append(match, p)
		}
	}
	slices.SortFunc(match, func(a, b project.Project) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if offset >= len(match) {
		return []project.Project{}, len(match), nil
	}
	return match[offset:min(offset+limit, len(match))], len(match), nil
}

func (r *fakeRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeRepo) CountByTypeStatus(context.Context) ([]project.TypeStatusCount, error) {
	r.details.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[[2]string]int64{}
	for _, p := range r.rows {
		counts[[2]string{p.Type, p.Status}]++
	}
	out := make([]project.TypeStatusCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, project.TypeStatusCount{Type: k[0], Status: k[1], Count: n})
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, in project.NewProject) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := r.tick()
	p := project.Project{
		ID:        r.nextID,
		Name:      in.Name,
		CreatedBy: in.CreatedBy,
		Status:    cmp.Or(in.Status, "Pending"),
		Priority:  cmp.Or(in.Priority, "Medium"),
		Type:      cmp.Or(in.Type, "unknown"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, in project.Update) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	p.UpdatedAt = r.tick()
	r.rows[id] = p
	return p, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	delete(r.rows, id)
	return p, nil
}

// users resolves from a fixed map and counts calls.
type users struct {
	known map[int64]user.User
	calls atomic.Int64
}

func (u *users) Resolve(_ context.Context, id int64) (user.User, bool) {
	u.calls.Add(1)
	v, ok := u.known[id]
	return v, ok
}

func knownUsers() *users {
	return &users{known: map[int64]user.User{
		1: {ID: 1, Name: "Ada", Email: "ada@example.com", Role: "Admin"},
	}}
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}

func ptr[T any](v T) *T { return &v }
