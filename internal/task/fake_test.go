package task_test

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
	"github.com/dmitrymomot/taskhub/internal/task"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]task.Task
	nextID int64

	gets, pages, counts atomic.Int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]task.Task{}}
}

func (r *fakeRepo) seed(projectID int64, n int) {
	for range n {
		_, _ = r.Create(context.Background(), task.NewTask{Title: "t", ProjectID: projectID})
	}
}

func (r *fakeRepo) Get(_ context.Context, id int64) (task.Task, error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *fakeRepo) Page(_ context.Context, projectID int64, offset, limit int) ([]task.Task, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	var match []task.Task
	for _, t := range r.rows {
		if projectID == 0 || t.ProjectID == projectID {
			match = append(match, t)
		}
	}
	slices.SortFunc(match, func(a, b task.Task) int { return cmp.Compare(b.ID, a.ID) })
	if offset >= len(match) {
		return []task.Task{}, len(match), nil
	}
	return match[offset:min(offset+limit, len(match))], len(match), nil
}

func (r *fakeRepo) Count(_ context.Context, projectID int64) (int64, error) {
	r.counts.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.rows {
		if projectID == 0 || t.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) Create(_ context.Context, in task.NewTask) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	t := task.Task{
		ID:        r.nextID,
		ProjectID: in.ProjectID,
		Title:     in.Title,
		Status:    cmp.Or(in.Status, "To Do"),
		Priority:  cmp.Or(in.Priority, "Medium"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows[t.ID] = t
	return t, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, in task.Update) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	r.rows[id] = t
	return t, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	delete(r.rows, id)
	return t, nil
}

// projects resolves from a fixed map.
type projects struct {
	mu    sync.Mutex
	known map[int64]project.Project
}

func knownProjects(ids ...int64) *projects {
	p := &projects{known: map[int64]project.Project{}}
	for _, id := range ids {
		p.known[id] = project.Project{ID: id, Name: "Project", Type: "Movie"}
	}
	return p
}

func (p *projects) Resolve(_ context.Context, id int64) (project.Project, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.known[id]
	return v, ok
}

func (p *projects) add(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[id] = project.Project{ID: id, Name: "Project", Type: "Movie"}
}

func (p *projects) forget(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.known, id)
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}

func ptr[T any](v T) *T { return &v }
