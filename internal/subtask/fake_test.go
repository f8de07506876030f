package subtask_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]subtask.Subtask
	nextID int64

	gets, pages atomic.Int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]subtask.Subtask{}}
}

func (r *fakeRepo) seed(taskID int64, n int) {
	for range n {
		_, _ = r.Create(context.Background(), subtask.NewSubtask{Title: "s", TaskID: taskID})
	}
}

func (r *fakeRepo) Get(_ context.Context, id int64) (subtask.Subtask, error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	return st, nil
}

func (r *fakeRepo) Page(_ context.Context, taskID int64, offset, limit int) ([]subtask.Subtask, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	var match []subtask.Subtask
	for _, st := range r.rows {
		if taskID == 0 || st.TaskID == taskID {
			match = append(match, st)
		}
	}
	slices.SortFunc(match, func(a, b subtask.Subtask) int { return cmp.Compare(b.ID, a.ID) })
	if offset >= len(match) {
		return []subtask.Subtask{}, len(match), nil
	}
	return match[offset:min(offset+limit, len(match))], len(match), nil
}

func (r *fakeRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *fakeRepo) Create(_ context.Context, in subtask.NewSubtask) (subtask.Subtask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	st := subtask.Subtask{
		ID:           r.nextID,
		TaskID:       in.TaskID,
		Title:        in.Title,
		Status:       cmp.Or(in.Status, subtask.StatusToDo),
		Priority:     cmp.Or(in.Priority, "Medium"),
		AssigneeName: cmp.Or(in.AssigneeName, "Not Specified"),
	}
	r.rows[st.ID] = st
	return st, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, in subtask.Update) (subtask.Subtask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	if in.Title != nil {
		st.Title = *in.Title
	}
	if in.TaskID != nil {
		st.TaskID = *in.TaskID
	}
	r.rows[id] = st
	return st, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id int64, status string) (subtask.Subtask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	st.Status = status
	now := time.Now()
	switch status {
	case subtask.StatusInProgress:
		if st.StartTime == nil {
			st.StartTime = &now
		}
	case subtask.StatusCompleted:
		st.CompletedAt = &now
	}
	r.rows[id] = st
	return st, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (subtask.Subtask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	delete(r.rows, id)
	return st, nil
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}

func ptr[T any](v T) *T { return &v }
