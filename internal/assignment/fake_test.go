package assignment_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/internal/assignment"
	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

type fakeRepo struct {
	mu          sync.Mutex
	assignments []assignment.Assignment
	updates     []assignment.StatusUpdate
	nextID      int64

	pages atomic.Int64
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) Assign(_ context.Context, in assignment.NewAssignment) (assignment.Assignment, assignment.StatusUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := assignment.Assignment{
		ID:           r.id(),
		SubtaskID:    in.SubtaskID,
		UserID:       in.UserID,
		AssignedByID: in.AssignedByID,
		AssignedAt:   time.Now(),
	}
	u := assignment.StatusUpdate{
		ID:           r.id(),
		SubtaskID:    in.SubtaskID,
		UpdatedBy:    in.UserID,
		Status:       subtask.StatusToDo,
		AssignedByID: in.AssignedByID,
		UpdatedAt:    time.Now(),
	}
	r.assignments = append(r.assignments, a)
	r.updates = append(r.updates, u)
	return a, u, nil
}

func (r *fakeRepo) AssignedBy(_ context.Context, subtaskID, userID int64) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range slices.Backward(r.assignments) {
		if a.SubtaskID == subtaskID && a.UserID == userID {
			return a.AssignedByID, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Assignees(_ context.Context, subtaskID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, a := range r.assignments {
		if a.SubtaskID == subtaskID && !slices.Contains(ids, a.UserID) {
			ids = append(ids, a.UserID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *fakeRepo) PageAssignments(_ context.Context, userID int64, offset, limit int) ([]assignment.Assignment, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var match []assignment.Assignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			match = append(match, a)
		}
	}
	slices.SortFunc(match, func(a, b assignment.Assignment) int { return cmp.Compare(b.ID, a.ID) })
	return window(match, offset, limit), len(match), nil
}

func (r *fakeRepo) PageStatusUpdates(_ context.Context, userID int64, offset, limit int) ([]assignment.StatusUpdate, int, error) {
	r.pages.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var match []assignment.StatusUpdate
	for _, u := range r.updates {
		if u.UpdatedBy == userID {
			match = append(match, u)
		}
	}
	slices.SortFunc(match, func(a, b assignment.StatusUpdate) int { return cmp.Compare(b.ID, a.ID) })
	return window(match, offset, limit), len(match), nil
}

func (r *fakeRepo) LatestStatus(_ context.Context, subtaskID int64, status string) (assignment.StatusUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range slices.Backward(r.updates) {
		if u.SubtaskID == subtaskID && u.Status == status {
			return u, nil
		}
	}
	return assignment.StatusUpdate{}, assignment.ErrNotFound
}

func (r *fakeRepo) RecordStatus(_ context.Context, in assignment.StatusUpdate) (assignment.StatusUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in.ID = r.id()
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = time.Now()
	}
	r.updates = append(r.updates, in)
	return in, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}

// subtasks is an in-memory subtask service.
type subtasks struct {
	mu   sync.Mutex
	rows map[int64]subtask.Subtask
}

func knownSubtasks(ids ...int64) *subtasks {
	s := &subtasks{rows: map[int64]subtask.Subtask{}}
	for _, id := range ids {
		s.rows[id] = subtask.Subtask{ID: id, TaskID: 1, Title: "Edit", Status: subtask.StatusToDo}
	}
	return s
}

func (s *subtasks) Get(_ context.Context, id int64) (subtask.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	return st, nil
}

func (s *subtasks) UpdateStatus(_ context.Context, id int64, status string) (subtask.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[id]
	if !ok {
		return subtask.Subtask{}, subtask.ErrNotFound
	}
	st.Status = status
	s.rows[id] = st
	return st, nil
}

type users map[int64]user.User

func (u users) Resolve(_ context.Context, id int64) (user.User, bool) {
	v, ok := u[id]
	return v, ok
}

func knownUsers() users {
	return users{
		1: {ID: 1, Name: "Ada"},
		2: {ID: 2, Name: "Grace"},
	}
}

// notifier records every message.
type notifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *notifier) Notify(_ context.Context, userID int64, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, message)
	return nil
}

func newDeps(t *testing.T) (platform.Deps, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return platform.Deps{Store: store}, store
}

func ptr[T any](v T) *T { return &v }
