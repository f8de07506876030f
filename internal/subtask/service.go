package subtask

import (
	"context"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// Service serves subtasks through the cache and keeps it consistent on writes.
type Service struct {
	repo     Repository
	subtasks *cache.Entity[Subtask]
	lists    *cache.List[Subtask]
	counts   *cache.Aggregate
	bg       platform.Submitter
	warm     bool
}

// NewService wires the subtask caches over deps.Store.
func NewService(repo Repository, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:     repo,
		subtasks: cache.NewEntity[Subtask](deps.Store, Keys, deps.CacheOptions(deps.TTL.Entity)...),
		lists:    cache.NewList[Subtask](deps.Store, Keys, deps.CacheOptions(deps.TTL.List)...),
		counts:   cache.NewAggregate(deps.Store, Keys, deps.CacheOptions(deps.TTL.Count)...),
		bg:       deps.Background,
		warm:     deps.WarmOnWrite,
	}
}

// Get returns one subtask.
func (s *Service) Get(ctx context.Context, id int64) (Subtask, error) {
	return s.subtasks.Get(ctx, id, func(ctx context.Context) (Subtask, error) {
		return s.repo.Get(ctx, id)
	})
}

// List returns one page of all subtasks, newest first.
func (s *Service) List(ctx context.Context, page, size int) (cache.Page[Subtask], error) {
	return s.lists.GetPage(ctx, cache.All, page, size, s.pageLoader(0))
}

// ListByTask returns one page of the subtasks of a task.
func (s *Service) ListByTask(ctx context.Context, taskID int64, page, size int) (cache.Page[Subtask], error) {
	return s.lists.GetPage(ctx, ByTask(taskID), page, size, s.pageLoader(taskID))
}

// Count returns the number of subtasks.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.counts.Count(ctx, cache.All, s.repo.Count)
}

// Create stores a subtask.
func (s *Service) Create(ctx context.Context, in NewSubtask) (Subtask, error) {
	if in.Status != "" && !ValidStatus(in.Status) {
		return Subtask{}, ErrInvalidStatus
	}
	st, err := s.repo.Create(ctx, in)
	if err != nil {
		return Subtask{}, err
	}

	s.subtasks.Put(ctx, st.ID, st)
	s.invalidateDerived(ctx, true, st.TaskID)
	return st, nil
}

// Update changes a subtask. Moving it to another task invalidates the
// pages of both tasks.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Subtask, error) {
	if in.Status != nil && !ValidStatus(*in.Status) {
		return Subtask{}, ErrInvalidStatus
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Subtask{}, err
	}

	st, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Subtask{}, err
	}

	s.subtasks.Invalidate(ctx, id)
	s.invalidateDerived(ctx, false, before.TaskID, st.TaskID)
	return st, nil
}

// UpdateStatus moves a subtask through its workflow.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (Subtask, error) {
	if !ValidStatus(status) {
		return Subtask{}, ErrInvalidStatus
	}
	st, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Subtask{}, err
	}

	s.subtasks.Invalidate(ctx, id)
	s.invalidateDerived(ctx, false, st.TaskID)
	return st, nil
}

// Delete removes a subtask.
func (s *Service) Delete(ctx context.Context, id int64) error {
	st, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.subtasks.Invalidate(ctx, id)
	s.invalidateDerived(ctx, true, st.TaskID)
	return nil
}

// Sections returns the rebuild work for the subtask caches.
func (s *Service) Sections() []cache.Section {
	return []cache.Section{
		cache.WarmCount("subtasks:count", s.counts, cache.All, s.repo.Count),
		cache.WarmPage("subtasks:all page 1", s.lists, cache.All, cache.DefaultPageSize, s.pageLoader(0)),
	}
}

func (s *Service) invalidateDerived(ctx context.Context, membership bool, taskIDs ...int64) {
	filters := []cache.Filter{cache.All}
	for _, id := range taskIDs {
		filters = append(filters, ByTask(id))
	}

	s.bg.Submit(ctx, "subtasks.invalidate_derived", func(ctx context.Context) error {
		s.lists.InvalidateFilter(ctx, filters...)
		if membership {
			s.counts.InvalidateCount(ctx, cache.All)
		}
		return nil
	})

	if s.warm {
		s.bg.Submit(ctx, "subtasks.warm_all_page", func(ctx context.Context) error {
			return s.lists.Refresh(ctx, cache.All, 1, cache.DefaultPageSize, s.pageLoader(0))
		})
	}
}

func (s *Service) pageLoader(taskID int64) cache.PageLoader[Subtask] {
	return func(ctx context.Context, q cache.Query) ([]Subtask, int, error) {
		return s.repo.Page(ctx, taskID, q.Offset(), q.Limit())
	}
}
