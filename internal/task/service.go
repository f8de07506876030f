package task

import (
	"context"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/project"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// Service serves tasks through the cache and keeps it consistent on writes.
type Service struct {
	repo     Repository
	projects project.Resolver
	tasks    *cache.Entity[Task]
	lists    *cache.List[Task]
	counts   *cache.Aggregate
	bg       platform.Submitter
	warm     bool
}

// NewService wires the task caches over deps.Store. Owning projects are
// resolved through projects.
func NewService(repo Repository, projects project.Resolver, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:     repo,
		projects: projects,
		tasks:    cache.NewEntity[Task](deps.Store, Keys, deps.CacheOptions(deps.TTL.Entity)...),
		lists:    cache.NewList[Task](deps.Store, Keys, deps.CacheOptions(deps.TTL.List)...),
		counts:   cache.NewAggregate(deps.Store, Keys, deps.CacheOptions(deps.TTL.Count)...),
		bg:       deps.Background,
		warm:     deps.WarmOnWrite,
	}
}

// Get returns one task with its project. The project is resolved on every
// read, never stored with the cached task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	t, err := s.tasks.Get(ctx, id, func(ctx context.Context) (Task, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return Task{}, err
	}
	return s.withProject(ctx, t), nil
}

// List returns one page of all tasks, newest first.
func (s *Service) List(ctx context.Context, page, size int) (cache.Page[Task], error) {
	p, err := s.lists.GetPage(ctx, cache.All, page, size, s.pageLoader(0))
	if err != nil {
		return cache.Page[Task]{}, err
	}
	return s.withProjects(ctx, p), nil
}

// ListByProject returns one page of the tasks of a project. It fails with
// ErrProjectNotFound, and caches nothing, when the project cannot be
// resolved.
func (s *Service) ListByProject(ctx context.Context, projectID int64, page, size int) (cache.Page[Task], error) {
	p, err := s.lists.GetPage(ctx, ByProject(projectID), page, size, s.pageLoader(projectID))
	if err != nil {
		return cache.Page[Task]{}, err
	}
	return s.withProjects(ctx, p), nil
}

// Count returns the number of tasks.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.counts.Count(ctx, cache.All, s.countLoader(0))
}

// CountByProject returns the number of tasks in a project.
func (s *Service) CountByProject(ctx context.Context, projectID int64) (int64, error) {
	return s.counts.Count(ctx, ByProject(projectID), s.countLoader(projectID))
}

// Create stores a task after checking that its project exists.
func (s *Service) Create(ctx context.Context, in NewTask) (Task, error) {
	p, ok := s.projects.Resolve(ctx, in.ProjectID)
	if !ok {
		return Task{}, ErrProjectNotFound
	}

	t, err := s.repo.Create(ctx, in)
	if err != nil {
		return Task{}, err
	}
	s.tasks.Put(ctx, t.ID, t)
	s.invalidateDerived(ctx, t.ProjectID)
	t.Project = &p
	return t, nil
}

// Update changes a task. Moving it to another project requires the target
// project to exist and invalidates the pages and counts of both projects.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Task, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if in.ProjectID != nil && *in.ProjectID != before.ProjectID {
		if _, ok := s.projects.Resolve(ctx, *in.ProjectID); !ok {
			return Task{}, ErrProjectNotFound
		}
	}

	t, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Task{}, err
	}

	s.tasks.Invalidate(ctx, id)
	s.invalidateDerived(ctx, before.ProjectID, t.ProjectID)
	return s.withProject(ctx, t), nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) error {
	t, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.tasks.Invalidate(ctx, id)
	s.invalidateDerived(ctx, t.ProjectID)
	return nil
}

// Sections returns the rebuild work for the task caches: the count, then
// the first page of all tasks. Per-project pages fill on demand.
func (s *Service) Sections() []cache.Section {
	return []cache.Section{
		cache.WarmCount("tasks:count", s.counts, cache.All, s.countLoader(0)),
		cache.WarmPage("tasks:all page 1", s.lists, cache.All, cache.DefaultPageSize, s.pageLoader(0)),
	}
}

// invalidateDerived clears the all list, the count and the pages and
// counts of every affected project.
func (s *Service) invalidateDerived(ctx context.Context, projectIDs ...int64) {
	filters := []cache.Filter{cache.All}
	seen := make(map[int64]bool, len(projectIDs))
	for _, id := range projectIDs {
		if !seen[id] {
			seen[id] = true
			filters = append(filters, ByProject(id))
		}
	}

	s.bg.Submit(ctx, "tasks.invalidate_derived", func(ctx context.Context) error {
		s.lists.InvalidateFilter(ctx, filters...)
		s.counts.InvalidateCount(ctx, filters...)
		return nil
	})

	if !s.warm {
		return
	}
	for id := range seen {
		s.bg.Submit(ctx, "tasks.warm_project_page", func(ctx context.Context) error {
			return s.lists.Refresh(ctx, ByProject(id), 1, cache.DefaultPageSize, s.pageLoader(id))
		})
	}
}

func (s *Service) pageLoader(projectID int64) cache.PageLoader[Task] {
	return func(ctx context.Context, q cache.Query) ([]Task, int, error) {
		if projectID != 0 {
			if _, ok := s.projects.Resolve(ctx, projectID); !ok {
				return nil, 0, ErrProjectNotFound
			}
		}
		return s.repo.Page(ctx, projectID, q.Offset(), q.Limit())
	}
}

func (s *Service) countLoader(projectID int64) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.repo.Count(ctx, projectID)
	}
}

func (s *Service) withProjects(ctx context.Context, page cache.Page[Task]) cache.Page[Task] {
	for i := range page.Items {
		page.Items[i] = s.withProject(ctx, page.Items[i])
	}
	return page
}

func (s *Service) withProject(ctx context.Context, t Task) Task {
	t.Project = nil
	if p, ok := s.projects.Resolve(ctx, t.ProjectID); ok {
		t.Project = &p
	}
	return t
}
