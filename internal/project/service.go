package project

import (
	"context"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// Service serves projects through the cache and keeps it consistent on writes.
type Service struct {
	repo     Repository
	users    user.Resolver
	projects *cache.Entity[Project]
	lists    *cache.List[Project]
	stats    *cache.Aggregate
	bg       platform.Submitter
	warm     bool
}

// NewService wires the project caches over deps.Store. Creators are
// resolved through users.
func NewService(repo Repository, users user.Resolver, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:     repo,
		users:    users,
		projects: cache.NewEntity[Project](deps.Store, Keys, deps.CacheOptions(deps.TTL.Entity)...),
		lists:    cache.NewList[Project](deps.Store, Keys, deps.CacheOptions(deps.TTL.List)...),
		stats:    cache.NewAggregate(deps.Store, Keys, deps.CacheOptions(deps.TTL.Count)...),
		bg:       deps.Background,
		warm:     deps.WarmOnWrite,
	}
}

// ByType filters project lists by project type.
func ByType(typ string) cache.Filter {
	return cache.By("type", typ)
}

// Get returns one project with its creator. The cache holds the bare row;
// the creator is resolved on every read, so an unreachable user service
// never leaves "Unknown" behind for the entity TTL.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	p, err := s.projects.Get(ctx, id, func(ctx context.Context) (Project, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return Project{}, err
	}
	return s.withCreator(ctx, p), nil
}

// List returns one page of all projects, most recently updated first.
func (s *Service) List(ctx context.Context, page, size int) (cache.Page[Project], error) {
	p, err := s.lists.GetPage(ctx, cache.All, page, size, s.pageLoader(""))
	if err != nil {
		return cache.Page[Project]{}, err
	}
	return s.withCreators(ctx, p), nil
}

// ListByType returns one page of projects of type typ.
func (s *Service) ListByType(ctx context.Context, typ string, page, size int) (cache.Page[Project], error) {
	p, err := s.lists.GetPage(ctx, ByType(typ), page, size, s.pageLoader(typ))
	if err != nil {
		return cache.Page[Project]{}, err
	}
	return s.withCreators(ctx, p), nil
}

// Count returns the number of projects.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.stats.Count(ctx, cache.All, s.repo.Count)
}

// Details returns project counts per type and status.
func (s *Service) Details(ctx context.Context) (Details, error) {
	return cache.GetAggregate(ctx, s.stats, aggregateDetails, s.loadDetails)
}

// Dashboard returns the dashboard summary. It is derived from the cached
// count, so it needs no key of its own.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{TotalProjects: n}, nil
}

// Create stores a project after checking that its creator exists.
func (s *Service) Create(ctx context.Context, in NewProject) (Project, error) {
	creator, ok := s.users.Resolve(ctx, in.CreatedBy)
	if !ok {
		return Project{}, ErrCreatorNotFound
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return Project{}, err
	}

	s.projects.Put(ctx, p.ID, p)
	s.invalidateDerived(ctx, true, p.Type)
	return withUser(p, creator, true), nil
}

// Update changes a project. When the type changes, pages of both the old
// and the new type are invalidated.
func (s *Service) Update(ctx context.Context, id int64, in Update) (Project, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}

	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Project{}, err
	}

	s.projects.Invalidate(ctx, id)
	s.invalidateDerived(ctx, false, before.Type, p.Type)
	return s.withCreator(ctx, p), nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.projects.Invalidate(ctx, id)
	s.invalidateDerived(ctx, true, p.Type)
	return nil
}

// Sections returns the rebuild work for the project caches: the count,
// the first page of all projects and of every known type, then details.
func (s *Service) Sections() []cache.Section {
	sections := []cache.Section{
		cache.WarmCount("projects:count", s.stats, cache.All, s.repo.Count),
		cache.WarmPage("projects:all page 1", s.lists, cache.All, cache.DefaultPageSize, s.pageLoader("")),
	}
	for _, t := range Types {
		sections = append(sections,
			cache.WarmPage("projects:type:"+t+" page 1", s.lists, ByType(t), cache.DefaultPageSize, s.pageLoader(t)))
	}
	return append(sections, cache.WarmAggregate("projects:details", s.stats, aggregateDetails, s.loadDetails))
}

// invalidateDerived clears the all list, the pages of each affected type
// and the details breakdown; the count only when membership changed.
func (s *Service) invalidateDerived(ctx context.Context, membership bool, types ...string) {
	filters := []cache.Filter{cache.All}
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			filters = append(filters, ByType(t))
		}
	}

	s.bg.Submit(ctx, "projects.invalidate_derived", func(ctx context.Context) error {
		s.lists.InvalidateFilter(ctx, filters...)
		s.stats.InvalidateAggregate(ctx, aggregateDetails)
		if membership {
			s.stats.InvalidateCount(ctx, cache.All)
		}
		return nil
	})

	if !s.warm {
		return
	}
	for t := range seen {
		s.bg.Submit(ctx, "projects.warm_type_page", func(ctx context.Context) error {
			return s.lists.Refresh(ctx, ByType(t), 1, cache.DefaultPageSize, s.pageLoader(t))
		})
	}
}

func (s *Service) pageLoader(typ string) cache.PageLoader[Project] {
	return func(ctx context.Context, q cache.Query) ([]Project, int, error) {
		return s.repo.Page(ctx, typ, q.Offset(), q.Limit())
	}
}

func (s *Service) loadDetails(ctx context.Context) (Details, error) {
	rows, err := s.repo.CountByTypeStatus(ctx)
	if err != nil {
		return nil, err
	}
	return NewDetails(rows), nil
}

func (s *Service) withCreators(ctx context.Context, page cache.Page[Project]) cache.Page[Project] {
	for i := range page.Items {
		page.Items[i] = s.withCreator(ctx, page.Items[i])
	}
	return page
}

func (s *Service) withCreator(ctx context.Context, p Project) Project {
	u, ok := s.users.Resolve(ctx, p.CreatedBy)
	return withUser(p, u, ok)
}

func withUser(p Project, u user.User, ok bool) Project {
	if !ok {
		p.CreatorID = nil
		p.CreatorName = UnknownCreator
		p.CreatorEmail = UnknownCreator
		p.CreatorRole = UnknownCreator
		p.CreatorProfileImage = nil
		return p
	}
	id := u.ID
	p.CreatorID = &id
	p.CreatorName = u.Name
	p.CreatorEmail = u.Email
	p.CreatorRole = u.Role
	p.CreatorProfileImage = u.ProfileImage
	return p
}
