package user

import (
	"context"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// Service serves users through the cache and keeps it consistent on writes.
type Service struct {
	repo     Repository
	users    *cache.Entity[User]
	lists    *cache.List[User]
	counts   *cache.Aggregate
	external *cache.Lookup[User]
	bg       platform.Submitter
}

// NewService wires the user caches over deps.Store.
func NewService(repo Repository, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:     repo,
		users:    cache.NewEntity[User](deps.Store, Keys, deps.CacheOptions(deps.TTL.Entity)...),
		lists:    cache.NewList[User](deps.Store, Keys, deps.CacheOptions(deps.TTL.List)...),
		counts:   cache.NewAggregate(deps.Store, Keys, deps.CacheOptions(deps.TTL.Count)...),
		external: cache.NewLookup[User](deps.Store, Keys, deps.CacheOptions(deps.TTL.Lookup)...),
		bg:       deps.Background,
	}
}

// Get returns one user. A missing user is reported, never cached.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.users.Get(ctx, id, func(ctx context.Context) (User, error) {
		return s.repo.Get(ctx, id)
	})
}

// List returns one page of the user directory, newest first.
func (s *Service) List(ctx context.Context, page, size int) (cache.Page[User], error) {
	return s.lists.GetPage(ctx, cache.All, page, size, s.loadPage)
}

// Count returns the number of users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.counts.Count(ctx, cache.All, s.repo.Count)
}

// Create stores a user and pre-warms its entity key.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	u, err := s.repo.Create(ctx, in)
	if err != nil {
		return User{}, err
	}

	s.users.Put(ctx, u.ID, u)
	s.invalidateDerived(ctx, true)
	return u, nil
}

// Update changes a user. The entity key and the copies sibling services
// cached under "user:external:{id}" are dropped before returning.
func (s *Service) Update(ctx context.Context, id int64, in Update) (User, error) {
	u, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return User{}, err
	}

	s.users.Invalidate(ctx, id)
	s.external.Forget(ctx, id)
	s.invalidateDerived(ctx, false)
	return u, nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.users.Invalidate(ctx, id)
	s.external.Forget(ctx, id)
	s.invalidateDerived(ctx, true)
	return nil
}

// Sections returns the rebuild work for the user caches.
func (s *Service) Sections() []cache.Section {
	return []cache.Section{
		cache.WarmCount("users:count", s.counts, cache.All, s.repo.Count),
		cache.WarmPage("users:all page 1", s.lists, cache.All, cache.DefaultPageSize, s.loadPage),
	}
}

// invalidateDerived clears list pages, and the count when membership
// changed. It runs in the background: those keys tolerate brief staleness.
func (s *Service) invalidateDerived(ctx context.Context, membership bool) {
	s.bg.Submit(ctx, "users.invalidate_derived", func(ctx context.Context) error {
		s.lists.InvalidateFilter(ctx, cache.All)
		if membership {
			s.counts.InvalidateCount(ctx, cache.All)
		}
		return nil
	})
}

func (s *Service) loadPage(ctx context.Context, q cache.Query) ([]User, int, error) {
	return s.repo.Page(ctx, q.Offset(), q.Limit())
}
