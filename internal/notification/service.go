package notification

import (
	"cmp"
	"context"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// UnknownUser names a recipient without a name.
const UnknownUser = "Unknown User"

// Service sends, lists and deletes notifications. Lists are the only read
// path, so every write invalidates them synchronously.
type Service struct {
	repo  Repository
	users user.Resolver
	lists *cache.List[Notification]
}

// NewService wires the notification lists over deps.Store with the
// notification TTL.
func NewService(repo Repository, users user.Resolver, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:  repo,
		users: users,
		lists: cache.NewList[Notification](deps.Store, Keys, deps.CacheOptions(deps.TTL.Notifications)...),
	}
}

// Send stores message for userID as "{name} {message}".
func (s *Service) Send(ctx context.Context, userID int64, message string) (Notification, error) {
	u, ok := s.users.Resolve(ctx, userID)
	if !ok {
		return Notification{}, ErrUserNotFound
	}

	n, err := s.repo.Create(ctx, userID, cmp.Or(u.Name, UnknownUser), u.Name+" "+message)
	if err != nil {
		return Notification{}, err
	}
	s.lists.InvalidateFilter(ctx, cache.All, ByUser(userID))
	return n, nil
}

// Notify sends message to userID, discarding the stored notification.
func (s *Service) Notify(ctx context.Context, userID int64, message string) error {
	_, err := s.Send(ctx, userID, message)
	return err
}

// List returns one page of all notifications, newest first.
func (s *Service) List(ctx context.Context, page, size int) (cache.Page[Notification], error) {
	return s.lists.GetPage(ctx, cache.All, page, size, s.pageLoader(0))
}

// ListByUser returns one page of the notifications of a user.
func (s *Service) ListByUser(ctx context.Context, userID int64, page, size int) (cache.Page[Notification], error) {
	return s.lists.GetPage(ctx, ByUser(userID), page, size, s.pageLoader(userID))
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.lists.InvalidateFilter(ctx, cache.All, ByUser(n.UserID))
	return nil
}

// DeleteAll removes every notification and every cached notification page,
// per-user pages included.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	s.lists.InvalidateAll(ctx)
	return nil
}

// Sections returns the rebuild work for the notification caches.
func (s *Service) Sections() []cache.Section {
	return []cache.Section{
		cache.WarmPage("notifications:all page 1", s.lists, cache.All, cache.DefaultPageSize, s.pageLoader(0)),
	}
}

func (s *Service) pageLoader(userID int64) cache.PageLoader[Notification] {
	return func(ctx context.Context, q cache.Query) ([]Notification, int, error) {
		return s.repo.Page(ctx, userID, q.Offset(), q.Limit())
	}
}
