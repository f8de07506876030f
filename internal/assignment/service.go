package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// Subtasks is the part of the subtask service assignments depend on.
type Subtasks interface {
	Get(ctx context.Context, id int64) (subtask.Subtask, error)
	UpdateStatus(ctx context.Context, id int64, status string) (subtask.Subtask, error)
}

// Notifier delivers a message to a user. *notification.Service implements it.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

// Service manages assignments and status updates and keeps their per-user
// lists consistent.
type Service struct {
	repo     Repository
	users    user.Resolver
	subtasks Subtasks
	notifier Notifier
	lists    *cache.List[Assignment]
	updates  *cache.List[StatusUpdate]
	bg       platform.Submitter
	now      func() time.Time
}

// NewService wires the assignment caches over deps.Store. notifier may be
// nil, in which case assignments are not announced.
func NewService(repo Repository, users user.Resolver, subtasks Subtasks, notifier Notifier, deps platform.Deps) *Service {
	deps = deps.Normalize()
	return &Service{
		repo:     repo,
		users:    users,
		subtasks: subtasks,
		notifier: notifier,
		lists:    cache.NewList[Assignment](deps.Store, Keys, deps.CacheOptions(deps.TTL.List)...),
		updates:  cache.NewList[StatusUpdate](deps.Store, StatusKeys, deps.CacheOptions(deps.TTL.List)...),
		bg:       deps.Background,
		now:      time.Now,
	}
}

// Assign gives a subtask to a user, records its To Do status and notifies
// the user in the background.
func (s *Service) Assign(ctx context.Context, in NewAssignment) (Assignment, StatusUpdate, error) {
	st, err := s.subtask(ctx, in.SubtaskID)
	if err != nil {
		return Assignment{}, StatusUpdate{}, err
	}
	if _, ok := s.users.Resolve(ctx, in.UserID); !ok {
		return Assignment{}, StatusUpdate{}, ErrUserNotFound
	}

	a, u, err := s.repo.Assign(ctx, in)
	if err != nil {
		return Assignment{}, StatusUpdate{}, err
	}
	a.Subtask = &st

	filter := ByUser(in.UserID)
	s.bg.Submit(ctx, "assignments.invalidate_user", func(ctx context.Context) error {
		s.lists.InvalidateFilter(ctx, filter)
		s.updates.InvalidateFilter(ctx, filter)
		return nil
	})
	if s.notifier != nil {
		s.bg.Submit(ctx, "assignments.notify", func(ctx context.Context) error {
			return s.notifier.Notify(ctx, in.UserID, AssignedMessage)
		})
	}
	return a, u, nil
}

// SubmitStatus moves a subtask to status on behalf of userID and records
// the change. The first completion after an In Progress update records the
// minutes elapsed since it.
func (s *Service) SubmitStatus(ctx context.Context, subtaskID, userID int64, status string) (StatusUpdate, error) {
	if !subtask.ValidStatus(status) {
		return StatusUpdate{}, subtask.ErrInvalidStatus
	}
	if _, ok := s.users.Resolve(ctx, userID); !ok {
		return StatusUpdate{}, ErrUserNotFound
	}

	if _, err := s.subtasks.UpdateStatus(ctx, subtaskID, status); err != nil {
		if errors.Is(err, subtask.ErrNotFound) {
			return StatusUpdate{}, ErrSubtaskNotFound
		}
		return StatusUpdate{}, err
	}

	in := StatusUpdate{SubtaskID: subtaskID, UpdatedBy: userID, Status: status}
	if status == subtask.StatusCompleted {
		minutes, err := s.timeTaken(ctx, subtaskID)
		if err != nil {
			return StatusUpdate{}, err
		}
		in.TimeTakenMinutes = minutes
	}
	assignedBy, err := s.repo.AssignedBy(ctx, subtaskID, userID)
	if err != nil {
		return StatusUpdate{}, err
	}
	in.AssignedByID = assignedBy

	u, err := s.repo.RecordStatus(ctx, in)
	if err != nil {
		return StatusUpdate{}, err
	}

	// Assignment pages embed the subtask, so every assignee's pages now
	// carry a stale status.
	s.bg.Submit(ctx, "status_updates.invalidate_assignees", func(ctx context.Context) error {
		s.updates.InvalidateFilter(ctx, ByUser(userID))

		filters := []cache.Filter{ByUser(userID)}
		assignees, err := s.repo.Assignees(ctx, subtaskID)
		for _, id := range assignees {
			if id != userID {
				filters = append(filters, ByUser(id))
			}
		}
		s.lists.InvalidateFilter(ctx, filters...)
		return err
	})
	return u, nil
}

// ListAssignments returns one page of the user's assignments, newest
// first, each with its subtask.
func (s *Service) ListAssignments(ctx context.Context, userID int64, page, size int) (cache.Page[Assignment], error) {
	return s.lists.GetPage(ctx, ByUser(userID), page, size, func(ctx context.Context, q cache.Query) ([]Assignment, int, error) {
		if _, ok := s.users.Resolve(ctx, userID); !ok {
			return nil, 0, ErrUserNotFound
		}
		items, total, err := s.repo.PageAssignments(ctx, userID, q.Offset(), q.Limit())
		if err != nil {
			return nil, 0, err
		}
		for i := range items {
			if st, err := s.subtasks.Get(ctx, items[i].SubtaskID); err == nil {
				items[i].Subtask = &st
			}
		}
		return items, total, nil
	})
}

// ListStatusUpdates returns one page of the status updates made by the
// user, newest first.
func (s *Service) ListStatusUpdates(ctx context.Context, userID int64, page, size int) (cache.Page[StatusUpdate], error) {
	return s.updates.GetPage(ctx, ByUser(userID), page, size, func(ctx context.Context, q cache.Query) ([]StatusUpdate, int, error) {
		if _, ok := s.users.Resolve(ctx, userID); !ok {
			return nil, 0, ErrUserNotFound
		}
		return s.repo.PageStatusUpdates(ctx, userID, q.Offset(), q.Limit())
	})
}

// timeTaken returns the minutes since the latest In Progress update, or
// nil when the subtask was already completed with a time or never started.
func (s *Service) timeTaken(ctx context.Context, subtaskID int64) (*int, error) {
	done, err := s.repo.LatestStatus(ctx, subtaskID, subtask.StatusCompleted)
	switch {
	case err == nil && done.TimeTakenMinutes != nil:
		return nil, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	started, err := s.repo.LatestStatus(ctx, subtaskID, subtask.StatusInProgress)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	minutes := max(int(s.now().Sub(started.UpdatedAt).Minutes()), 0)
	return &minutes, nil
}

func (s *Service) subtask(ctx context.Context, id int64) (subtask.Subtask, error) {
	st, err := s.subtasks.Get(ctx, id)
	if errors.Is(err, subtask.ErrNotFound) {
		return subtask.Subtask{}, ErrSubtaskNotFound
	}
	return st, err
}
