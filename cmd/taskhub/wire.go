package main

import (
	"database/sql"
	"slices"

	"github.com/dmitrymomot/taskhub/internal/assignment"
	"github.com/dmitrymomot/taskhub/internal/config"
	"github.com/dmitrymomot/taskhub/internal/notification"
	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/internal/project"
	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/internal/task"
	"github.com/dmitrymomot/taskhub/internal/user"
	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/remote"
)

// services holds whatever this process runs; disabled services stay nil.
type services struct {
	users         *user.Service
	projects      *project.Service
	tasks         *task.Service
	subtasks      *subtask.Service
	assignments   *assignment.Service
	notifications *notification.Service
}

// wireServices builds the enabled services in dependency order. A sibling
// that runs in another process is reached over HTTP and cached as a lookup.
func wireServices(cfg config.Config, enabled []string, conn *sql.DB, deps platform.Deps) (*services, error) {
	on := func(name string) bool { return slices.Contains(enabled, name) }
	s := &services{}

	var users user.Resolver
	if on(config.Users) {
		s.users = user.NewService(user.NewPostgres(conn), deps)
		users = user.Local{Service: s.users}
	} else if cfg.UserServiceURL != "" {
		rc, err := remote.New(cfg.UserServiceURL,
			remote.WithName("user-service"),
			remote.WithTimeout(cfg.RemoteTimeout),
			remote.WithLogger(deps.Logger),
		)
		if err != nil {
			return nil, err
		}
		users = user.NewClient(rc, deps)
	}

	var projects project.Resolver
	if on(config.Projects) {
		s.projects = project.NewService(project.NewPostgres(conn), users, deps)
		projects = project.Local{Service: s.projects}
	} else if cfg.ProjectServiceURL != "" {
		rc, err := remote.New(cfg.ProjectServiceURL,
			remote.WithName("project-service"),
			remote.WithTimeout(cfg.RemoteTimeout),
			remote.WithLogger(deps.Logger),
		)
		if err != nil {
			return nil, err
		}
		projects = project.NewClient(rc, deps)
	}

	if on(config.Tasks) {
		s.tasks = task.NewService(task.NewPostgres(conn), projects, deps)
	}
	if on(config.Subtasks) {
		s.subtasks = subtask.NewService(subtask.NewPostgres(conn), deps)
	}
	if on(config.Notifications) {
		s.notifications = notification.NewService(notification.NewPostgres(conn), users, deps)
	}
	if on(config.Assignments) {
		// A nil *notification.Service must not become a non-nil Notifier.
		var notifier assignment.Notifier
		if s.notifications != nil {
			notifier = s.notifications
		}
		s.assignments = assignment.NewService(assignment.NewPostgres(conn), users, s.subtasks, notifier, deps)
	}
	return s, nil
}

// sections collects the rebuild work of every enabled service. Assignments
// have none: their lists are per user and only filled on read.
func (s *services) sections() []cache.Section {
	var out []cache.Section
	if s.users != nil {
		out = append(out, s.users.Sections()...)
	}
	if s.projects != nil {
		out = append(out, s.projects.Sections()...)
	}
	if s.tasks != nil {
		out = append(out, s.tasks.Sections()...)
	}
	if s.subtasks != nil {
		out = append(out, s.subtasks.Sections()...)
	}
	if s.notifications != nil {
		out = append(out, s.notifications.Sections()...)
	}
	return out
}
