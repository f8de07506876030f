// Package task owns tasks: the unit of work inside a project. Tasks are
// served through the cache with their project embedded, listed per project
// and counted globally and per project.
package task

import (
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/internal/project"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task: not found")
	// ErrProjectNotFound is returned when the owning project cannot be resolved.
	ErrProjectNotFound = errors.New("task: project not found")
)

// Keys is the task keyspace: "task:{id}",
// "tasks:project:{id}:page:{p}:size:{s}", "tasks:count" and
// "tasks:project:{id}:count".
var Keys = cache.NewKeyspace("task", "tasks")

// Task is the cached task. Project is nil when the project service does
// not know the project any more.
type Task struct {
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Deadline       *time.Time       `json:"deadline"`
	EstimatedHours *float64         `json:"estimated_hours"`
	Project        *project.Project `json:"project"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Status         string           `json:"status"`
	Priority       string           `json:"priority"`
	ID             int64            `json:"id"`
	ProjectID      int64            `json:"project_id"`
}

// NewTask holds the fields of a task to create. Empty Status and Priority
// take the column defaults, "To Do" and "Medium".
type NewTask struct {
	Deadline       *time.Time
	EstimatedHours *float64
	Title          string
	Description    string
	Status         string
	Priority       string
	ProjectID      int64
}

// Update lists the fields to change; nil fields are left as they are.
// A non-nil ProjectID moves the task to another project.
type Update struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	Deadline       *time.Time
	EstimatedHours *float64
	ProjectID      *int64
}

// ByProject filters task lists and counts by owning project.
func ByProject(projectID int64) cache.Filter {
	return cache.By("project", projectID)
}
