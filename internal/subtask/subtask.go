// Package subtask owns subtasks, the assignable pieces of a task.
package subtask

import (
	"errors"
	"slices"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	// ErrNotFound is returned when no subtask has the requested id.
	ErrNotFound = errors.New("subtask: not found")
	// ErrInvalidStatus is returned for a status outside [Statuses].
	ErrInvalidStatus = errors.New("subtask: invalid status")
)

// Keys is the subtask keyspace: "subtask:{id}",
// "subtasks:task:{id}:page:{p}:size:{s}" and "subtasks:count".
var Keys = cache.NewKeyspace("subtask", "subtasks")

// Subtask statuses, in workflow order.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusReview     = "Review"
	StatusCompleted  = "Completed"
)

// Statuses lists every valid status.
var Statuses = []string{StatusToDo, StatusInProgress, StatusReview, StatusCompleted}

// ValidStatus reports whether s is one of [Statuses].
func ValidStatus(s string) bool {
	return slices.Contains(Statuses, s)
}

// Subtask is the cached subtask.
type Subtask struct {
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Deadline       *time.Time `json:"deadline"`
	StartTime      *time.Time `json:"start_time"`
	CompletedAt    *time.Time `json:"completed_at"`
	EstimatedHours *float64   `json:"estimated_hours"`
	TimeSpent      *float64   `json:"time_spent"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssigneeName   string     `json:"assignee_name"`
	ID             int64      `json:"id"`
	TaskID         int64      `json:"task_id"`
}

// NewSubtask holds the fields of a subtask to create. Empty strings take
// the column defaults.
type NewSubtask struct {
	Deadline       *time.Time
	EstimatedHours *float64
	Title          string
	Description    string
	Status         string
	Priority       string
	AssigneeName   string
	TaskID         int64
}

// Update lists the fields to change; nil fields are left as they are.
type Update struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	AssigneeName   *string
	Deadline       *time.Time
	EstimatedHours *float64
	TimeSpent      *float64
	TaskID         *int64
}

// ByTask filters subtask lists by parent task.
func ByTask(taskID int64) cache.Filter {
	return cache.By("task", taskID)
}
