// Package assignment assigns subtasks to users and records every status
// change they submit. Both histories are listed per user through the cache.
package assignment

import (
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	// ErrNotFound is returned when a status update or assignment is missing.
	ErrNotFound = errors.New("assignment: not found")
	// ErrUserNotFound is returned when the user cannot be resolved.
	ErrUserNotFound = errors.New("assignment: user not found")
	// ErrSubtaskNotFound is returned when the subtask does not exist.
	ErrSubtaskNotFound = errors.New("assignment: subtask not found")
)

// Keyspaces for the two per-user histories:
// "assignments:user:{id}:page:{p}:size:{s}" and
// "status_updates:user:{id}:page:{p}:size:{s}".
var (
	Keys       = cache.NewKeyspace("assignment", "assignments")
	StatusKeys = cache.NewKeyspace("status_update", "status_updates")
)

// AssignedMessage is sent to a user when a subtask is assigned to them.
const AssignedMessage = "New Task Assigned"

// Assignment links a subtask to the user working on it. Subtask is filled
// when listing and is nil if the subtask no longer exists.
type Assignment struct {
	AssignedAt   time.Time        `json:"assigned_at"`
	AssignedByID *int64           `json:"assigned_by_id"`
	Subtask      *subtask.Subtask `json:"subtask,omitempty"`
	ID           int64            `json:"id"`
	SubtaskID    int64            `json:"subtask_id"`
	UserID       int64            `json:"user_id"`
}

// StatusUpdate is one status change of a subtask, made by UpdatedBy.
// TimeTakenMinutes is set on the first completion that follows an
// In Progress update.
type StatusUpdate struct {
	UpdatedAt        time.Time `json:"updated_at"`
	AssignedByID     *int64    `json:"assigned_by_id"`
	TimeTakenMinutes *int      `json:"time_taken_minutes"`
	Status           string    `json:"status"`
	ID               int64     `json:"id"`
	SubtaskID        int64     `json:"subtask_id"`
	UpdatedBy        int64     `json:"updated_by"`
}

// NewAssignment holds the fields of an assignment to create.
type NewAssignment struct {
	AssignedByID *int64
	SubtaskID    int64
	UserID       int64
}

// ByUser filters both histories by user.
func ByUser(userID int64) cache.Filter {
	return cache.By("user", userID)
}
