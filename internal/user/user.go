// Package user owns user records and serves them through the cache: single
// users, the paginated directory and the user count. Other services read
// users through [Client], which caches the user service's HTTP responses.
package user

import (
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = errors.New("user: not found")

// Keys is the user keyspace: "user:{id}", "users:all:page:{p}:size:{s}",
// "users:count" and "user:external:{id}" for remote lookups.
var Keys = cache.NewKeyspace("user", "users")

// User is the cached user record. Credentials never leave the auth tables
// and are not part of it.
type User struct {
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	EmployeeID          *string   `json:"employee_id"`
	Mobile              *string   `json:"mobile"`
	ProfileImage        *string   `json:"profile_image"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	WorkExperienceLevel string    `json:"work_experience_level"`
	ID                  int64     `json:"id"`
}

// NewUser holds the fields of a user to create. Empty Role and
// WorkExperienceLevel take the column defaults.
type NewUser struct {
	EmployeeID          *string
	Mobile              *string
	Name                string
	Email               string
	Role                string
	WorkExperienceLevel string
}

// Update lists the fields to change; nil fields are left as they are.
type Update struct {
	Name                *string
	Email               *string
	Mobile              *string
	Role                *string
	ProfileImage        *string
	WorkExperienceLevel *string
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Mobile == nil &&
		u.Role == nil && u.ProfileImage == nil && u.WorkExperienceLevel == nil
}
