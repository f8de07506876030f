// Package notification stores user notifications and serves the recent
// ones through short-lived list caches.
package notification

import (
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	// ErrNotFound is returned when no notification has the requested id.
	ErrNotFound = errors.New("notification: not found")
	// ErrUserNotFound is returned when the recipient cannot be resolved.
	ErrUserNotFound = errors.New("notification: user not found")
)

// Keys is the notification keyspace: "notifications:all:page:{p}:size:{s}"
// and "notifications:user:{id}:page:{p}:size:{s}".
var Keys = cache.NewKeyspace("notification", "notifications")

// Notification is a message addressed to one user. Message is prefixed
// with the user's name when it is sent.
type Notification struct {
	CreatedAt time.Time `json:"created_at"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
}

// ByUser filters notification lists by recipient.
func ByUser(userID int64) cache.Filter {
	return cache.By("user", userID)
}
