package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
)

// Repository is the authoritative notification store.
type Repository interface {
	// Page lists the notifications of one user, or of everyone when userID
	// is 0, newest first.
	Page(ctx context.Context, userID int64, offset, limit int) ([]Notification, int, error)
	Create(ctx context.Context, userID int64, userName, message string) (Notification, error)
	// Delete removes a notification and returns the removed row.
	Delete(ctx context.Context, id int64) (Notification, error)
	DeleteAll(ctx context.Context) error
}

const table = "notifications"

var columns = []string{"id", "user_id", "user_name", "message", "created_at"}

var returning = "RETURNING " + strings.Join(columns, ", ")

func scan(s pg.Scanner) (Notification, error) {
	var n Notification
	err := s.Scan(&n.ID, &n.UserID, &n.UserName, &n.Message, &n.CreatedAt)
	return n, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db pg.DBTX
}

// NewPostgres returns a repository over db.
func NewPostgres(db pg.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Page(ctx context.Context, userID int64, offset, limit int) ([]Notification, int, error) {
	var where squirrel.Sqlizer
	if userID != 0 {
		where = squirrel.Eq{"user_id": userID}
	}
	return pg.Page(ctx, r.db,
		pg.Builder.Select(columns...).From(table).OrderBy("created_at DESC", "id DESC"),
		table, where, offset, limit, scan)
}

func (r *Postgres) Create(ctx context.Context, userID int64, userName, message string) (Notification, error) {
	return pg.One(ctx, r.db, pg.Builder.Insert(table).
		Columns("user_id", "user_name", "message").
		Values(userID, userName, message).
		Suffix(returning), scan)
}

func (r *Postgres) Delete(ctx context.Context, id int64) (Notification, error) {
	n, err := pg.One(ctx, r.db,
		pg.Builder.Delete(table).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	if errors.Is(err, pg.ErrNotFound) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func (r *Postgres) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE TABLE "+table)
	return err
}
