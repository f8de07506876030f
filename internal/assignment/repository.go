package assignment

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
	"github.com/dmitrymomot/taskhub/internal/subtask"
	"github.com/dmitrymomot/taskhub/pkg/db"
)

// Repository is the authoritative store for assignments and status updates.
type Repository interface {
	// Assign stores the assignment together with its initial To Do status
	// update, atomically.
	Assign(ctx context.Context, in NewAssignment) (Assignment, StatusUpdate, error)
	// AssignedBy returns who assigned subtaskID to userID, nil when unknown.
	AssignedBy(ctx context.Context, subtaskID, userID int64) (*int64, error)
	// Assignees returns the distinct users subtaskID is assigned to.
	Assignees(ctx context.Context, subtaskID int64) ([]int64, error)
	PageAssignments(ctx context.Context, userID int64, offset, limit int) ([]Assignment, int, error)
	PageStatusUpdates(ctx context.Context, userID int64, offset, limit int) ([]StatusUpdate, int, error)
	// LatestStatus returns the newest update of subtaskID with the given
	// status, or ErrNotFound.
	LatestStatus(ctx context.Context, subtaskID int64, status string) (StatusUpdate, error)
	RecordStatus(ctx context.Context, in StatusUpdate) (StatusUpdate, error)
}

const (
	assignments   = "task_assignments"
	statusUpdates = "task_status_updates"
)

var (
	assignmentColumns = []string{"id", "subtask_id", "user_id", "assigned_by_id", "assigned_at"}
	statusColumns     = []string{"id", "subtask_id", "updated_by", "status", "assigned_by_id", "time_taken_minutes", "updated_at"}
)

func scanAssignment(s pg.Scanner) (Assignment, error) {
	var a Assignment
	err := s.Scan(&a.ID, &a.SubtaskID, &a.UserID, &a.AssignedByID, &a.AssignedAt)
	return a, err
}

func scanStatus(s pg.Scanner) (StatusUpdate, error) {
	var u StatusUpdate
	err := s.Scan(&u.ID, &u.SubtaskID, &u.UpdatedBy, &u.Status, &u.AssignedByID, &u.TimeTakenMinutes, &u.UpdatedAt)
	return u, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns a repository over conn.
func NewPostgres(conn *sql.DB) *Postgres {
	return &Postgres{db: conn}
}

func (r *Postgres) Assign(ctx context.Context, in NewAssignment) (Assignment, StatusUpdate, error) {
	var (
		a Assignment
		u StatusUpdate
	)
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		a, err = pg.One(ctx, tx, pg.Builder.Insert(assignments).
			Columns("subtask_id", "user_id", "assigned_by_id").
			Values(in.SubtaskID, in.UserID, in.AssignedByID).
			Suffix("RETURNING "+strings.Join(assignmentColumns, ", ")), scanAssignment)
		if err != nil {
			return err
		}
		u, err = insertStatus(ctx, tx, StatusUpdate{
			SubtaskID:    in.SubtaskID,
			UpdatedBy:    in.UserID,
			Status:       subtask.StatusToDo,
			AssignedByID: in.AssignedByID,
		})
		return err
	})
	if err != nil {
		return Assignment{}, StatusUpdate{}, err
	}
	return a, u, nil
}

func (r *Postgres) AssignedBy(ctx context.Context, subtaskID, userID int64) (*int64, error) {
	q := pg.Builder.Select("assigned_by_id").From(assignments).
		Where(squirrel.Eq{"subtask_id": subtaskID, "user_id": userID}).
		OrderBy("assigned_at DESC").Limit(1)
	id, err := pg.One(ctx, r.db, q, func(s pg.Scanner) (*int64, error) {
		var id *int64
		err := s.Scan(&id)
		return id, err
	})
	if errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	}
	return id, err
}

func (r *Postgres) Assignees(ctx context.Context, subtaskID int64) ([]int64, error) {
	q := pg.Builder.Select("DISTINCT user_id").From(assignments).
		Where(squirrel.Eq{"subtask_id": subtaskID}).OrderBy("user_id")
	return pg.All(ctx, r.db, q, func(s pg.Scanner) (int64, error) {
		var id int64
		err := s.Scan(&id)
		return id, err
	})
}

func (r *Postgres) PageAssignments(ctx context.Context, userID int64, offset, limit int) ([]Assignment, int, error) {
	return pg.Page(ctx, r.db,
		pg.Builder.Select(assignmentColumns...).From(assignments).OrderBy("assigned_at DESC", "id DESC"),
		assignments, squirrel.Eq{"user_id": userID}, offset, limit, scanAssignment)
}

func (r *Postgres) PageStatusUpdates(ctx context.Context, userID int64, offset, limit int) ([]StatusUpdate, int, error) {
	return pg.Page(ctx, r.db,
		pg.Builder.Select(statusColumns...).From(statusUpdates).OrderBy("updated_at DESC", "id DESC"),
		statusUpdates, squirrel.Eq{"updated_by": userID}, offset, limit, scanStatus)
}

func (r *Postgres) LatestStatus(ctx context.Context, subtaskID int64, status string) (StatusUpdate, error) {
	q := pg.Builder.Select(statusColumns...).From(statusUpdates).
		Where(squirrel.Eq{"subtask_id": subtaskID, "status": status}).
		OrderBy("updated_at DESC", "id DESC").Limit(1)
	u, err := pg.One(ctx, r.db, q, scanStatus)
	if errors.Is(err, pg.ErrNotFound) {
		return StatusUpdate{}, ErrNotFound
	}
	return u, err
}

func (r *Postgres) RecordStatus(ctx context.Context, in StatusUpdate) (StatusUpdate, error) {
	return insertStatus(ctx, r.db, in)
}

func insertStatus(ctx context.Context, conn pg.DBTX, in StatusUpdate) (StatusUpdate, error) {
	return pg.One(ctx, conn, pg.Builder.Insert(statusUpdates).
		Columns("subtask_id", "updated_by", "status", "assigned_by_id", "time_taken_minutes").
		Values(in.SubtaskID, in.UpdatedBy, in.Status, in.AssignedByID, in.TimeTakenMinutes).
		Suffix("RETURNING "+strings.Join(statusColumns, ", ")), scanStatus)
}
