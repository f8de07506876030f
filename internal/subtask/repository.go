package subtask

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
)

// Repository is the authoritative subtask store.
type Repository interface {
	Get(ctx context.Context, id int64) (Subtask, error)
	// Page lists the subtasks of one task, or of every task when taskID
	// is 0, newest id first.
	Page(ctx context.Context, taskID int64, offset, limit int) ([]Subtask, int, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, in NewSubtask) (Subtask, error)
	Update(ctx context.Context, id int64, in Update) (Subtask, error)
	// SetStatus changes the status. Entering In Progress stamps start_time
	// once; entering Completed stamps completed_at.
	SetStatus(ctx context.Context, id int64, status string) (Subtask, error)
	// Delete removes a subtask and returns the removed row.
	Delete(ctx context.Context, id int64) (Subtask, error)
}

const table = "subtasks"

var columns = []string{
	"id", "task_id", "title", "description", "status", "priority", "deadline",
	"estimated_hours", "time_spent", "assignee_name", "start_time", "completed_at",
	"created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

func scan(s pg.Scanner) (Subtask, error) {
	var st Subtask
	err := s.Scan(&st.ID, &st.TaskID, &st.Title, &st.Description, &st.Status, &st.Priority, &st.Deadline,
		&st.EstimatedHours, &st.TimeSpent, &st.AssigneeName, &st.StartTime, &st.CompletedAt,
		&st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db pg.DBTX
}

// NewPostgres returns a repository over db, which may be a transaction.
func NewPostgres(db pg.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Get(ctx context.Context, id int64) (Subtask, error) {
	st, err := pg.One(ctx, r.db, pg.Builder.Select(columns...).From(table).Where(squirrel.Eq{"id": id}), scan)
	return st, notFound(err)
}

func (r *Postgres) Page(ctx context.Context, taskID int64, offset, limit int) ([]Subtask, int, error) {
	var where squirrel.Sqlizer
	if taskID != 0 {
		where = squirrel.Eq{"task_id": taskID}
	}
	return pg.Page(ctx, r.db,
		pg.Builder.Select(columns...).From(table).OrderBy("id DESC"),
		table, where, offset, limit, scan)
}

func (r *Postgres) Count(ctx context.Context) (int64, error) {
	return pg.Count(ctx, r.db, table, nil)
}

func (r *Postgres) Create(ctx context.Context, in NewSubtask) (Subtask, error) {
	values := map[string]any{
		"task_id":         in.TaskID,
		"title":           in.Title,
		"description":     in.Description,
		"deadline":        in.Deadline,
		"estimated_hours": in.EstimatedHours,
	}
	if in.Status != "" {
		values["status"] = in.Status
	}
	if in.Priority != "" {
		values["priority"] = in.Priority
	}
	if in.AssigneeName != "" {
		values["assignee_name"] = in.AssigneeName
	}
	return pg.One(ctx, r.db, pg.Builder.Insert(table).SetMap(values).Suffix(returning), scan)
}

func (r *Postgres) Update(ctx context.Context, id int64, in Update) (Subtask, error) {
	set := map[string]any{"updated_at": squirrel.Expr("now()")}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Status != nil {
		set["status"] = *in.Status
	}
	if in.Priority != nil {
		set["priority"] = *in.Priority
	}
	if in.AssigneeName != nil {
		set["assignee_name"] = *in.AssigneeName
	}
	if in.Deadline != nil {
		set["deadline"] = *in.Deadline
	}
	if in.EstimatedHours != nil {
		set["estimated_hours"] = *in.EstimatedHours
	}
	if in.TimeSpent != nil {
		set["time_spent"] = *in.TimeSpent
	}
	if in.TaskID != nil {
		set["task_id"] = *in.TaskID
	}

	st, err := pg.One(ctx, r.db,
		pg.Builder.Update(table).SetMap(set).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return st, notFound(err)
}

func (r *Postgres) SetStatus(ctx context.Context, id int64, status string) (Subtask, error) {
	q := pg.Builder.Update(table).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()"))
	switch status {
	case StatusInProgress:
		q = q.Set("start_time", squirrel.Expr("COALESCE(start_time, now())"))
	case StatusCompleted:
		q = q.Set("completed_at", squirrel.Expr("now()"))
	}

	st, err := pg.One(ctx, r.db, q.Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return st, notFound(err)
}

func (r *Postgres) Delete(ctx context.Context, id int64) (Subtask, error) {
	st, err := pg.One(ctx, r.db,
		pg.Builder.Delete(table).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return st, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, pg.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
