package task

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
)

// Repository is the authoritative task store. Returned tasks carry no
// project; the service embeds it.
type Repository interface {
	Get(ctx context.Context, id int64) (Task, error)
	// Page lists the tasks of one project, or of every project when
	// projectID is 0, newest id first.
	Page(ctx context.Context, projectID int64, offset, limit int) ([]Task, int, error)
	// Count counts the tasks of one project, or all tasks when projectID is 0.
	Count(ctx context.Context, projectID int64) (int64, error)
	Create(ctx context.Context, in NewTask) (Task, error)
	Update(ctx context.Context, id int64, in Update) (Task, error)
	// Delete removes a task and returns the removed row.
	Delete(ctx context.Context, id int64) (Task, error)
}

const table = "tasks"

var columns = []string{
	"id", "project_id", "title", "description", "status", "priority",
	"deadline", "estimated_hours", "created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

func scan(s pg.Scanner) (Task, error) {
	var t Task
	err := s.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Deadline, &t.EstimatedHours, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db pg.DBTX
}

// NewPostgres returns a repository over db.
func NewPostgres(db pg.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Get(ctx context.Context, id int64) (Task, error) {
	t, err := pg.One(ctx, r.db, pg.Builder.Select(columns...).From(table).Where(squirrel.Eq{"id": id}), scan)
	return t, notFound(err)
}

func (r *Postgres) Page(ctx context.Context, projectID int64, offset, limit int) ([]Task, int, error) {
	return pg.Page(ctx, r.db,
		pg.Builder.Select(columns...).From(table).OrderBy("id DESC"),
		table, byProject(projectID), offset, limit, scan)
}

func (r *Postgres) Count(ctx context.Context, projectID int64) (int64, error) {
	return pg.Count(ctx, r.db, table, byProject(projectID))
}

func (r *Postgres) Create(ctx context.Context, in NewTask) (Task, error) {
	values := map[string]any{
		"project_id":      in.ProjectID,
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
	return pg.One(ctx, r.db, pg.Builder.Insert(table).SetMap(values).Suffix(returning), scan)
}

func (r *Postgres) Update(ctx context.Context, id int64, in Update) (Task, error) {
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
	if in.Deadline != nil {
		set["deadline"] = *in.Deadline
	}
	if in.EstimatedHours != nil {
		set["estimated_hours"] = *in.EstimatedHours
	}
	if in.ProjectID != nil {
		set["project_id"] = *in.ProjectID
	}

	t, err := pg.One(ctx, r.db,
		pg.Builder.Update(table).SetMap(set).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return t, notFound(err)
}

func (r *Postgres) Delete(ctx context.Context, id int64) (Task, error) {
	t, err := pg.One(ctx, r.db,
		pg.Builder.Delete(table).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return t, notFound(err)
}

func byProject(projectID int64) squirrel.Sqlizer {
	if projectID == 0 {
		return nil
	}
	return squirrel.Eq{"project_id": projectID}
}

func notFound(err error) error {
	if errors.Is(err, pg.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
