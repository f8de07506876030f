package project

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
)

// Repository is the authoritative project store. Returned projects carry
// no creator fields; the service fills them in.
type Repository interface {
	Get(ctx context.Context, id int64) (Project, error)
	// Page lists projects of one type, or of every type when typ is empty,
	// ordered by updated_at DESC, id DESC.
	Page(ctx context.Context, typ string, offset, limit int) ([]Project, int, error)
	Count(ctx context.Context) (int64, error)
	CountByTypeStatus(ctx context.Context) ([]TypeStatusCount, error)
	Create(ctx context.Context, in NewProject) (Project, error)
	Update(ctx context.Context, id int64, in Update) (Project, error)
	// Delete removes a project and returns the removed row.
	Delete(ctx context.Context, id int64) (Project, error)
}

const table = "projects"

var columns = []string{
	"id", "name", "description", "project_image", "deadline", "created_by", "status",
	"priority", "progress", "project_type", "channel", "created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

func scan(s pg.Scanner) (Project, error) {
	var p Project
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Deadline, &p.CreatedBy, &p.Status,
		&p.Priority, &p.Progress, &p.Type, &p.Channel, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db pg.DBTX
}

// NewPostgres returns a repository over db.
func NewPostgres(db pg.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Get(ctx context.Context, id int64) (Project, error) {
	p, err := pg.One(ctx, r.db, pg.Builder.Select(columns...).From(table).Where(squirrel.Eq{"id": id}), scan)
	return p, notFound(err)
}

func (r *Postgres) Page(ctx context.Context, typ string, offset, limit int) ([]Project, int, error) {
	var where squirrel.Sqlizer
	if typ != "" {
		where = squirrel.Eq{"project_type": typ}
	}
	return pg.Page(ctx, r.db,
		pg.Builder.Select(columns...).From(table).OrderBy("updated_at DESC", "id DESC"),
		table, where, offset, limit, scan)
}

func (r *Postgres) Count(ctx context.Context) (int64, error) {
	return pg.Count(ctx, r.db, table, nil)
}

func (r *Postgres) CountByTypeStatus(ctx context.Context) ([]TypeStatusCount, error) {
	q := pg.Builder.Select("project_type", "status", "COUNT(*)").From(table).GroupBy("project_type", "status")
	return pg.All(ctx, r.db, q, func(s pg.Scanner) (TypeStatusCount, error) {
		var c TypeStatusCount
		err := s.Scan(&c.Type, &c.Status, &c.Count)
		return c, err
	})
}

func (r *Postgres) Create(ctx context.Context, in NewProject) (Project, error) {
	values := map[string]any{
		"name":          in.Name,
		"description":   in.Description,
		"deadline":      in.Deadline,
		"created_by":    in.CreatedBy,
		"progress":      in.Progress,
		"channel":       in.Channel,
		"project_image": in.Image,
	}
	if in.Status != "" {
		values["status"] = in.Status
	}
	if in.Priority != "" {
		values["priority"] = in.Priority
	}
	if in.Type != "" {
		values["project_type"] = in.Type
	}
	return pg.One(ctx, r.db, pg.Builder.Insert(table).SetMap(values).Suffix(returning), scan)
}

func (r *Postgres) Update(ctx context.Context, id int64, in Update) (Project, error) {
	set := map[string]any{"updated_at": squirrel.Expr("now()")}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Deadline != nil {
		set["deadline"] = *in.Deadline
	}
	if in.Status != nil {
		set["status"] = *in.Status
	}
	if in.Priority != nil {
		set["priority"] = *in.Priority
	}
	if in.Progress != nil {
		set["progress"] = *in.Progress
	}
	if in.Type != nil {
		set["project_type"] = *in.Type
	}
	if in.Channel != nil {
		set["channel"] = *in.Channel
	}
	if in.Image != nil {
		set["project_image"] = *in.Image
	}

	p, err := pg.One(ctx, r.db,
		pg.Builder.Update(table).SetMap(set).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return p, notFound(err)
}

func (r *Postgres) Delete(ctx context.Context, id int64) (Project, error) {
	p, err := pg.One(ctx, r.db,
		pg.Builder.Delete(table).Where(squirrel.Eq{"id": id}).Suffix(returning), scan)
	return p, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, pg.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
