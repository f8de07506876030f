package user

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/taskhub/internal/pg"
)

// Repository is the authoritative user store.
type Repository interface {
	Get(ctx context.Context, id int64) (User, error)
	Page(ctx context.Context, offset, limit int) ([]User, int, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, in NewUser) (User, error)
	Update(ctx context.Context, id int64, in Update) (User, error)
	Delete(ctx context.Context, id int64) error
}

const table = "users"

var columns = []string{
	"id", "employee_id", "name", "email", "mobile", "role",
	"profile_image", "work_experience_level", "created_at", "updated_at",
}

func scan(s pg.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.EmployeeID, &u.Name, &u.Email, &u.Mobile, &u.Role,
		&u.ProfileImage, &u.WorkExperienceLevel, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Postgres implements Repository with squirrel over database/sql.
type Postgres struct {
	db pg.DBTX
}

// NewPostgres returns a repository over db.
func NewPostgres(db pg.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Get(ctx context.Context, id int64) (User, error) {
	u, err := pg.One(ctx, r.db,
		pg.Builder.Select(columns...).From(table).Where(squirrel.Eq{"id": id}), scan)
	return u, notFound(err)
}

// Page lists users newest first.
func (r *Postgres) Page(ctx context.Context, offset, limit int) ([]User, int, error) {
	return pg.Page(ctx, r.db,
		pg.Builder.Select(columns...).From(table).OrderBy("created_at DESC", "id DESC"),
		table, nil, offset, limit, scan)
}

func (r *Postgres) Count(ctx context.Context) (int64, error) {
	return pg.Count(ctx, r.db, table, nil)
}

func (r *Postgres) Create(ctx context.Context, in NewUser) (User, error) {
	values := map[string]any{
		"employee_id": in.EmployeeID,
		"name":        in.Name,
		"email":       in.Email,
		"mobile":      in.Mobile,
	}
	if in.Role != "" {
		values["role"] = in.Role
	}
	if in.WorkExperienceLevel != "" {
		values["work_experience_level"] = in.WorkExperienceLevel
	}

	return pg.One(ctx, r.db,
		pg.Builder.Insert(table).SetMap(values).Suffix(returning()), scan)
}

func (r *Postgres) Update(ctx context.Context, id int64, in Update) (User, error) {
	if in.Empty() {
		return r.Get(ctx, id)
	}

	q := pg.Builder.Update(table).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning())
	q = setIf(q, "name", in.Name)
	q = setIf(q, "email", in.Email)
	q = setIf(q, "mobile", in.Mobile)
	q = setIf(q, "role", in.Role)
	q = setIf(q, "profile_image", in.ProfileImage)
	q = setIf(q, "work_experience_level", in.WorkExperienceLevel)

	u, err := pg.One(ctx, r.db, q, scan)
	return u, notFound(err)
}

func (r *Postgres) Delete(ctx context.Context, id int64) error {
	return notFound(pg.ExecOne(ctx, r.db, pg.Builder.Delete(table).Where(squirrel.Eq{"id": id})))
}

func setIf(q squirrel.UpdateBuilder, column string, v *string) squirrel.UpdateBuilder {
	if v == nil {
		return q
	}
	return q.Set(column, *v)
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func notFound(err error) error {
	if errors.Is(err, pg.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
