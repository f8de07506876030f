// Package pg holds the query helpers shared by the service repositories:
// a Postgres-flavoured squirrel builder, paging with a total count, and
// not-found mapping.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// ErrNotFound is returned when a single-row query matches nothing.
var ErrNotFound = errors.New("pg: not found")

// Builder renders $n placeholders.
var Builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is the subset of *sql.Row and *sql.Rows used by scan functions.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc decodes one row into T.
type ScanFunc[T any] func(Scanner) (T, error)

// One runs q and scans exactly one row. No rows maps to ErrNotFound.
func One[T any](ctx context.Context, db DBTX, q squirrel.Sqlizer, scan ScanFunc[T]) (T, error) {
	var zero T

	query, args, err := q.ToSql()
	if err != nil {
		return zero, fmt.Errorf("pg: build query: %w", err)
	}

	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// All runs q and scans every row.
func All[T any](ctx context.Context, db DBTX, q squirrel.Sqlizer, scan ScanFunc[T]) ([]T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("pg: build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Page loads one page of sel and the total row count of table under where.
// sel must carry a stable ORDER BY; Page adds LIMIT and OFFSET.
func Page[T any](ctx context.Context, db DBTX, sel squirrel.SelectBuilder, table string, where squirrel.Sqlizer, offset, limit int, scan ScanFunc[T]) ([]T, int, error) {
	total, err := Count(ctx, db, table, where)
	if err != nil {
		return nil, 0, err
	}
	if where != nil {
		sel = sel.Where(where)
	}

	items, err := All(ctx, db, sel.Limit(uint64(limit)).Offset(uint64(offset)), scan)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

// Count returns the number of rows in table matching where. A nil where
// counts the whole table.
func Count(ctx context.Context, db DBTX, table string, where squirrel.Sqlizer) (int64, error) {
	q := Builder.Select("COUNT(*)").From(table)
	if where != nil {
		q = q.Where(where)
	}
	return One(ctx, db, q, func(s Scanner) (int64, error) {
		var n int64
		err := s.Scan(&n)
		return n, err
	})
}

// Exec runs q and returns the number of affected rows.
func Exec(ctx context.Context, db DBTX, q squirrel.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("pg: build query: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExecOne is Exec for statements addressed by primary key: zero affected
// rows maps to ErrNotFound.
func ExecOne(ctx context.Context, db DBTX, q squirrel.Sqlizer) error {
	n, err := Exec(ctx, db, q)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
