package cache

import (
	"context"
	"time"
)

// Page is one page of a filtered collection together with its pagination
// arithmetic. It is what [List] caches under each page key.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// NewPage computes the pagination fields for items at page/size out of total.
// Items are never nil so the page survives a JSON round trip unchanged.
func NewPage[T any](items []T, total, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	return Page[T]{
		Items:       items,
		Total:       total,
		Page:        page,
		Size:        size,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Query is what a page loader receives: the filter plus normalized
// pagination. Loaders must order results by a stable key (recency desc,
// ties broken by primary key) so pages never overlap.
type Query struct {
	Filter Filter
	Page   int
	Size   int
}

// Offset returns the number of rows to skip.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Size
}

// Limit returns the number of rows to fetch.
func (q Query) Limit() int {
	return q.Size
}

// PageLoader fetches one page and the total row count matching the filter.
type PageLoader[T any] func(ctx context.Context, q Query) (items []T, total int, err error)

// List caches pages of a collection under keys built from every filter
// dimension plus page and size, so distinct combinations never collide.
type List[T any] struct {
	core
	keys        Keyspace
	codec       Codec[Page[T]]
	ttl         time.Duration
	pageSize    int
	maxPageSize int
}

// NewList creates a list cache over store. Default TTL: 5 minutes.
func NewList[T any](store Store, keys Keyspace, opts ...Option) *List[T] {
	o := newOptions(keys.Collection, DefaultListTTL, opts)
	return &List[T]{
		core:        newCore(store, o),
		keys:        keys,
		codec:       codecFor[Page[T]](o),
		ttl:         o.ttl,
		pageSize:    o.pageSize,
		maxPageSize: o.maxPageSize,
	}
}

// Query normalizes page and size: page < 1 becomes 1, size < 1 becomes
// the default page size, and sizes above the maximum are capped.
func (l *List[T]) Query(f Filter, page, size int) Query {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = l.pageSize
	}
	size = min(size, l.maxPageSize)
	return Query{Filter: f, Page: page, Size: size}
}

// GetPage returns the cached page, or loads and caches it on a miss.
func (l *List[T]) GetPage(ctx context.Context, f Filter, page, size int, load PageLoader[T]) (Page[T], error) {
	q := l.Query(f, page, size)
	return fill(ctx, &l.core, l.codec, l.keys.PageKey(f, q.Page, q.Size), l.ttl, l.loader(q, load))
}

// Refresh reloads one page unconditionally and overwrites it.
func (l *List[T]) Refresh(ctx context.Context, f Filter, page, size int, load PageLoader[T]) error {
	q := l.Query(f, page, size)
	_, err := refill(ctx, &l.core, l.codec, l.keys.PageKey(f, q.Page, q.Size), l.ttl, l.loader(q, load))
	return err
}

// InvalidateFilter removes every cached page of each filter, at every
// page size. Clearing only page 1 would leave pages 2..N stale.
func (l *List[T]) InvalidateFilter(ctx context.Context, filters ...Filter) {
	for _, f := range filters {
		l.deletePattern(ctx, l.keys.PagePattern(f))
	}
}

// InvalidateAll removes every cached page of every filter. Used after bulk
// mutations such as truncating the collection.
func (l *List[T]) InvalidateAll(ctx context.Context) {
	l.deletePattern(ctx, l.keys.AllPagesPattern())
}

func (l *List[T]) loader(q Query, load PageLoader[T]) func(context.Context) (Page[T], error) {
	return func(ctx context.Context) (Page[T], error) {
		items, total, err := load(ctx, q)
		if err != nil {
			return Page[T]{}, err
		}
		return NewPage(items, total, q.Page, q.Size), nil
	}
}
