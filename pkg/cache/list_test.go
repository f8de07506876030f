package cache_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var projectKeys = cache.NewKeyspace("project", "projects")

func TestNewPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		total, page, size  int
		wantPages          int
		wantNext, wantPrev bool
	}{
		{name: "first of three", total: 123, page: 1, size: 50, wantPages: 3, wantNext: true},
		{name: "middle", total: 123, page: 2, size: 50, wantPages: 3, wantNext: true, wantPrev: true},
		{name: "last partial", total: 123, page: 3, size: 50, wantPages: 3, wantPrev: true},
		{name: "beyond the end", total: 123, page: 4, size: 50, wantPages: 3, wantPrev: true},
		{name: "exact multiple", total: 100, page: 2, size: 50, wantPages: 2, wantPrev: true},
		{name: "empty collection", total: 0, page: 1, size: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := cache.NewPage[int](nil, tt.total, tt.page, tt.size)
			require.Equal(t, tt.wantPages, p.TotalPages)
			require.Equal(t, tt.wantNext, p.HasNext)
			require.Equal(t, tt.wantPrev, p.HasPrevious)
			require.NotNil(t, p.Items)
		})
	}
}

func TestList_Query(t *testing.T) {
	t.Parallel()

	l := cache.NewList[item](newStore(t), projectKeys, cache.WithPageSize(20, 40))

	require.Equal(t, cache.Query{Page: 1, Size: 20}, l.Query(nil, 0, 0))
	require.Equal(t, cache.Query{Page: 3, Size: 40}, l.Query(nil, 3, 500))

	q := l.Query(nil, 3, 10)
	require.Equal(t, 20, q.Offset())
	require.Equal(t, 10, q.Limit())
}

func TestList_GetPage(t *testing.T) {
	t.Parallel()

	t.Run("pages partition the collection", func(t *testing.T) {
		t.Parallel()

		src := &table{}
		seed(src, "A", 1, 123)
		l := cache.NewList[item](newStore(t), projectKeys)
		ctx := context.Background()

		var seen []int
		for page := 1; page <= 3; page++ {
			p, err := l.GetPage(ctx, nil, page, 50, src.page)
			require.NoError(t, err)
			require.Equal(t, 123, p.Total)
			require.Equal(t, 3, p.TotalPages)
			for _, it := range p.Items {
				seen = append(seen, it.ID)
			}
		}

		require.Len(t, seen, 123)
		slices.Sort(seen)
		require.Equal(t, 1, seen[0])
		require.Equal(t, 123, seen[122])
		require.Len(t, slices.Compact(seen), 123, "pages must not overlap")
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		t.Parallel()

		src := &table{}
		seed(src, "A", 1, 10)
		l := cache.NewList[item](newStore(t), projectKeys)
		ctx := context.Background()

		first, err := l.GetPage(ctx, cache.By("type", "A"), 1, 5, src.page)
		require.NoError(t, err)
		second, err := l.GetPage(ctx, cache.By("type", "A"), 1, 5, src.page)
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, int64(1), src.pages.Load())
	})

	t.Run("different sizes are cached separately", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		src := &table{}
		seed(src, "A", 1, 10)
		l := cache.NewList[item](store, projectKeys)
		ctx := context.Background()

		_, err := l.GetPage(ctx, nil, 1, 5, src.page)
		require.NoError(t, err)
		_, err = l.GetPage(ctx, nil, 1, 10, src.page)
		require.NoError(t, err)

		keys, err := store.Keys(ctx, "projects:all:page:*")
		require.NoError(t, err)
		require.Equal(t, []string{"projects:all:page:1:size:10", "projects:all:page:1:size:5"}, keys)
	})

	t.Run("loader failure is returned and not cached", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		l := cache.NewList[item](store, projectKeys)
		ctx := context.Background()
		boom := errors.New("db down")

		_, err := l.GetPage(ctx, nil, 1, 50, func(context.Context, cache.Query) ([]item, int, error) {
			return nil, 0, boom
		})
		require.ErrorIs(t, err, boom)
		require.Zero(t, store.Len())
	})
}

func TestList_InvalidateFilter(t *testing.T) {
	t.Parallel()

	t.Run("every cached page of the filter is dropped", func(t *testing.T) {
		t.Parallel()

		src := &table{}
		seed(src, "A", 1, 123)
		l := cache.NewList[item](newStore(t), projectKeys)
		ctx := context.Background()
		f := cache.By("type", "A")

		for page := 1; page <= 3; page++ {
			_, err := l.GetPage(ctx, f, page, 50, src.page)
			require.NoError(t, err)
		}
		src.insert(item{ID: 500, Type: "A"})
		l.InvalidateFilter(ctx, f)

		before := src.pages.Load()
		for page := 1; page <= 3; page++ {
			p, err := l.GetPage(ctx, f, page, 50, src.page)
			require.NoError(t, err)
			require.Equal(t, 124, p.Total, "page %d must reflect the new row", page)
		}
		require.Equal(t, before+3, src.pages.Load())
	})

	t.Run("new row appears in its type list after invalidation", func(t *testing.T) {
		t.Parallel()

		src := &table{}
		seed(src, "A", 100, 49)
		l := cache.NewList[item](newStore(t), projectKeys)
		ctx := context.Background()
		f := cache.By("type", "A")

		p, err := l.GetPage(ctx, f, 1, 50, src.page)
		require.NoError(t, err)
		require.Len(t, p.Items, 49)

		src.insert(item{ID: 7, Type: "A", Name: "new"})
		l.InvalidateFilter(ctx, f, nil)

		p, err = l.GetPage(ctx, f, 1, 50, src.page)
		require.NoError(t, err)
		require.Len(t, p.Items, 50)
		require.Equal(t, 7, p.Items[49].ID)
	})

	t.Run("other filters stay cached", func(t *testing.T) {
		t.Parallel()

		src := &table{}
		seed(src, "A", 1, 5)
		seed(src, "B", 10, 5)
		l := cache.NewList[item](newStore(t), projectKeys)
		ctx := context.Background()

		_, err := l.GetPage(ctx, cache.By("type", "A"), 1, 50, src.page)
		require.NoError(t, err)
		_, err = l.GetPage(ctx, cache.By("type", "B"), 1, 50, src.page)
		require.NoError(t, err)

		l.InvalidateFilter(ctx, cache.By("type", "A"))

		before := src.pages.Load()
		_, err = l.GetPage(ctx, cache.By("type", "B"), 1, 50, src.page)
		require.NoError(t, err)
		require.Equal(t, before, src.pages.Load())
	})

	t.Run("glob characters in values do not widen the match", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		src := &table{}
		seed(src, "AB", 1, 3)
		l := cache.NewList[item](store, projectKeys)
		ctx := context.Background()

		_, err := l.GetPage(ctx, cache.By("type", "AB"), 1, 50, src.page)
		require.NoError(t, err)

		l.InvalidateFilter(ctx, cache.By("type", "A*"))

		keys, err := store.Keys(ctx, "projects:type:AB:page:*")
		require.NoError(t, err)
		require.Len(t, keys, 1)
	})
}

func TestList_InvalidateAll(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	src := &table{}
	seed(src, "A", 1, 5)
	seed(src, "B", 10, 5)
	l := cache.NewList[item](store, projectKeys)
	entity := cache.NewEntity[item](store, projectKeys)
	ctx := context.Background()

	for _, f := range []cache.Filter{nil, cache.By("type", "A"), cache.By("type", "B"), cache.By("type", "a/b")} {
		_, err := l.GetPage(ctx, f, 1, 50, src.page)
		require.NoError(t, err)
	}
	_, err := entity.Get(ctx, 1, src.find(1))
	require.NoError(t, err)

	l.InvalidateAll(ctx)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	require.Equal(t, []string{"project:1"}, keys, "entity entries survive list invalidation")
}

func TestList_Refresh(t *testing.T) {
	t.Parallel()

	src := &table{}
	seed(src, "A", 1, 3)
	l := cache.NewList[item](newStore(t), projectKeys)
	ctx := context.Background()

	_, err := l.GetPage(ctx, nil, 1, 50, src.page)
	require.NoError(t, err)

	src.insert(item{ID: 99, Type: "A"})
	require.NoError(t, l.Refresh(ctx, nil, 1, 50, src.page))

	p, err := l.GetPage(ctx, nil, 1, 50, src.page)
	require.NoError(t, err)
	require.Equal(t, 4, p.Total)
	require.Equal(t, int64(2), src.pages.Load())
}

func TestList_StoreFailure(t *testing.T) {
	t.Parallel()

	src := &table{}
	seed(src, "A", 1, 123)
	l := cache.NewList[item](brokenStore{}, projectKeys)
	ctx := context.Background()

	first, err := l.GetPage(ctx, nil, 1, 50, src.page)
	require.NoError(t, err)
	require.Len(t, first.Items, 50)
	require.Equal(t, 123, first.Total)
	require.Equal(t, 3, first.TotalPages)
	require.True(t, first.HasNext)
	require.False(t, first.HasPrevious)

	last, err := l.GetPage(ctx, nil, 3, 50, src.page)
	require.NoError(t, err)
	require.Len(t, last.Items, 23)
	require.False(t, last.HasNext)
	require.True(t, last.HasPrevious)

	_, err = l.GetPage(ctx, nil, 1, 50, src.page)
	require.NoError(t, err)
	require.Equal(t, int64(3), src.pages.Load(), "every read goes to the loader")

	failing := func(context.Context, cache.Query) ([]item, int, error) { return nil, 0, errMissing }
	_, err = l.GetPage(ctx, cache.By("type", "B"), 1, 50, failing)
	require.ErrorIs(t, err, errMissing, "loader errors still propagate")

	require.NotPanics(t, func() {
		l.InvalidateFilter(ctx, nil, cache.By("type", "A"))
		l.InvalidateAll(ctx)
	})
	require.NoError(t, l.Refresh(ctx, nil, 1, 50, src.page))
}
