package cache_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	errUnavailable = errors.New("store unavailable")
	errMissing     = errors.New("row not found")
)

// brokenStore fails every call, like a Redis that is down.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errUnavailable
}
func (brokenStore) Delete(context.Context, ...string) error { return errUnavailable }
func (brokenStore) Keys(context.Context, string) ([]string, error) {
	return nil, errUnavailable
}

func newStore(t *testing.T) *cache.Memory {
	t.Helper()
	s := cache.NewMemory(cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type item struct {
	Type string `json:"type"`
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// table is an authoritative source with call counters.
type table struct {
	rows  []item
	mu    sync.Mutex
	finds atomic.Int64
	pages atomic.Int64
	count atomic.Int64
}

func (s *table) insert(items ...item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, items...)
}

func (s *table) find(id int) func(context.Context) (item, error) {
	return func(context.Context) (item, error) {
		s.finds.Add(1)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, r := range s.rows {
			if r.ID == id {
				return r, nil
			}
		}
		return item{}, errMissing
	}
}

// page filters by the "type" dimension and orders by id descending.
func (s *table) page(_ context.Context, q cache.Query) ([]item, int, error) {
	s.pages.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []item
	for _, r := range s.rows {
		if typ, ok := dim(q.Filter, "type"); ok && r.Type != typ {
			continue
		}
		matched = append(matched, r)
	}
	slices.SortFunc(matched, func(a, b item) int { return b.ID - a.ID })

	total := len(matched)
	from := min(q.Offset(), total)
	to := min(from+q.Limit(), total)
	return slices.Clone(matched[from:to]), total, nil
}

func (s *table) counter(context.Context) (int64, error) {
	s.count.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func dim(f cache.Filter, name string) (string, bool) {
	for _, d := range f {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

func seed(s *table, typ string, fromID, n int) {
	for i := range n {
		s.insert(item{ID: fromID + i, Type: typ, Name: typ})
	}
}
