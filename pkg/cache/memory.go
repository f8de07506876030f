package cache

import (
	"container/list"
	"context"
	"path"
	"slices"
	"strings"
	"sync"
	"time"
)

// memEntry holds a stored payload with its expiration time and key.
type memEntry struct {
	expiresAt time.Time // zero value = never expires
	key       string
	value     []byte
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process [Store] with TTL expiration and optional LRU
// eviction. It is meant for tests, local development and single-instance
// deployments; horizontally scaled services should share a [Redis] store.
//
// Lookups are O(1) through a hash map; a doubly-linked list keeps LRU order
// with the most recently used entries at the front.
type Memory struct {
	items    map[string]*list.Element
	eviction *list.List
	opts     *memoryOptions
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

// NewMemory creates a new in-memory store.
//
// Example:
//
//	store := cache.NewMemory(
//	    cache.WithCleanupInterval(30 * time.Second),
//	    cache.WithMaxEntries(10000),
//	)
//	defer store.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		opts:     o,
		done:     make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get returns a copy of the payload stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	elem, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}

	e := elem.Value.(*memEntry)
	if e.expired(time.Now()) {
		m.removeElement(elem)
		return nil, ErrNotFound
	}

	m.eviction.MoveToFront(elem)

	return slices.Clone(e.value), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	value = slices.Clone(value)

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memEntry)
		e.value = value
		e.expiresAt = expiresAt
		m.eviction.MoveToFront(elem)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		if oldest := m.eviction.Back(); oldest != nil {
			m.removeElement(oldest)
		}
	}

	m.items[key] = m.eviction.PushFront(&memEntry{key: key, value: value, expiresAt: expiresAt})

	return nil
}

// Delete removes the given keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, key := range keys {
		if elem, ok := m.items[key]; ok {
			m.removeElement(elem)
		}
	}

	return nil
}

// Keys returns all live keys matching pattern.
// Pattern syntax follows path.Match, except that '/' is an ordinary
// character, as it is in Redis glob: "tasks:*:page:*" matches filter values
// that contain a slash.
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	pattern = noSeparator(pattern)
	now := time.Now()
	var keys []string
	for key, elem := range m.items {
		if elem.Value.(*memEntry).expired(now) {
			continue
		}
		ok, err := path.Match(pattern, noSeparator(key))
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	return keys, nil
}

// noSeparator hides '/' from path.Match, whose '*' stops at it. NUL never
// appears in keys built by [Keyspace].
func noSeparator(s string) string {
	return strings.ReplaceAll(s, "/", "\x00")
}

// Len returns the number of entries currently held, including expired
// entries the janitor has not collected yet.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor goroutine. Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for elem := m.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memEntry).expired(now) {
			m.removeElement(elem)
		}
		elem = prev
	}
}

// removeElement unlinks elem. Caller must hold the mutex.
func (m *Memory) removeElement(elem *list.Element) {
	m.eviction.Remove(elem)
	delete(m.items, elem.Value.(*memEntry).key)
}

var _ Store = (*Memory)(nil)
