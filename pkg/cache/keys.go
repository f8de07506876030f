package cache

import (
	"fmt"
	"strconv"
	"strings"
)

const sep = ":"

// Dim is a single filter dimension of a list key, e.g. {"project", "42"}.
type Dim struct {
	Name  string
	Value string
}

// Filter is an ordered set of dimensions. Order is part of the key shape:
// the same dimensions in a different order address different entries.
// The empty Filter addresses the unfiltered "all" collection.
type Filter []Dim

// All is the empty filter, named for readability at call sites.
var All Filter

// By starts a filter with one dimension.
func By(name string, value any) Filter {
	return Filter{{Name: name, Value: Segment(value)}}
}

// And returns a copy of f extended with one more dimension.
func (f Filter) And(name string, value any) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Dim{Name: name, Value: Segment(value)})
}

func (f Filter) segments(escape bool) []string {
	if len(f) == 0 {
		return []string{"all"}
	}
	out := make([]string, 0, len(f)*2)
	for _, d := range f {
		name, value := d.Name, d.Value
		if escape {
			name, value = escapeGlob(name), escapeGlob(value)
		}
		out = append(out, name, value)
	}
	return out
}

// String renders the filter the way it appears inside keys.
func (f Filter) String() string {
	return strings.Join(f.segments(false), sep)
}

// Keyspace centralizes key construction for one entity type so fill-time
// keys and invalidation patterns can never drift apart.
//
// Shapes (Entity "task", Collection "tasks"):
//
//	task:{id}                              entity
//	tasks:all:page:{p}:size:{s}            unfiltered page
//	tasks:project:{id}:page:{p}:size:{s}   filtered page
//	tasks:project:{id}:page:*              every page of one filter
//	tasks:*:page:*                         every page of every filter
//	tasks:count, tasks:project:{id}:count  counters
//	projects:details                       named aggregate
//	user:external:{id}                     cross-service lookup
type Keyspace struct {
	Entity     string
	Collection string
}

// NewKeyspace returns a keyspace with singular entity and plural collection names.
func NewKeyspace(entity, collection string) Keyspace {
	return Keyspace{Entity: entity, Collection: collection}
}

// EntityKey returns the key of a single entity.
func (k Keyspace) EntityKey(id any) string {
	return Join(k.Entity, Segment(id))
}

// PageKey returns the key of one page of a filtered list.
func (k Keyspace) PageKey(f Filter, page, size int) string {
	parts := append([]string{k.Collection}, f.segments(false)...)
	parts = append(parts, "page", strconv.Itoa(page), "size", strconv.Itoa(size))
	return Join(parts...)
}

// PagePattern matches every cached page, at any size, of exactly filter f.
func (k Keyspace) PagePattern(f Filter) string {
	parts := append([]string{escapeGlob(k.Collection)}, f.segments(true)...)
	parts = append(parts, "page", "*")
	return Join(parts...)
}

// AllPagesPattern matches every cached page of every filter.
func (k Keyspace) AllPagesPattern() string {
	return Join(escapeGlob(k.Collection), "*", "page", "*")
}

// CountKey returns the counter key of a scope. The empty scope is the
// whole collection ("tasks:count").
func (k Keyspace) CountKey(scope Filter) string {
	if len(scope) == 0 {
		return Join(k.Collection, "count")
	}
	parts := append([]string{k.Collection}, scope.segments(false)...)
	return Join(append(parts, "count")...)
}

// AggregateKey returns the key of a named aggregate ("projects:details").
func (k Keyspace) AggregateKey(name string) string {
	return Join(k.Collection, name)
}

// ExternalKey returns the key under which another service caches this
// entity after fetching it remotely ("user:external:3").
func (k Keyspace) ExternalKey(id any) string {
	return Join(k.Entity, "external", Segment(id))
}

// Join concatenates key segments with ':'.
func Join(segments ...string) string {
	return strings.Join(segments, sep)
}

// Segment renders an identifier or dimension value as a key segment.
func Segment(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

var globReplacer = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob neutralizes glob metacharacters in user-controlled values, so a
// project type like "A*" cannot widen an invalidation pattern.
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
