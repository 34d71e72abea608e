// Package docstore defines the per-collection document store the tracker
// persists to, and the field transforms that backends apply atomically.
package docstore

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Document is a stored record. Data values are JSON-like: nil, bool,
// float64/int, string, Timestamp, []any and map[string]any.
type Document struct {
	ID   string
	Data map[string]any
}

// Timestamp is the store's native instant type.
type Timestamp struct {
	Time time.Time
}

func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Filter selects documents whose top-level Field equals Value. The zero
// Filter matches every document in the collection.
type Filter struct {
	Field string
	Value any
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

func (f Filter) IsZero() bool {
	return f.Field == ""
}

// SnapshotFunc receives the full matching set, in creation order.
type SnapshotFunc func(docs []Document)

// Collection is a named set of documents.
//
// Create and Update accept Transform values (ServerTimestamp, ArrayUnion,
// ArrayRemoveWhere, ArrayUpdateWhere) in place of plain field values.
// Update merges top-level fields and fails with ErrNotFound when the
// document does not exist. Delete of a missing document succeeds.
type Collection interface {
	Create(ctx context.Context, data map[string]any) (string, error)
	Get(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, id string, data map[string]any) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, f Filter) ([]Document, error)

	// Subscribe delivers the current matching set and then a fresh set
	// after every change, until the returned cancel func is called.
	Subscribe(ctx context.Context, f Filter, onSnapshot SnapshotFunc, onError func(error)) (func(), error)
}

type Store interface {
	Collection(name string) Collection
	Close() error
}

// Matches reports whether data satisfies f.
func (f Filter) Matches(data map[string]any) bool {
	if f.IsZero() {
		return true
	}
	v, ok := data[f.Field]
	return ok && Equal(v, f.Value)
}

// Clone deep copies JSON-like values so callers never share maps or slices
// with the store.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return Clone(data).(map[string]any)
}

// Equal compares JSON-like values. Numbers compare by value regardless of
// their Go type.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch ta := a.(type) {
	case map[string]any:
		tb, ok := b.(map[string]any)
		return ok && maps.EqualFunc(ta, tb, Equal)
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	case Timestamp:
		tb, ok := b.(Timestamp)
		return ok && ta.Time.Equal(tb.Time)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
