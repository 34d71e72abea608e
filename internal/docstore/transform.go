package docstore

import "time"

// Transform is a field value computed by the store from the field's current
// value at write time.
type Transform interface {
	// Apply returns the new field value given the current one, which is nil
	// when the field is absent.
	Apply(current any, now time.Time) any
}

type serverTimestamp struct{}

func (serverTimestamp) Apply(_ any, now time.Time) any {
	return TimestampOf(now)
}

// ServerTimestamp sets the field to the store's clock.
var ServerTimestamp Transform = serverTimestamp{}

// UnionOp appends elements not already present in the list.
type UnionOp struct {
	Elems []any
}

func ArrayUnion(elems ...any) UnionOp {
	return UnionOp{Elems: elems}
}

func (op UnionOp) Apply(current any, _ time.Time) any {
	list := asList(current)
	for _, e := range op.Elems {
		if !contains(list, e) {
			list = append(list, Clone(e))
		}
	}
	return list
}

// RemoveWhereOp drops every list element that is an object whose Key
// equals Value.
type RemoveWhereOp struct {
	Key   string
	Value any
}

func ArrayRemoveWhere(key string, value any) RemoveWhereOp {
	return RemoveWhereOp{Key: key, Value: value}
}

func (op RemoveWhereOp) Apply(current any, _ time.Time) any {
	list := asList(current)
	out := make([]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok && Equal(m[op.Key], op.Value) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// UpdateWhereOp merges Patch into every list element that is an object
// whose Key equals Value. Other elements keep their position and content.
type UpdateWhereOp struct {
	Key   string
	Value any
	Patch map[string]any
}

func ArrayUpdateWhere(key string, value any, patch map[string]any) UpdateWhereOp {
	return UpdateWhereOp{Key: key, Value: value, Patch: patch}
}

func (op UpdateWhereOp) Apply(current any, _ time.Time) any {
	list := asList(current)
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok || !Equal(m[op.Key], op.Value) {
			continue
		}
		merged := CloneData(m)
		for k, v := range op.Patch {
			merged[k] = Clone(v)
		}
		list[i] = merged
	}
	return list
}

// asList copies current when it is a list; anything else starts empty.
func asList(current any) []any {
	switch t := current.(type) {
	case []any:
		return Clone(t).([]any)
	case []map[string]any:
		return Clone(t).([]any)
	default:
		return []any{}
	}
}

func contains(list []any, v any) bool {
	for _, e := range list {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// ApplyFields merges data into doc, resolving transforms against the
// current field values.
func ApplyFields(doc map[string]any, data map[string]any, now time.Time) {
	for k, v := range data {
		if t, ok := v.(Transform); ok {
			doc[k] = t.Apply(doc[k], now)
			continue
		}
		doc[k] = Clone(v)
	}
}
