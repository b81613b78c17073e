package live

import (
	"sort"

	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/reactive"
)

// Update operations.
const (
	OpSet  = "set"
	OpPush = "push"
	OpPop  = "pop"
)

// Update is a client request to change one model field.
type Update struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
}

// Model is a session's view model. Top-level arrays become lists, every
// other field becomes a property. Nested values are stored as decoded.
type Model struct {
	fields map[string]any
}

// NewModel builds a Model from decoded JSON.
func NewModel(initial map[string]any) *Model {
	m := &Model{fields: make(map[string]any, len(initial))}
	for k, v := range initial {
		if items, ok := v.([]any); ok {
			m.fields[k] = reactive.NewList(items...)
			continue
		}
		m.fields[k] = reactive.NewProperty(v)
	}
	return m
}

// Data returns the object bindings are applied against.
func (m *Model) Data() map[string]any {
	return m.fields
}

// Keys returns the field names, sorted.
func (m *Model) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns the current plain values.
func (m *Model) Snapshot() map[string]any {
	out := make(map[string]any, len(m.fields))
	for k, f := range m.fields {
		out[k] = f.(reactive.Source).Current()
	}
	return out
}

// Apply performs u. Unknown keys are rejected since no binding could
// observe a field that did not exist when the document was bound.
func (m *Model) Apply(u Update) error {
	switch u.Op {
	case OpSet, OpPush, OpPop:
	default:
		return errors.Newf(errors.KindRuntime, "unknown op %q", u.Op)
	}
	f, ok := m.fields[u.Key]
	if !ok {
		return errors.Newf(errors.KindRuntime, "unknown model key %q", u.Key)
	}
	switch f := f.(type) {
	case *reactive.Property[any]:
		if u.Op != OpSet {
			return errors.Newf(errors.KindRuntime, "%s: %q is not a list", u.Op, u.Key)
		}
		f.Set(u.Value)
	case *reactive.List[any]:
		switch u.Op {
		case OpSet:
			items, ok := u.Value.([]any)
			if !ok {
				return errors.Newf(errors.KindRuntime, "set: %q needs an array, got %T", u.Key, u.Value)
			}
			f.Set(items)
		case OpPush:
			f.Push(u.Value)
		case OpPop:
			f.Pop()
		}
	}
	return nil
}

// Dispose releases every field.
func (m *Model) Dispose() {
	for _, f := range m.fields {
		switch f := f.(type) {
		case *reactive.Property[any]:
			f.Dispose()
		case *reactive.List[any]:
			f.Dispose()
		}
	}
}
