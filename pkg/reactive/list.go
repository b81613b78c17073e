package reactive

import "slices"

// List is a writable Array. Each mutation copies the current snapshot,
// changes the copy and publishes it synchronously, so snapshots already
// delivered to subscribers are never modified.
type List[T any] struct {
	*Array[T]
}

// NewList creates a List holding items.
func NewList[T any](items ...T) *List[T] {
	v := newValue[[]T]()
	v.value, v.has = append([]T{}, items...), true
	return &List[T]{Array: &Array[T]{Value: v}}
}

func (l *List[T]) mutate(fn func(items []T) []T) {
	l.publish(fn(slices.Clone(l.Get())))
}

// Set replaces the contents with items.
func (l *List[T]) Set(items []T) {
	l.publish(append([]T{}, items...))
}

// Push appends items and returns the new length.
func (l *List[T]) Push(items ...T) int {
	n := 0
	l.mutate(func(cur []T) []T {
		cur = append(cur, items...)
		n = len(cur)
		return cur
	})
	return n
}

// Pop removes and returns the last element. An empty list is left untouched.
func (l *List[T]) Pop() (T, bool) {
	var out T
	cur := l.Get()
	if len(cur) == 0 {
		return out, false
	}
	out = cur[len(cur)-1]
	l.mutate(func(items []T) []T { return items[:len(items)-1] })
	return out, true
}

// Shift removes and returns the first element. An empty list is left
// untouched.
func (l *List[T]) Shift() (T, bool) {
	var out T
	cur := l.Get()
	if len(cur) == 0 {
		return out, false
	}
	out = cur[0]
	l.mutate(func(items []T) []T { return items[1:] })
	return out, true
}

// Unshift prepends items and returns the new length.
func (l *List[T]) Unshift(items ...T) int {
	n := 0
	l.mutate(func(cur []T) []T {
		cur = append(slices.Clone(items), cur...)
		n = len(cur)
		return cur
	})
	return n
}

// Splice removes deleteCount elements at start, inserts items in their place
// and returns the removed elements. A negative start counts from the end.
func (l *List[T]) Splice(start, deleteCount int, items ...T) []T {
	var removed []T
	l.mutate(func(cur []T) []T {
		if start < 0 {
			start = max(len(cur)+start, 0)
		}
		start = min(start, len(cur))
		end := min(start+max(deleteCount, 0), len(cur))
		removed = slices.Clone(cur[start:end])
		return slices.Insert(slices.Delete(cur, start, end), start, items...)
	})
	return removed
}

// Reverse reverses the order of the elements.
func (l *List[T]) Reverse() {
	l.mutate(func(cur []T) []T {
		slices.Reverse(cur)
		return cur
	})
}

// Remove deletes every element for which pred returns true and returns them.
func (l *List[T]) Remove(pred func(T) bool) []T {
	var removed []T
	l.mutate(func(cur []T) []T {
		kept := cur[:0]
		for _, item := range cur {
			if pred(item) {
				removed = append(removed, item)
				continue
			}
			kept = append(kept, item)
		}
		return kept
	})
	return removed
}

// Clear removes every element.
func (l *List[T]) Clear() {
	l.publish([]T{})
}

// At returns the element at index i.
func (l *List[T]) At(i int) (T, bool) {
	var zero T
	cur := l.Get()
	if i < 0 || i >= len(cur) {
		return zero, false
	}
	return cur[i], true
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool {
	return l.Len() == 0
}
