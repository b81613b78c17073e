package reactive

import (
	"slices"

	"github.com/vango-dev/bindkit/pkg/stream"
)

// Array is a reactive slice. Every derivation recomputes a full new slice
// from each snapshot the source emits.
type Array[T any] struct {
	*Value[[]T]
}

// NewArray creates an Array fed by src, seeded with an empty slice.
func NewArray[T any](src stream.Observable[[]T]) *Array[T] {
	return &Array[T]{Value: FromStream(src, []T{})}
}

// Len returns the length of the current snapshot.
func (a *Array[T]) Len() int {
	return len(a.Get())
}

// FilterArray derives the elements for which keep returns true.
func (a *Array[T]) FilterArray(keep func(item T, index int) bool) *Array[T] {
	return NewArray[T](stream.Map[[]T](a.Value, func(items []T) []T {
		out := make([]T, 0, len(items))
		for i, item := range items {
			if keep(item, i) {
				out = append(out, item)
			}
		}
		return out
	}))
}

// SortArray derives a stably sorted copy. The source snapshot is never
// reordered.
func (a *Array[T]) SortArray(cmp func(x, y T) int) *Array[T] {
	return NewArray[T](stream.Map[[]T](a.Value, func(items []T) []T {
		out := slices.Clone(items)
		slices.SortStableFunc(out, cmp)
		return out
	}))
}

// EveryArray derives whether pred holds for every element.
func (a *Array[T]) EveryArray(pred func(item T, index int) bool) *Value[bool] {
	return FromStream[bool](stream.Map[[]T](a.Value, func(items []T) bool {
		for i, item := range items {
			if !pred(item, i) {
				return false
			}
		}
		return true
	}))
}

// SomeArray derives whether pred holds for at least one element.
func (a *Array[T]) SomeArray(pred func(item T, index int) bool) *Value[bool] {
	return FromStream[bool](stream.Map[[]T](a.Value, func(items []T) bool {
		for i, item := range items {
			if pred(item, i) {
				return true
			}
		}
		return false
	}))
}

// MapArray derives fn applied to every element.
func MapArray[T, R any](a *Array[T], fn func(item T, index int) R) *Array[R] {
	return NewArray[R](stream.Map[[]T](a.Value, func(items []T) []R {
		out := make([]R, len(items))
		for i, item := range items {
			out[i] = fn(item, i)
		}
		return out
	}))
}

// ReduceArray folds every snapshot into a scalar starting from seed.
func ReduceArray[T, R any](a *Array[T], fn func(acc R, item T, index int) R, seed R) *Value[R] {
	return FromStream[R](stream.Map[[]T](a.Value, func(items []T) R {
		acc := seed
		for i, item := range items {
			acc = fn(acc, item, i)
		}
		return acc
	}), seed)
}

// FlatMapArray concatenates the expansion of every element, preserving order.
func FlatMapArray[T, R any](a *Array[T], fn func(item T) []R) *Array[R] {
	return NewArray[R](stream.Map[[]T](a.Value, func(items []T) []R {
		var out []R
		for _, item := range items {
			out = append(out, fn(item)...)
		}
		if out == nil {
			out = []R{}
		}
		return out
	}))
}

// WhenAny follows the member set most recently emitted by src and emits the
// latest value of every member whenever any of them emits. Subscriptions to
// the previous member set are released before the new set is subscribed.
func WhenAny[T any](src stream.Observable[[]stream.Observable[T]]) *Array[T] {
	return NewArray[T](stream.SwitchMap(src, func(members []stream.Observable[T]) stream.Observable[[]T] {
		return stream.CombineLatest(members...)
	}))
}
