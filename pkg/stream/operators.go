package stream

// Map transforms each value of src with fn.
func Map[T, R any](src Observable[T], fn func(T) R) *Stream[R] {
	return Create(func(o Observer[R]) Subscription {
		return src.Subscribe(Observer[T]{
			Next:     func(v T) { o.OnNext(fn(v)) },
			Error:    o.Error,
			Complete: o.Complete,
		})
	})
}

// Filter forwards the values of src for which keep returns true.
func Filter[T any](src Observable[T], keep func(T) bool) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		return src.Subscribe(Observer[T]{
			Next: func(v T) {
				if keep(v) {
					o.OnNext(v)
				}
			},
			Error:    o.Error,
			Complete: o.Complete,
		})
	})
}

// DistinctUntilChanged drops values equal to the previous one according to eq.
func DistinctUntilChanged[T any](src Observable[T], eq func(a, b T) bool) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		var (
			last T
			seen bool
		)
		return src.Subscribe(Observer[T]{
			Next: func(v T) {
				if seen && eq(last, v) {
					return
				}
				last, seen = v, true
				o.OnNext(v)
			},
			Error:    o.Error,
			Complete: o.Complete,
		})
	})
}

// Distinct is DistinctUntilChanged with ==.
func Distinct[T comparable](src Observable[T]) *Stream[T] {
	return DistinctUntilChanged(src, func(a, b T) bool { return a == b })
}

// StartWith emits values before the values of src.
func StartWith[T any](src Observable[T], values ...T) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		for _, v := range values {
			o.OnNext(v)
		}
		return src.Subscribe(o)
	})
}
