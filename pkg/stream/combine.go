package stream

// Merge interleaves the values of all sources. It completes when every
// source has completed and fails on the first error.
func Merge[T any](sources ...Observable[T]) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		if len(sources) == 0 {
			o.OnComplete()
			return nil
		}
		subs := NewComposite()
		remaining := len(sources)
		for _, src := range sources {
			subs.Add(src.Subscribe(Observer[T]{
				Next:  o.Next,
				Error: o.Error,
				Complete: func() {
					remaining--
					if remaining == 0 {
						o.OnComplete()
					}
				},
			}))
		}
		return subs
	})
}

// CombineLatest emits a snapshot of the latest value of every source each
// time any source emits, once all of them have emitted at least once.
// With no sources it emits a single empty slice and completes.
func CombineLatest[T any](sources ...Observable[T]) *Stream[[]T] {
	return Create(func(o Observer[[]T]) Subscription {
		if len(sources) == 0 {
			o.OnNext([]T{})
			o.OnComplete()
			return nil
		}
		var (
			values    = make([]T, len(sources))
			has       = make([]bool, len(sources))
			missing   = len(sources)
			remaining = len(sources)
		)
		subs := NewComposite()
		for i, src := range sources {
			subs.Add(src.Subscribe(Observer[T]{
				Next: func(v T) {
					values[i] = v
					if !has[i] {
						has[i] = true
						missing--
					}
					if missing == 0 {
						snapshot := make([]T, len(values))
						copy(snapshot, values)
						o.OnNext(snapshot)
					}
				},
				Error: o.Error,
				Complete: func() {
					remaining--
					if remaining == 0 {
						o.OnComplete()
					}
				},
			}))
		}
		return subs
	})
}

// ConcatAll flattens a stream of streams sequentially: each inner stream is
// followed to completion before the next one is subscribed. Inner streams
// that arrive while another is active are buffered.
func ConcatAll[T any](src Observable[Observable[T]]) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		var (
			queue     []Observable[T]
			active    bool
			draining  bool
			outerDone bool
			stopped   bool
			current   Subscription
		)

		var drain func()
		drain = func() {
			if draining {
				return
			}
			draining = true
			for !active && !stopped && len(queue) > 0 {
				inner := queue[0]
				queue = queue[1:]
				active = true
				sub := inner.Subscribe(Observer[T]{
					Next: o.Next,
					Error: func(err error) {
						stopped = true
						o.OnError(err)
					},
					Complete: func() {
						active = false
						current = nil
						drain()
					},
				})
				if active {
					current = sub
				}
			}
			draining = false
			if outerDone && !active && !stopped && len(queue) == 0 {
				stopped = true
				o.OnComplete()
			}
		}

		outer := src.Subscribe(Observer[Observable[T]]{
			Next: func(inner Observable[T]) {
				queue = append(queue, inner)
				drain()
			},
			Error: func(err error) {
				stopped = true
				o.OnError(err)
			},
			Complete: func() {
				outerDone = true
				drain()
			},
		})

		return NewSubscription(func() {
			stopped = true
			queue = nil
			outer.Unsubscribe()
			if current != nil {
				current.Unsubscribe()
				current = nil
			}
		})
	})
}

// SwitchMap maps each value of src to an inner stream and mirrors only the
// most recent one. The previous inner subscription is released before the
// next inner stream is subscribed.
func SwitchMap[T, R any](src Observable[T], project func(T) Observable[R]) *Stream[R] {
	return Create(func(o Observer[R]) Subscription {
		var (
			inner       Subscription
			gen         int
			innerActive bool
			outerDone   bool
		)

		outer := src.Subscribe(Observer[T]{
			Next: func(v T) {
				if inner != nil {
					inner.Unsubscribe()
					inner = nil
				}
				gen++
				my := gen
				innerActive = true
				sub := project(v).Subscribe(Observer[R]{
					Next: func(r R) {
						if gen == my {
							o.OnNext(r)
						}
					},
					Error: func(err error) {
						if gen == my {
							o.OnError(err)
						}
					},
					Complete: func() {
						if gen != my {
							return
						}
						innerActive = false
						if outerDone {
							o.OnComplete()
						}
					},
				})
				if gen == my {
					inner = sub
				} else {
					sub.Unsubscribe()
				}
			},
			Error: o.Error,
			Complete: func() {
				outerDone = true
				if !innerActive {
					o.OnComplete()
				}
			},
		})

		return NewSubscription(func() {
			outer.Unsubscribe()
			if inner != nil {
				inner.Unsubscribe()
				inner = nil
			}
		})
	})
}
