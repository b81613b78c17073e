// Package reactive provides multicast, latest-value-caching reactive values
// and arrays built on package stream.
//
// A Value wraps one upstream stream and subscribes to it exactly once no
// matter how many subscribers it has. Every emission updates the cache before
// subscribers are notified, and late subscribers immediately receive the
// latest value.
package reactive

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/bindkit/pkg/stream"
)

// Source is the type-erased view of a reactive value. The expression
// evaluator records every Source an expression reads.
type Source interface {
	ID() uint64
	Current() any
	SubscribeAny(o stream.Observer[any]) stream.Subscription
}

// Writable is a Source that accepts values written by two-way bindings.
type Writable interface {
	Source
	Write(v any) error
}

// Value is a reactive value: a multicast, replay-latest view of one upstream
// stream.
type Value[T any] struct {
	id uint64

	mu        sync.RWMutex
	value     T
	has       bool
	subs      []*valueSub[T]
	upstream  stream.Subscription
	completed bool
	disposed  bool

	// delivering is set while publish notifies subscribers. Emissions
	// arriving meanwhile wait in pending and are delivered in order.
	delivering bool
	pending    []T
}

type valueSub[T any] struct {
	v      *Value[T]
	o      stream.Observer[T]
	closed atomic.Bool
}

func (s *valueSub[T]) Unsubscribe() {
	if s.closed.CompareAndSwap(false, true) {
		s.v.remove(s)
	}
}

func newValue[T any]() *Value[T] {
	return &Value[T]{id: nextID()}
}

// FromStream creates a Value fed by src. The optional seed is returned by Get
// and replayed to subscribers until src emits.
func FromStream[T any](src stream.Observable[T], seed ...T) *Value[T] {
	v := newValue[T]()
	if len(seed) > 0 {
		v.value, v.has = seed[0], true
	}
	v.connect(src)
	return v
}

func (v *Value[T]) connect(src stream.Observable[T]) {
	sub := src.Subscribe(stream.Observer[T]{
		Next:     v.publish,
		Error:    v.fail,
		Complete: v.complete,
	})
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	v.upstream = sub
	v.mu.Unlock()
}

// publish caches x and then notifies subscribers in subscription order.
// A publish from inside a notification only updates the cache and queues x;
// the outer call delivers it once every subscriber has seen the current
// emission.
func (v *Value[T]) publish(x T) {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.value, v.has = x, true
	if v.delivering {
		v.pending = append(v.pending, x)
		v.mu.Unlock()
		return
	}
	v.delivering = true
	subs := slices.Clone(v.subs)
	v.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			v.mu.Lock()
			v.pending = nil
			v.delivering = false
			v.mu.Unlock()
			panic(r)
		}
	}()

	for {
		for _, s := range subs {
			if !s.closed.Load() {
				s.o.OnNext(x)
			}
		}

		v.mu.Lock()
		if len(v.pending) == 0 || v.disposed {
			v.pending = nil
			v.delivering = false
			v.mu.Unlock()
			return
		}
		x = v.pending[0]
		v.pending = v.pending[1:]
		subs = slices.Clone(v.subs)
		v.mu.Unlock()
	}
}

func (v *Value[T]) fail(err error) {
	for _, s := range v.snapshot() {
		s.o.OnError(err)
	}
}

func (v *Value[T]) complete() {
	v.mu.Lock()
	v.completed = true
	v.mu.Unlock()
	for _, s := range v.snapshot() {
		s.o.OnComplete()
	}
}

func (v *Value[T]) snapshot() []*valueSub[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.subs)
}

func (v *Value[T]) remove(s *valueSub[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := slices.Index(v.subs, s); i >= 0 {
		v.subs = slices.Delete(v.subs, i, i+1)
	}
}

// Get returns the cached value: the seed before the first emission, the
// latest emission afterwards, and the last cached value after Dispose.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Subscribe implements stream.Observable. If the value holds a seed or an
// emission, o receives it immediately.
func (v *Value[T]) Subscribe(o stream.Observer[T]) stream.Subscription {
	v.mu.Lock()
	value, has := v.value, v.has
	if v.disposed || v.completed {
		completed := v.completed
		v.mu.Unlock()
		if has {
			o.OnNext(value)
		}
		if completed {
			o.OnComplete()
		}
		return stream.NewSubscription(nil)
	}
	s := &valueSub[T]{v: v, o: o}
	v.subs = append(v.subs, s)
	v.mu.Unlock()

	if has {
		o.OnNext(value)
	}
	return s
}

// SubscribeAny implements stream.Erased and Source.
func (v *Value[T]) SubscribeAny(o stream.Observer[any]) stream.Subscription {
	return v.Subscribe(stream.Observer[T]{
		Next:     func(x T) { o.OnNext(x) },
		Error:    o.Error,
		Complete: o.Complete,
	})
}

// ID returns the value's process-unique identifier.
func (v *Value[T]) ID() uint64 {
	return v.id
}

// Current returns Get() as any.
func (v *Value[T]) Current() any {
	return v.Get()
}

// SubscriberCount returns the number of live subscribers.
func (v *Value[T]) SubscriberCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

// Dispose unsubscribes from upstream and drops all subscribers. It is safe to
// call more than once.
func (v *Value[T]) Dispose() {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.disposed = true
	upstream := v.upstream
	v.upstream = nil
	for _, s := range v.subs {
		s.closed.Store(true)
	}
	v.subs = nil
	v.mu.Unlock()

	if upstream != nil {
		upstream.Unsubscribe()
	}
}

// Disposed reports whether Dispose has been called.
func (v *Value[T]) Disposed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.disposed
}
