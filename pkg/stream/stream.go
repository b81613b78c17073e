// Package stream is a small synchronous push-stream toolkit.
//
// Observables deliver values on the goroutine that produced them; there are
// no schedulers and no internal goroutines. Emissions for one subscription
// are expected to be serialized by the producer. Subjects and subscriber
// lists are guarded by mutexes that are never held while calling observers,
// so observers may subscribe, unsubscribe or emit re-entrantly.
package stream

import (
	"sync"
	"sync/atomic"
)

// Observer receives notifications from an Observable. Nil fields are ignored.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// OnNext delivers v to o.Next if set.
func (o Observer[T]) OnNext(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

// OnError delivers err to o.Error if set.
func (o Observer[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// OnComplete calls o.Complete if set.
func (o Observer[T]) OnComplete() {
	if o.Complete != nil {
		o.Complete()
	}
}

// NextFunc returns an Observer that only handles values.
func NextFunc[T any](fn func(T)) Observer[T] {
	return Observer[T]{Next: fn}
}

// Subscription releases the resources held by a subscription.
// Unsubscribe must be safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Observable is a source of values.
type Observable[T any] interface {
	Subscribe(o Observer[T]) Subscription
}

// Erased is implemented by every observable in this package. It lets code
// that only knows a value as `any` subscribe to it.
type Erased interface {
	SubscribeAny(o Observer[any]) Subscription
}

// Stream is a cold observable backed by a subscribe function.
type Stream[T any] struct {
	subscribe func(Observer[T]) Subscription
}

// Create returns a Stream that runs fn for every subscriber. fn may return a
// teardown Subscription, which runs when the subscriber unsubscribes or the
// stream completes or fails. Notifications after completion, failure or
// unsubscription are dropped.
func Create[T any](fn func(o Observer[T]) Subscription) *Stream[T] {
	return &Stream[T]{subscribe: fn}
}

// Subscribe implements Observable.
func (s *Stream[T]) Subscribe(o Observer[T]) Subscription {
	sub := &subscriber[T]{dst: o}
	td := s.subscribe(Observer[T]{Next: sub.next, Error: sub.error, Complete: sub.complete})
	sub.setTeardown(td)
	return sub
}

// SubscribeAny implements Erased.
func (s *Stream[T]) SubscribeAny(o Observer[any]) Subscription {
	return s.Subscribe(typed[T](o))
}

type subscriber[T any] struct {
	dst    Observer[T]
	closed atomic.Bool

	mu       sync.Mutex
	teardown Subscription
}

func (s *subscriber[T]) next(v T) {
	if !s.closed.Load() {
		s.dst.OnNext(v)
	}
}

func (s *subscriber[T]) error(err error) {
	if s.closed.CompareAndSwap(false, true) {
		s.dst.OnError(err)
		s.release()
	}
}

func (s *subscriber[T]) complete() {
	if s.closed.CompareAndSwap(false, true) {
		s.dst.OnComplete()
		s.release()
	}
}

func (s *subscriber[T]) Unsubscribe() {
	s.closed.Store(true)
	s.release()
}

func (s *subscriber[T]) setTeardown(td Subscription) {
	if td == nil {
		return
	}
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		td.Unsubscribe()
		return
	}
	s.teardown = td
	s.mu.Unlock()
}

func (s *subscriber[T]) release() {
	s.mu.Lock()
	td := s.teardown
	s.teardown = nil
	s.mu.Unlock()
	if td != nil {
		td.Unsubscribe()
	}
}

// typed adapts an untyped observer to T.
func typed[T any](o Observer[any]) Observer[T] {
	return Observer[T]{
		Next:     func(v T) { o.OnNext(v) },
		Error:    o.Error,
		Complete: o.Complete,
	}
}

type funcSubscription struct {
	once sync.Once
	fn   func()
}

func (s *funcSubscription) Unsubscribe() {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}

// NewSubscription returns a Subscription that runs fn once.
func NewSubscription(fn func()) Subscription {
	return &funcSubscription{fn: fn}
}

// Of returns a stream that emits values in order and completes.
func Of[T any](values ...T) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		for _, v := range values {
			o.OnNext(v)
		}
		o.OnComplete()
		return nil
	})
}

// Empty returns a stream that completes immediately.
func Empty[T any]() *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		o.OnComplete()
		return nil
	})
}

// Never returns a stream that never emits.
func Never[T any]() *Stream[T] {
	return Create(func(Observer[T]) Subscription { return nil })
}

// Throw returns a stream that fails immediately with err.
func Throw[T any](err error) *Stream[T] {
	return Create(func(o Observer[T]) Subscription {
		o.OnError(err)
		return nil
	})
}

// Erase converts src to an untyped stream.
func Erase[T any](src Observable[T]) *Stream[any] {
	return Create(func(o Observer[any]) Subscription {
		return src.Subscribe(Observer[T]{
			Next:     func(v T) { o.OnNext(v) },
			Error:    o.Error,
			Complete: o.Complete,
		})
	})
}

// AsObservable reports whether v is a stream and, if so, returns it as an
// untyped Observable.
func AsObservable(v any) (Observable[any], bool) {
	switch s := v.(type) {
	case Observable[any]:
		return s, true
	case Erased:
		return Create(func(o Observer[any]) Subscription {
			return s.SubscribeAny(o)
		}), true
	}
	return nil, false
}
