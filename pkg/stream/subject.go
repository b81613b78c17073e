package stream

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Subject is a hot multicast observable. Observers receive values emitted
// after they subscribe, in subscription order.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []*subjectObserver[T]
	stopped   bool
	err       error
}

type subjectObserver[T any] struct {
	subject *Subject[T]
	o       Observer[T]
	closed  atomic.Bool
}

func (so *subjectObserver[T]) Unsubscribe() {
	if so.closed.CompareAndSwap(false, true) {
		so.subject.remove(so)
	}
}

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe implements Observable. Subscribing to a stopped subject delivers
// its terminal notification immediately.
func (s *Subject[T]) Subscribe(o Observer[T]) Subscription {
	s.mu.Lock()
	if s.stopped {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			o.OnError(err)
		} else {
			o.OnComplete()
		}
		return NewSubscription(nil)
	}
	so := &subjectObserver[T]{subject: s, o: o}
	s.observers = append(s.observers, so)
	s.mu.Unlock()
	return so
}

// SubscribeAny implements Erased.
func (s *Subject[T]) SubscribeAny(o Observer[any]) Subscription {
	return s.Subscribe(typed[T](o))
}

func (s *Subject[T]) remove(so *subjectObserver[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.observers, so); i >= 0 {
		s.observers = slices.Delete(s.observers, i, i+1)
	}
}

func (s *Subject[T]) snapshot() []*subjectObserver[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	return slices.Clone(s.observers)
}

// Next emits v to every current observer.
func (s *Subject[T]) Next(v T) {
	for _, so := range s.snapshot() {
		if !so.closed.Load() {
			so.o.OnNext(v)
		}
	}
}

// Error stops the subject and notifies every observer of err.
func (s *Subject[T]) Error(err error) {
	for _, so := range s.stop(err) {
		so.o.OnError(err)
	}
}

// Complete stops the subject and notifies every observer.
func (s *Subject[T]) Complete() {
	for _, so := range s.stop(nil) {
		so.o.OnComplete()
	}
}

func (s *Subject[T]) stop(err error) []*subjectObserver[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	s.err = err
	observers := s.observers
	s.observers = nil
	for _, so := range observers {
		so.closed.Store(true)
	}
	return observers
}

// Observed returns the number of current observers.
func (s *Subject[T]) Observed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// AsObserver returns an Observer that forwards into the subject.
func (s *Subject[T]) AsObserver() Observer[T] {
	return Observer[T]{Next: s.Next, Error: s.Error, Complete: s.Complete}
}
