package stream

import "sync"

type shared[T any] struct {
	src     Observable[T]
	subject *Subject[T]

	mu   sync.Mutex
	refs int
	conn Subscription
	last T
	has  bool
}

// ShareReplay multicasts src to all subscribers through one upstream
// subscription, replaying the latest value to late subscribers. The upstream
// is connected by the first subscriber and released when the last one
// unsubscribes; the replayed value survives reconnection.
func ShareReplay[T any](src Observable[T]) *Stream[T] {
	sh := &shared[T]{src: src, subject: NewSubject[T]()}
	return Create(sh.subscribe)
}

func (sh *shared[T]) subscribe(o Observer[T]) Subscription {
	sh.mu.Lock()
	sh.refs++
	connect := sh.conn == nil && sh.refs == 1
	last, has := sh.last, sh.has
	sh.mu.Unlock()

	if has {
		o.OnNext(last)
	}
	inner := sh.subject.Subscribe(o)

	if connect {
		conn := sh.src.Subscribe(Observer[T]{
			Next: func(v T) {
				sh.mu.Lock()
				sh.last, sh.has = v, true
				sh.mu.Unlock()
				sh.subject.Next(v)
			},
			Error:    sh.subject.Error,
			Complete: sh.subject.Complete,
		})
		sh.mu.Lock()
		if sh.refs > 0 && sh.conn == nil {
			sh.conn, conn = conn, nil
		}
		sh.mu.Unlock()
		if conn != nil {
			conn.Unsubscribe()
		}
	}

	return NewSubscription(func() {
		inner.Unsubscribe()
		sh.mu.Lock()
		sh.refs--
		var conn Subscription
		if sh.refs == 0 {
			conn, sh.conn = sh.conn, nil
		}
		sh.mu.Unlock()
		if conn != nil {
			conn.Unsubscribe()
		}
	})
}
