package dom

import (
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/stream"
)

// Common event types.
const (
	Click  = "click"
	Change = "change"
	Input  = "input"
	Submit = "submit"
	Focus  = "focus"
	Blur   = "blur"
)

// Event is a dispatched event.
type Event struct {
	// Type is the event name, e.g. "click".
	Type string

	// Target is the node the event was dispatched on.
	Target *html.Node

	// Current is the node whose listener is running.
	Current *html.Node

	// Value carries the new value for input and change events.
	Value string

	// Detail carries arbitrary payload for custom events.
	Detail any

	stopped *bool
}

// StopPropagation prevents the event from reaching ancestors.
func (e Event) StopPropagation() {
	if e.stopped != nil {
		*e.stopped = true
	}
}

// Listener handles an event.
type Listener func(Event)

type listenerEntry struct {
	fn      Listener
	removed atomic.Bool
}

type key struct {
	node *html.Node
	typ  string
}

// Events is an event registry keyed by node identity. Each binding engine
// owns one.
type Events struct {
	mu        sync.Mutex
	listeners map[key][]*listenerEntry
}

// NewEvents creates an empty registry.
func NewEvents() *Events {
	return &Events{listeners: make(map[key][]*listenerEntry)}
}

// Listen registers fn for events of type typ on n. The returned subscription
// removes the listener.
func (e *Events) Listen(n *html.Node, typ string, fn Listener) stream.Subscription {
	entry := &listenerEntry{fn: fn}
	k := key{n, typ}

	e.mu.Lock()
	e.listeners[k] = append(e.listeners[k], entry)
	e.mu.Unlock()

	return stream.NewSubscription(func() {
		entry.removed.Store(true)
		e.mu.Lock()
		defer e.mu.Unlock()
		list := e.listeners[k]
		if i := slices.Index(list, entry); i >= 0 {
			list = slices.Delete(list, i, i+1)
		}
		if len(list) == 0 {
			delete(e.listeners, k)
		} else {
			e.listeners[k] = list
		}
	})
}

// Dispatch delivers ev to the listeners of n and then of each ancestor until
// a listener stops propagation. It returns the number of listeners invoked.
func (e *Events) Dispatch(n *html.Node, ev Event) int {
	stopped := false
	ev.Target = n
	ev.stopped = &stopped

	invoked := 0
	for cur := n; cur != nil && !stopped; cur = cur.Parent {
		e.mu.Lock()
		list := slices.Clone(e.listeners[key{cur, ev.Type}])
		e.mu.Unlock()

		ev.Current = cur
		for _, l := range list {
			if l.removed.Load() {
				continue
			}
			l.fn(ev)
			invoked++
		}
	}
	return invoked
}

// Trigger dispatches an event of type typ on n.
func (e *Events) Trigger(n *html.Node, typ string) int {
	return e.Dispatch(n, Event{Type: typ})
}

// Count returns the number of listeners registered for typ on n.
func (e *Events) Count(n *html.Node, typ string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[key{n, typ}])
}

// Len returns the total number of registered listeners.
func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, list := range e.listeners {
		n += len(list)
	}
	return n
}
