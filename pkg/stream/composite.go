package stream

import "sync"

// Composite is a scoped set of subscriptions disposed together.
// Subscriptions are released in reverse order of addition.
type Composite struct {
	mu       sync.Mutex
	subs     []Subscription
	disposed bool
}

// NewComposite creates a Composite holding subs.
func NewComposite(subs ...Subscription) *Composite {
	c := &Composite{}
	for _, s := range subs {
		c.Add(s)
	}
	return c
}

// Add registers s. If the composite has already been disposed, s is released
// immediately.
func (c *Composite) Add(s Subscription) {
	if s == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		s.Unsubscribe()
		return
	}
	c.subs = append(c.subs, s)
	c.mu.Unlock()
}

// AddFunc registers fn to run on disposal.
func (c *Composite) AddFunc(fn func()) {
	c.Add(NewSubscription(fn))
}

// Unsubscribe releases every registered subscription. Safe to call more than
// once.
func (c *Composite) Unsubscribe() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Unsubscribe()
	}
}

// Closed reports whether the composite has been disposed.
func (c *Composite) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Len returns the number of live subscriptions.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Serial holds at most one subscription.
type Serial struct {
	mu       sync.Mutex
	current  Subscription
	disposed bool
}

// Set stores sub and releases the previous subscription.
func (s *Serial) Set(sub Subscription) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	prev := s.current
	s.current = sub
	s.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}

// Unsubscribe releases the current subscription and any later one.
func (s *Serial) Unsubscribe() {
	s.mu.Lock()
	s.disposed = true
	prev := s.current
	s.current = nil
	s.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}
