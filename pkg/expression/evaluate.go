package expression

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/reactive"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// Option configures ToStream.
type Option func(*streamConfig)

type streamConfig struct {
	onEvaluate func()
}

// OnEvaluate registers fn to run before every evaluation performed on
// behalf of the returned stream.
func OnEvaluate(fn func()) Option {
	return func(c *streamConfig) {
		c.onEvaluate = fn
	}
}

// EvaluateOnce evaluates c without dependency tracking. Errors are reported
// to the exception handler and yield nil.
func EvaluateOnce(c *Compiled, ctx *Context, el *html.Node) any {
	if c == nil {
		return nil
	}
	v, err := c.Eval(ctx, el, nil)
	if err != nil {
		exception.Report(err)
		return nil
	}
	return v
}

// ToStream turns c into a stream of values. The expression is evaluated
// immediately. If that evaluation read no reactive sources the expression is
// constant and is never evaluated again. Otherwise the stream re-evaluates
// whenever one of the sources read by the latest evaluation emits, and keeps
// its subscriptions in step with exactly that set.
func ToStream(c *Compiled, ctx *Context, el *html.Node, opts ...Option) stream.Observable[any] {
	if c == nil {
		return stream.Of[any](nil)
	}
	t := &tracked{c: c, ctx: ctx, el: el}
	for _, opt := range opts {
		opt(&t.cfg)
	}

	rec := NewRecorder()
	result, err := t.eval(rec)
	if err != nil {
		exception.Report(err)
		return stream.Of[any](nil)
	}
	if rec.Len() == 0 {
		return single(result)
	}
	t.initial, t.rec = result, rec
	return stream.Create(t.subscribe)
}

// Target resolves the reactive value a two-way binding writes to. It
// reports false when the expression does not name a Writable.
func Target(c *Compiled, ctx *Context, el *html.Node) (reactive.Writable, bool) {
	if c == nil {
		return nil, false
	}
	p := c.targetProgram()
	if p == nil {
		return nil, false
	}
	v, err := c.run(p, ctx, el, nil)
	if err != nil {
		return nil, false
	}
	w, ok := v.(reactive.Writable)
	return w, ok
}

func single(v any) stream.Observable[any] {
	if s, ok := stream.AsObservable(v); ok {
		return s
	}
	return stream.Of[any](v)
}

// tracked is a non-constant expression bound to one context.
type tracked struct {
	c   *Compiled
	ctx *Context
	el  *html.Node
	cfg streamConfig

	mu      sync.Mutex
	initial any
	rec     *Recorder
	used    bool
}

func (t *tracked) eval(rec *Recorder) (any, error) {
	if t.cfg.onEvaluate != nil {
		t.cfg.onEvaluate()
	}
	return t.c.Eval(t.ctx, t.el, rec)
}

func (t *tracked) subscribe(o stream.Observer[any]) stream.Subscription {
	t.mu.Lock()
	first := !t.used
	t.used = true
	result, rec := t.initial, t.rec
	t.initial, t.rec = nil, nil
	t.mu.Unlock()

	if !first {
		rec = NewRecorder()
		var err error
		if result, err = t.eval(rec); err != nil {
			exception.Report(err)
			return stream.Of[any](nil).Subscribe(o)
		}
		if rec.Len() == 0 {
			return single(result).Subscribe(o)
		}
	}

	outer := stream.Create(func(out stream.Observer[stream.Observable[any]]) stream.Subscription {
		d := &dependencies{t: t, out: out, subs: make(map[uint64]stream.Subscription)}
		d.rebalance(rec)
		return stream.NewSubscription(d.dispose)
	})
	return stream.ConcatAll[any](stream.StartWith[stream.Observable[any]](outer, single(result))).Subscribe(o)
}

// dependencies is the fan-in aggregator of one subscription to a tracked
// expression. subs always mirrors the sources read by the latest successful
// evaluation.
type dependencies struct {
	t    *tracked
	out  stream.Observer[stream.Observable[any]]
	subs map[uint64]stream.Subscription

	rebalancing bool
	running     bool
	pending     bool
	disposed    bool
}

func (d *dependencies) trigger(any) {
	if d.disposed || d.rebalancing {
		return
	}
	if d.running {
		d.pending = true
		return
	}
	d.running = true
	for {
		d.pending = false
		d.reevaluate()
		if !d.pending || d.disposed {
			break
		}
	}
	d.running = false
}

func (d *dependencies) reevaluate() {
	rec := NewRecorder()
	result, err := d.t.eval(rec)
	if err != nil {
		exception.Report(err)
		return
	}
	d.rebalance(rec)
	if d.disposed {
		return
	}
	d.out.OnNext(single(result))
}

// rebalance releases sources missing from rec before subscribing the new
// ones. Replays delivered while subscribing are not triggers.
func (d *dependencies) rebalance(rec *Recorder) {
	d.rebalancing = true
	defer func() { d.rebalancing = false }()

	for id, sub := range d.subs {
		if !rec.Has(id) {
			sub.Unsubscribe()
			delete(d.subs, id)
		}
	}
	for _, src := range rec.Sources() {
		if d.disposed {
			return
		}
		if _, ok := d.subs[src.ID()]; ok {
			continue
		}
		d.subs[src.ID()] = src.SubscribeAny(stream.NextFunc(d.trigger))
	}
}

func (d *dependencies) dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	for id, sub := range d.subs {
		sub.Unsubscribe()
		delete(d.subs, id)
	}
}
