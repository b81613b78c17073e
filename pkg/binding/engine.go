package binding

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/reactive"
	"github.com/vango-dev/bindkit/pkg/stream"
	"github.com/vango-dev/bindkit/pkg/telemetry"
)

// Engine applies and cleans bindings. Each Engine has its own node state
// table, so independent trees may use independent engines.
type Engine struct {
	registry *Registry
	prefix   string
	ignored  map[string]bool
	provider *provider
	events   *dom.Events
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer

	mu     sync.Mutex
	states map[*html.Node]*NodeState
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: NewRegistry(),
		prefix:   DefaultPrefix,
		events:   dom.NewEvents(),
		states:   make(map[*html.Node]*NodeState),
	}
	WithIgnoredTags(DefaultIgnoredTags...)(e)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.provider = newProvider(e.prefix)
	return e
}

// Registry returns the handler registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Events returns the event registry handlers listen on.
func (e *Engine) Events() *dom.Events { return e.events }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Metrics returns the engine metrics, possibly nil.
func (e *Engine) Metrics() *telemetry.Metrics { return e.metrics }

// ApplyBindings binds model to root and its subtree. Any state left in the
// subtree by an earlier pass is cleaned first. Exclusivity violations abort the walk and are
// returned; every other failure is reported to the exception handler.
func (e *Engine) ApplyBindings(model any, root *html.Node) (err error) {
	if root == nil || root.Type != html.ElementNode {
		return errors.New(errors.CodeInvalidRoot).
			WithDetailf("got %s node", dom.KindOf(root))
	}

	_, end := e.tracer.Start(context.Background(), telemetry.SpanApply,
		attribute.String("bindkit.root", root.Data))
	start := time.Now()
	defer func() {
		e.metrics.ObserveApply(start)
		end(err)
	}()

	e.CleanNode(root)

	var ctx *expression.Context
	if parent := e.nearest(root.Parent); parent != nil && !parent.Isolate && parent.Context != nil {
		ctx = parent.Context.Child(model)
	} else {
		ctx = expression.NewContext(model)
	}
	st := e.ensureState(root, model)
	st.Model = model
	st.Context = ctx

	return e.visit(root, ctx)
}

// ApplyBindingsToDescendants binds the children of n with ctx.
func (e *Engine) ApplyBindingsToDescendants(ctx *expression.Context, n *html.Node) error {
	for _, c := range dom.Children(n) {
		if err := e.visit(c, ctx); err != nil {
			return err
		}
	}
	return nil
}

// BindNode binds n and its subtree with ctx.
func (e *Engine) BindNode(ctx *expression.Context, n *html.Node) error {
	return e.visit(n, ctx)
}

func (e *Engine) visit(n *html.Node, ctx *expression.Context) error {
	if ctx == nil {
		ctx = expression.NewContext(nil)
	}
	descend, err := e.bindNode(n, ctx)
	if err != nil || !descend {
		return err
	}
	return e.ApplyBindingsToDescendants(ctx, n)
}

// bindNode applies the handlers declared on n and reports whether the
// walker should descend into its children.
func (e *Engine) bindNode(n *html.Node, ctx *expression.Context) (bool, error) {
	if !e.eligible(n) {
		return false, nil
	}
	names, groups := e.provider.parse(n)
	if len(names) == 0 {
		return n.Type == html.ElementNode, nil
	}

	if st := e.State(n); st != nil && st.bound {
		e.CleanNode(n)
	}
	st := e.ensureState(n, ctx.Data())
	st.Context = ctx
	st.Bindings = groups

	descs, errs := e.registry.Resolve(names)
	for _, err := range errs {
		exception.Report(err)
	}
	if err := exclusive(n, descs); err != nil {
		return false, err
	}
	st.bound = true

	_, item := st.Index()
	if !item {
		for _, d := range descs {
			if d.Replicates {
				e.apply(d, n, st, ctx)
				return false, nil
			}
		}
	}

	descend := true
	for _, d := range descs {
		if d.Replicates && item {
			continue
		}
		e.apply(d, n, st, ctx)
		if d.ControlsDescendants {
			descend = false
		}
	}
	return descend && n.Type == html.ElementNode, nil
}

func (e *Engine) apply(d Descriptor, n *html.Node, st *NodeState, ctx *expression.Context) {
	defer exception.Recover("binding handler " + d.Name)
	if err := d.Handler.Apply(e, n, st, ctx); err != nil {
		exception.Report(err)
		return
	}
	e.metrics.RecordApplied(d.Name)
	e.logger.Debug("binding applied", "handler", d.Name, "node", n.Data)
}

func exclusive(n *html.Node, descs []Descriptor) error {
	var owners []string
	for _, d := range descs {
		if d.ControlsDescendants {
			owners = append(owners, "'"+d.Name+"'")
		}
	}
	if len(owners) < 2 {
		return nil
	}
	return errors.New(errors.CodeExclusivity).
		WithDetailf("bindings %s on <%s>", strings.Join(owners, ", "), n.Data).
		WithSuggestion("Move one of the bindings to a wrapper element.")
}

func (e *Engine) eligible(n *html.Node) bool {
	switch n.Type {
	case html.ElementNode:
		return !e.ignored[strings.ToLower(n.Data)]
	case html.TextNode:
		_, ok := interpolation(n.Data)
		return ok
	}
	return false
}

// CleanNode disposes the state of n and every descendant, children first.
// Nodes without state are skipped.
func (e *Engine) CleanNode(n *html.Node) {
	if n == nil {
		return
	}
	_, end := e.tracer.Start(context.Background(), telemetry.SpanClean)
	e.clean(n)
	end(nil)
}

// CleanDescendants disposes the state of every descendant of n, leaving n
// itself bound.
func (e *Engine) CleanDescendants(n *html.Node) {
	for _, c := range dom.Children(n) {
		e.clean(c)
	}
}

func (e *Engine) clean(n *html.Node) {
	for _, c := range dom.Children(n) {
		e.clean(c)
	}
	e.discard(n)
}

func (e *Engine) discard(n *html.Node) {
	e.mu.Lock()
	st, ok := e.states[n]
	delete(e.states, n)
	e.mu.Unlock()
	if !ok {
		return
	}
	st.Cleanup.Unsubscribe()
	e.metrics.RecordCleaned()
}

// State returns the state of n, or nil.
func (e *Engine) State(n *html.Node) *NodeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[n]
}

// StateCount returns the number of nodes with state.
func (e *Engine) StateCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}

func (e *Engine) ensureState(n *html.Node, model any) *NodeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[n]
	if !ok {
		st = newState(model)
		e.states[n] = st
	}
	return st
}

// NewItemState creates fresh state for a generated copy of a replicated
// node. The walker skips replicating handlers on such nodes.
func (e *Engine) NewItemState(n *html.Node, model any, index int) *NodeState {
	st := newState(model)
	st.SetIndex(index)
	e.mu.Lock()
	e.states[n] = st
	e.mu.Unlock()
	return st
}

// MoveState transfers the state of from to to, for handlers that replace
// their node with a placeholder.
func (e *Engine) MoveState(from, to *html.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.states[from]; ok {
		delete(e.states, from)
		e.states[to] = st
	}
}

// DataContext returns the context of the nearest bound node at or above n,
// or nil.
func (e *Engine) DataContext(n *html.Node) *expression.Context {
	if st := e.nearest(n); st != nil {
		return st.Context
	}
	return nil
}

func (e *Engine) nearest(n *html.Node) *NodeState {
	for p := n; p != nil; p = p.Parent {
		if st := e.State(p); st != nil && st.Context != nil {
			return st
		}
	}
	return nil
}

// Stream returns the dependency-tracked stream of a.
func (e *Engine) Stream(a *Attribute, ctx *expression.Context, n *html.Node) stream.Observable[any] {
	if a == nil {
		return stream.Of[any](nil)
	}
	return expression.ToStream(a.Expr, ctx, n, expression.OnEvaluate(func() {
		e.metrics.RecordEvaluation(telemetry.ModeTracked)
	}))
}

// Evaluate evaluates a once, without tracking.
func (e *Engine) Evaluate(a *Attribute, ctx *expression.Context, n *html.Node) any {
	if a == nil {
		return nil
	}
	e.metrics.RecordEvaluation(telemetry.ModeOnce)
	return expression.EvaluateOnce(a.Expr, ctx, n)
}

// Target resolves the writable value a two-way binding writes to.
func (e *Engine) Target(a *Attribute, ctx *expression.Context, n *html.Node) (reactive.Writable, bool) {
	if a == nil {
		return nil, false
	}
	return expression.Target(a.Expr, ctx, n)
}
