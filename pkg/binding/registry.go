package binding

import (
	"slices"
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/expression"
)

// Handler implements one kind of binding.
type Handler interface {
	// Apply binds node. Attributes for the handler are in
	// state.Bindings under the descriptor's name. Subscriptions must be
	// added to state.Cleanup.
	Apply(e *Engine, node *html.Node, state *NodeState, ctx *expression.Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(e *Engine, node *html.Node, state *NodeState, ctx *expression.Context) error

// Apply calls f.
func (f HandlerFunc) Apply(e *Engine, node *html.Node, state *NodeState, ctx *expression.Context) error {
	return f(e, node, state, ctx)
}

// Descriptor describes a registered handler.
type Descriptor struct {
	// Name is the attribute name the handler answers to (e.g. "text").
	Name string

	// Priority orders handlers on one node, highest first.
	Priority int

	// ControlsDescendants means the handler binds the node's subtree
	// itself and the walker must not descend. At most one such handler
	// may be present on a node.
	ControlsDescendants bool

	// TwoWay marks handlers that write back into reactive values.
	TwoWay bool

	// Replicates marks handlers that stamp out copies of their node.
	// On a template node such a handler runs alone; on a generated copy
	// it is skipped.
	Replicates bool

	Handler Handler
}

// Registry maps handler names to descriptors. It is safe for concurrent
// use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Descriptor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Descriptor)}
}

// Register adds d, replacing any handler with the same name.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.Newf(errors.KindRegistry, "binding handler name is empty")
	}
	if d.Handler == nil {
		return errors.Newf(errors.KindRegistry, "binding handler %q has no implementation", d.Name)
	}
	r.mu.Lock()
	r.handlers[d.Name] = d
	r.mu.Unlock()
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.handlers[name]
	return d, ok
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up names and returns the found descriptors sorted by
// descending priority. Ties keep the order of names. Every unknown name
// yields an UnregisteredHandler error.
func (r *Registry) Resolve(names []string) ([]Descriptor, []error) {
	var (
		out  []Descriptor
		errs []error
	)
	for _, name := range names {
		d, ok := r.Lookup(name)
		if !ok {
			errs = append(errs, errors.New(errors.CodeUnregisteredHandler).
				WithDetailf("binding handler %q has not been registered", name))
			continue
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b Descriptor) int {
		return b.Priority - a.Priority
	})
	return out, errs
}
