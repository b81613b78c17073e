package binding

import (
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// NodeState is the per-node binding state held in an Engine's side table.
type NodeState struct {
	// Model is the scope model introduced at this node.
	Model any

	// Context is the data context the node's bindings were applied with.
	// Handlers that open a scope for the node's children (with, as)
	// replace it with that scope.
	Context *expression.Context

	// Bindings groups the node's parsed attributes by handler name.
	Bindings map[string][]*Attribute

	// Cleanup holds every subscription created for this node.
	Cleanup *stream.Composite

	// Isolate marks a node whose context does not chain to its
	// ancestors (component hosts).
	Isolate bool

	index    int
	hasIndex bool
	bound    bool
	values   map[string]any
}

func newState(model any) *NodeState {
	return &NodeState{
		Model:   model,
		Cleanup: stream.NewComposite(),
	}
}

// SetIndex marks the node as a generated copy at position i.
func (s *NodeState) SetIndex(i int) {
	s.index, s.hasIndex = i, true
}

// Index returns the position of a generated copy.
func (s *NodeState) Index() (int, bool) {
	return s.index, s.hasIndex
}

// Bound reports whether handlers have been applied to the node.
func (s *NodeState) Bound() bool {
	return s.bound
}

// Attributes returns the attributes bound to handler name.
func (s *NodeState) Attributes(name string) []*Attribute {
	return s.Bindings[name]
}

// Set stores a handler-private value.
func (s *NodeState) Set(key string, v any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = v
}

// Get returns a handler-private value.
func (s *NodeState) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}
