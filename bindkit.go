// Package bindkit binds reactive view models to HTML node trees.
//
// Markup declares bindings as attributes. The runtime evaluates each
// expression against the node's data context, tracks every reactive value
// the expression reads, and updates the node whenever one of them changes:
//
//	rt, _ := bindkit.New(bindkit.DefaultConfig())
//	root, _ := dom.ParseElement(`<p>Hello, <b bind-text="name"></b></p>`)
//
//	name := bindkit.NewProperty("world")
//	rt.ApplyBindings(map[string]any{"name": name}, root)
//	name.Set("gopher") // <b> now reads "gopher"
//
//	rt.CleanNode(root) // releases every subscription
package bindkit

import (
	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/reactive"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// =============================================================================
// Reactive values (re-export from pkg/reactive)
// =============================================================================

type Value[T any] = reactive.Value[T]
type Property[T any] = reactive.Property[T]
type Array[T any] = reactive.Array[T]
type List[T any] = reactive.List[T]

// Source is any reactive value an expression can depend on.
type Source = reactive.Source

// Writable is a Source the value binding can write back into.
type Writable = reactive.Writable

// NewProperty creates a writable value.
//
// Example:
//
//	count := bindkit.NewProperty(0)
//	count.Set(1)
func NewProperty[T any](initial T) *Property[T] {
	return reactive.NewProperty(initial)
}

// NewList creates a writable array.
func NewList[T any](items ...T) *List[T] {
	return reactive.NewList(items...)
}

// FromStream caches the latest value of src for any number of subscribers.
func FromStream[T any](src stream.Observable[T], seed ...T) *Value[T] {
	return reactive.FromStream(src, seed...)
}

// ArrayFromStream creates an array fed by src.
func ArrayFromStream[T any](src stream.Observable[[]T]) *Array[T] {
	return reactive.NewArray(src)
}

// =============================================================================
// Bindings (re-export from pkg/binding)
// =============================================================================

type Descriptor = binding.Descriptor
type Handler = binding.Handler
type HandlerFunc = binding.HandlerFunc
type NodeState = binding.NodeState
type Attribute = binding.Attribute
type Context = expression.Context

// Component types
type ComponentDescriptor = component.Descriptor
type ComponentFactory = component.Factory

// =============================================================================
// Errors
// =============================================================================

// Error is the structured error type returned and reported by bindkit.
type Error = errors.Error

// ExceptionHandler receives errors that cannot be returned to a caller,
// such as a failed re-evaluation after a reactive update.
type ExceptionHandler = exception.Handler

// SetExceptionHandler installs h process-wide and returns the previous
// handler.
var SetExceptionHandler = exception.SetHandler
