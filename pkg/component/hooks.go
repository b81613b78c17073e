package component

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// View-models may implement any of the following interfaces.

// PreBinder is called after the template is inserted and before it is
// bound.
type PreBinder interface {
	PreBind(host *html.Node, ctx *expression.Context)
}

// PostBinder is called after the template and slots are bound.
type PostBinder interface {
	PostBind(host *html.Node, ctx *expression.Context)
}

// Disposer is disposed together with the component instance.
type Disposer interface {
	Dispose()
}

// Emitter publishes events that are dispatched on the host element.
type Emitter interface {
	Emitted() stream.Observable[dom.Event]
}
