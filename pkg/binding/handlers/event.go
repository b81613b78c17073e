package handlers

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// applyEvent listens for bind-evt-<type>. The expression is evaluated when
// the event fires, so both `save` and `save(item)` work.
func applyEvent(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	for _, a := range st.Attributes(Event) {
		if a.Param == "" {
			report(targetError(Event, n, "missing event type, e.g. bind-evt-click"))
			continue
		}
		st.Cleanup.Add(e.Events().Listen(n, a.Param, func(ev dom.Event) {
			invoke(e.Evaluate(a, ctx, n), ctx.Data(), ev, n)
		}))
	}
	return nil
}

func invoke(v, model any, ev dom.Event, n *html.Node) {
	switch fn := v.(type) {
	case nil:
	case func():
		fn()
	case func(dom.Event):
		fn(ev)
	case func(any, dom.Event):
		fn(model, ev)
	case *stream.Subject[dom.Event]:
		fn.Next(ev)
	case stream.Observer[dom.Event]:
		fn.OnNext(ev)
	default:
		report(targetError(Event, n, "%T is not an event handler", v))
	}
}
