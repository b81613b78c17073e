package handlers

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

func applyText(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	if n.Type == html.TextNode {
		// The {{ }} marker must survive cleanup or the node cannot be
		// bound again.
		original := n.Data
		st.Cleanup.AddFunc(func() { n.Data = original })
	}
	st.Cleanup.Add(e.Stream(first(st, Text), ctx, n).Subscribe(stream.NextFunc(func(v any) {
		dom.SetText(n, format(v))
	})))
	return nil
}

// applyHTML replaces the children of n with the parsed markup. The new
// children are not bound.
func applyHTML(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	if n.Type != html.ElementNode {
		return targetError(HTML, n, "requires an element")
	}
	st.Cleanup.Add(e.Stream(first(st, HTML), ctx, n).Subscribe(stream.NextFunc(func(v any) {
		nodes, err := dom.Parse(format(v))
		if err != nil {
			report(targetError(HTML, n, "%v", err))
			return
		}
		dom.RemoveChildren(n)
		for _, c := range nodes {
			n.AppendChild(c)
		}
	})))
	return nil
}
