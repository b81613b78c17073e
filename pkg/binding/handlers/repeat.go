package handlers

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// applyRepeat replaces n with a placeholder comment and inserts one bound
// copy of n per item before it. Every emission rebuilds all copies.
func applyRepeat(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	parent := n.Parent
	if parent == nil {
		return targetError(Repeat, n, "node has no parent")
	}
	a := first(st, Repeat)

	placeholder := dom.Comment("repeat")
	parent.InsertBefore(placeholder, n)
	parent.RemoveChild(n)
	e.MoveState(n, placeholder)

	var copies []*html.Node
	reset := func() {
		for _, c := range copies {
			e.CleanNode(c)
			dom.Remove(c)
		}
		copies = nil
	}
	st.Cleanup.AddFunc(func() {
		reset()
		if p := placeholder.Parent; p != nil {
			p.InsertBefore(n, placeholder)
			p.RemoveChild(placeholder)
		}
	})

	st.Cleanup.Add(e.Stream(a, ctx, n).Subscribe(stream.NextFunc(func(v any) {
		reset()
		if placeholder.Parent == nil {
			return
		}
		list, ok := items(v)
		if !ok {
			report(targetError(Repeat, n, "cannot iterate %T", v))
			return
		}
		for i, item := range list {
			c := dom.Clone(n)
			placeholder.Parent.InsertBefore(c, placeholder)
			copies = append(copies, c)

			e.NewItemState(c, item, i)
			report(e.BindNode(ctx.Child(item).Extend("$index", i), c))
		}
	})))
	return nil
}
