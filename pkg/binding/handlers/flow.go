package handlers

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// ifHandler shows a fresh copy of the node's original children while the
// expression is truthy (falsy for ifnot). An empty list is truthy; see truthy.
type ifHandler struct {
	name    string
	inverse bool
}

func (h ifHandler) Apply(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	template := dom.RemoveChildren(n)
	st.Cleanup.AddFunc(func() {
		dom.RemoveChildren(n)
		for _, c := range template {
			n.AppendChild(c)
		}
	})

	visible := stream.Distinct[bool](stream.Map(e.Stream(first(st, h.name), ctx, n), func(v any) bool {
		return truthy(v) != h.inverse
	}))
	st.Cleanup.Add(visible.Subscribe(stream.NextFunc(func(show bool) {
		e.CleanDescendants(n)
		dom.RemoveChildren(n)
		if !show {
			return
		}
		for _, c := range template {
			n.AppendChild(dom.Clone(c))
		}
		report(e.ApplyBindingsToDescendants(ctx, n))
	})))
	return nil
}

// applyWith binds the children against the expression value.
func applyWith(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	st.Cleanup.Add(e.Stream(first(st, With), ctx, n).Subscribe(stream.NextFunc(func(v any) {
		st.Model = v
		st.Context = ctx.Child(v)
		rebind(e, n, st.Context)
	})))
	return nil
}

// applyAs binds the children with each bind-as-<name> value added to the
// context under name. $data is unchanged.
func applyAs(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	var (
		names   []string
		sources []stream.Observable[any]
	)
	for _, a := range st.Attributes(As) {
		if a.Param == "" {
			report(targetError(As, n, "missing alias name, e.g. bind-as-item"))
			continue
		}
		names = append(names, a.Param)
		sources = append(sources, e.Stream(a, ctx, n))
	}
	if len(names) == 0 {
		return nil
	}

	st.Cleanup.Add(stream.CombineLatest(sources...).Subscribe(stream.NextFunc(func(values []any) {
		scope := ctx
		for i, name := range names {
			scope = scope.Extend(name, values[i])
		}
		st.Context = scope
		rebind(e, n, scope)
	})))
	return nil
}

func rebind(e *binding.Engine, n *html.Node, ctx *expression.Context) {
	e.CleanDescendants(n)
	report(e.ApplyBindingsToDescendants(ctx, n))
}
