package handlers

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// vmParam is the bind-param-<name> that supplies a ready view-model.
const vmParam = "vm"

// componentHandler renders the component named by its expression into the
// host. The host's original children fill the template's <slot> elements
// and stay bound against the outer context.
type componentHandler struct {
	registry *component.Registry
}

func (h *componentHandler) Apply(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	if n.Type != html.ElementNode {
		return targetError(Component, n, "requires an element")
	}
	slotted := dom.RemoveChildren(n)
	params, override := h.params(e, n, st, ctx)

	instance := &stream.Serial{}
	st.Cleanup.AddFunc(func() {
		dom.RemoveChildren(n)
		for _, c := range slotted {
			n.AppendChild(c)
		}
	})
	st.Cleanup.Add(instance)

	st.Cleanup.Add(e.Stream(first(st, Component), ctx, n).Subscribe(stream.NextFunc(func(v any) {
		name := format(v)
		if name == "" {
			return
		}
		def, err := h.registry.Load(name)
		if err != nil {
			exception.Report(err)
			return
		}
		vm, err := component.Initialize(def, params, override)
		if err != nil {
			exception.Report(err)
		}

		scope := stream.NewComposite()
		instance.Set(scope)
		e.CleanDescendants(n)
		dom.RemoveChildren(n)
		h.render(e, n, st, ctx, def, vm, slotted, scope)
	})))
	return nil
}

func (h *componentHandler) params(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) (map[string]any, any) {
	params := make(map[string]any)
	var override any
	for _, a := range st.Attributes(Param) {
		if a.Param == "" {
			continue
		}
		v := e.Evaluate(a, ctx, n)
		if a.Param == vmParam {
			override = v
			continue
		}
		params[a.Param] = v
	}
	return params, override
}

func (h *componentHandler) render(e *binding.Engine, n *html.Node, st *binding.NodeState, outer *expression.Context,
	def *component.Definition, vm any, slotted []*html.Node, scope *stream.Composite) {
	ctx := outer
	st.Isolate = false
	if vm != nil {
		ctx = expression.NewContext(vm)
		st.Isolate = true

		if d, ok := vm.(component.Disposer); ok {
			scope.AddFunc(d.Dispose)
		}
		if em, ok := vm.(component.Emitter); ok {
			scope.Add(em.Emitted().Subscribe(stream.NextFunc(func(ev dom.Event) {
				e.Events().Dispatch(n, ev)
			})))
		}
	}

	for _, c := range def.Template() {
		n.AppendChild(c)
	}
	if pb, ok := vm.(component.PreBinder); ok {
		pb.PreBind(n, ctx)
	}
	report(e.ApplyBindingsToDescendants(ctx, n))

	for _, slot := range slots(n) {
		for _, c := range slotted {
			clone := dom.Clone(c)
			slot.Parent.InsertBefore(clone, slot)
			report(e.BindNode(outer, clone))
		}
		e.CleanNode(slot)
		dom.Remove(slot)
	}

	if pb, ok := vm.(component.PostBinder); ok {
		pb.PostBind(n, ctx)
	}
}

func slots(n *html.Node) []*html.Node {
	var out []*html.Node
	for _, c := range dom.Children(n) {
		dom.Walk(c, func(x *html.Node) bool {
			if dom.IsElement(x, "slot") {
				out = append(out, x)
				return false
			}
			return true
		})
	}
	return out
}
