package handlers

import (
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// parametric subscribes fn to every bind-<name>-<param> attribute of n.
func parametric(name string, fn func(n *html.Node, param string, v any)) binding.HandlerFunc {
	return func(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
		if n.Type != html.ElementNode {
			return targetError(name, n, "requires an element")
		}
		for _, a := range st.Attributes(name) {
			if a.Param == "" {
				report(targetError(name, n, "missing parameter, e.g. bind-%s-title", name))
				continue
			}
			st.Cleanup.Add(e.Stream(a, ctx, n).Subscribe(stream.NextFunc(func(v any) {
				fn(n, a.Param, v)
			})))
		}
		return nil
	}
}

var (
	applyAttr  = parametric(Attr, setAttr)
	applyCSS   = parametric(CSS, toggleClass)
	applyStyle = parametric(Style, setStyle)
)

// setAttr removes the attribute for nil and false, sets it empty for true
// and to the formatted value otherwise.
func setAttr(n *html.Node, key string, v any) {
	switch x := v.(type) {
	case nil:
		dom.RemoveAttr(n, key)
	case bool:
		if x {
			dom.SetAttr(n, key, "")
		} else {
			dom.RemoveAttr(n, key)
		}
	default:
		dom.SetAttr(n, key, format(v))
	}
}

func toggleClass(n *html.Node, class string, v any) {
	current, _ := dom.Attr(n, "class")
	classes := strings.Fields(current)
	i := slices.Index(classes, class)
	switch on := truthy(v); {
	case on && i < 0:
		classes = append(classes, class)
	case !on && i >= 0:
		classes = slices.Delete(classes, i, i+1)
	default:
		return
	}
	if len(classes) == 0 {
		dom.RemoveAttr(n, "class")
		return
	}
	dom.SetAttr(n, "class", strings.Join(classes, " "))
}

// setStyle sets one declaration of the style attribute, keeping the order
// of the others. Empty values remove the declaration.
func setStyle(n *html.Node, prop string, v any) {
	current, _ := dom.Attr(n, "style")
	value := format(v)

	var decls []string
	found := false
	for _, d := range strings.Split(current, ";") {
		k, _, ok := strings.Cut(d, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(k) == prop {
			found = true
			if value != "" {
				decls = append(decls, prop+": "+value)
			}
			continue
		}
		decls = append(decls, strings.TrimSpace(d))
	}
	if !found && value != "" {
		decls = append(decls, prop+": "+value)
	}
	if len(decls) == 0 {
		dom.RemoveAttr(n, "style")
		return
	}
	dom.SetAttr(n, "style", strings.Join(decls, "; "))
}
