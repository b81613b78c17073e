package handlers

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
)

// applyValue keeps the value of a form control in sync with its
// expression. When the expression names a writable value, control events
// (change, or the bind-value-<event> parameter) write back.
func applyValue(e *binding.Engine, n *html.Node, st *binding.NodeState, ctx *expression.Context) error {
	if !dom.IsElement(n, "input", "select", "textarea") {
		return targetError(Value, n, "only input, select and textarea are supported")
	}
	a := first(st, Value)
	checkbox := isCheckable(n)

	st.Cleanup.Add(e.Stream(a, ctx, n).Subscribe(stream.NextFunc(func(v any) {
		if checkbox {
			setChecked(n, truthy(v))
			return
		}
		setControlValue(n, format(v))
	})))

	target, ok := e.Target(a, ctx, n)
	if !ok {
		return nil
	}
	event := a.Param
	if event == "" {
		event = dom.Change
	}
	st.Cleanup.Add(e.Events().Listen(n, event, func(ev dom.Event) {
		var v any = ev.Value
		if checkbox {
			checked, err := strconv.ParseBool(ev.Value)
			if err != nil {
				_, had := dom.Attr(n, "checked")
				checked = !had
			}
			setChecked(n, checked)
			v = checked
		} else {
			setControlValue(n, ev.Value)
		}
		if err := target.Write(v); err != nil {
			report(errors.FromError(err, errors.CodeWriteRejected).WithExpression(a.Text))
		}
	}))
	return nil
}

func isCheckable(n *html.Node) bool {
	if !dom.IsElement(n, "input") {
		return false
	}
	typ, _ := dom.Attr(n, "type")
	typ = strings.ToLower(typ)
	return typ == "checkbox" || typ == "radio"
}

func setChecked(n *html.Node, on bool) {
	if on {
		dom.SetAttr(n, "checked", "")
	} else {
		dom.RemoveAttr(n, "checked")
	}
}

func setControlValue(n *html.Node, s string) {
	switch {
	case dom.IsElement(n, "textarea"):
		dom.SetText(n, s)
	case dom.IsElement(n, "select"):
		dom.Walk(n, func(c *html.Node) bool {
			if !dom.IsElement(c, "option") {
				return true
			}
			val, ok := dom.Attr(c, "value")
			if !ok {
				val = strings.TrimSpace(dom.Text(c))
			}
			if val == s {
				dom.SetAttr(c, "selected", "")
			} else {
				dom.RemoveAttr(c, "selected")
			}
			return false
		})
	default:
		dom.SetAttr(n, "value", s)
	}
}
