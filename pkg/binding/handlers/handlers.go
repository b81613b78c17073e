package handlers

import (
	"fmt"
	"reflect"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/expression"
)

// Handler names.
const (
	Text      = binding.TextHandler
	Event     = "evt"
	Value     = "value"
	If        = "if"
	IfNot     = "ifnot"
	With      = "with"
	As        = "as"
	Repeat    = "repeat"
	Component = "component"
	Param     = "param"
	Attr      = "attr"
	CSS       = "css"
	Style     = "style"
	HTML      = "html"
)

// Handler priorities. Higher runs first.
const (
	PriorityRepeat    = 100
	PriorityFlow      = 50
	PriorityComponent = 20
	PriorityValue     = 5
)

// Descriptors returns the standard handler descriptors. The component
// handler resolves names against comps.
func Descriptors(comps *component.Registry) []binding.Descriptor {
	if comps == nil {
		comps = component.NewRegistry()
	}
	return []binding.Descriptor{
		{Name: Text, Handler: binding.HandlerFunc(applyText)},
		{Name: Event, Handler: binding.HandlerFunc(applyEvent)},
		{Name: Value, Priority: PriorityValue, TwoWay: true, Handler: binding.HandlerFunc(applyValue)},
		{Name: If, Priority: PriorityFlow, ControlsDescendants: true, Handler: ifHandler{name: If}},
		{Name: IfNot, Priority: PriorityFlow, ControlsDescendants: true, Handler: ifHandler{name: IfNot, inverse: true}},
		{Name: With, Priority: PriorityFlow, ControlsDescendants: true, Handler: binding.HandlerFunc(applyWith)},
		{Name: As, Priority: PriorityFlow, ControlsDescendants: true, Handler: binding.HandlerFunc(applyAs)},
		{Name: Repeat, Priority: PriorityRepeat, ControlsDescendants: true, Replicates: true, Handler: binding.HandlerFunc(applyRepeat)},
		{Name: Component, Priority: PriorityComponent, ControlsDescendants: true, Handler: &componentHandler{registry: comps}},
		{Name: Param, Handler: binding.HandlerFunc(applyParam)},
		{Name: Attr, Handler: binding.HandlerFunc(applyAttr)},
		{Name: CSS, Handler: binding.HandlerFunc(applyCSS)},
		{Name: Style, Handler: binding.HandlerFunc(applyStyle)},
		{Name: HTML, ControlsDescendants: true, Handler: binding.HandlerFunc(applyHTML)},
	}
}

// Register installs the standard handlers into reg.
func Register(reg *binding.Registry, comps *component.Registry) error {
	for _, d := range Descriptors(comps) {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// param declarations are read by the component handler.
func applyParam(*binding.Engine, *html.Node, *binding.NodeState, *expression.Context) error {
	return nil
}

func first(st *binding.NodeState, name string) *binding.Attribute {
	if attrs := st.Attributes(name); len(attrs) > 0 {
		return attrs[0]
	}
	return nil
}

func report(err error) {
	if err != nil {
		exception.Report(err)
	}
}

func targetError(handler string, n *html.Node, format string, args ...any) error {
	return errors.New(errors.CodeHandlerTarget).
		WithDetailf("%s binding on <%s>: %s", handler, n.Data, fmt.Sprintf(format, args...))
}

// truthy follows script truthiness: nil, false, zero numbers and empty
// strings are false. Collections are true even when empty; only nil slices
// and maps count as false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan, reflect.Slice, reflect.Map:
		return !rv.IsNil()
	}
	return true
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// items converts a slice or array to []any. nil yields no items.
func items(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
