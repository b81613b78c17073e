package bindkit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/expression"
	"github.com/vango-dev/bindkit/pkg/stream"
	"github.com/vango-dev/bindkit/pkg/telemetry"
)

func newRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	rt, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	n, err := dom.ParseElement(markup)
	if err != nil {
		t.Fatalf("parse %q: %v", markup, err)
	}
	return n
}

func TestRender(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	got, err := rt.Render(`<p><b bind-text="name"></b></p>`, map[string]any{"name": NewProperty("world")})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := `<p><b bind-text="name">world</b></p>`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
	if n := rt.Engine().StateCount(); n != 0 {
		t.Errorf("StateCount after Render = %d, want 0", n)
	}
}

func TestRenderReleasesBindingsOnError(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	name := NewProperty("world")

	_, err := rt.Render(`<div><p bind-text="name"></p><span bind-if="shown" bind-with="name"></span></div>`,
		map[string]any{"name": name, "shown": true})
	if errors.CodeOf(err) != errors.CodeExclusivity {
		t.Fatalf("Render error = %v, want %s", err, errors.CodeExclusivity)
	}
	if n := rt.Engine().StateCount(); n != 0 {
		t.Errorf("StateCount after failed Render = %d, want 0", n)
	}
	if n := name.SubscriberCount(); n != 0 {
		t.Errorf("name subscribers after failed Render = %d, want 0", n)
	}
}

func TestApplyBindingsFollowsUpdates(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	name := NewProperty("world")
	vm := map[string]any{"name": name}
	root := parse(t, `<p><b bind-text="name"></b></p>`)

	if err := rt.ApplyBindings(vm, root); err != nil {
		t.Fatalf("ApplyBindings: %v", err)
	}
	b := root.FirstChild

	name.Set("gopher")
	if got := dom.Text(b); got != "gopher" {
		t.Errorf("text = %q, want gopher", got)
	}
	if got, ok := rt.DataFor(b).(map[string]any); !ok || got["name"] != name {
		t.Errorf("DataFor = %v, want the bound model", rt.DataFor(b))
	}
	if rt.ContextFor(b) == nil {
		t.Error("ContextFor returned nil inside a bound tree")
	}

	rt.CleanNode(root)
	if n := name.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount after clean = %d, want 0", n)
	}
	name.Set("ignored")
	if got := dom.Text(b); got != "gopher" {
		t.Errorf("text after clean = %q, want gopher", got)
	}
	if rt.DataFor(b) != nil {
		t.Error("DataFor should be nil after clean")
	}
}

func TestRegisterHandler(t *testing.T) {
	rt := newRuntime(t, Config{SkipCoreHandlers: true})
	err := rt.RegisterHandler(Descriptor{
		Name: "upper",
		Handler: HandlerFunc(func(e *binding.Engine, n *html.Node, st *NodeState, ctx *expression.Context) error {
			for _, a := range st.Attributes("upper") {
				st.Cleanup.Add(e.Stream(a, ctx, n).Subscribe(stream.NextFunc(func(v any) {
					dom.SetText(n, strings.ToUpper(fmt.Sprint(v)))
				})))
			}
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	got, err := rt.Render(`<span bind-upper="word"></span>`, map[string]any{"word": "quiet"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, ">QUIET<") {
		t.Errorf("Render = %q", got)
	}
	if names := rt.Engine().Registry().Names(); !cmp.Equal(names, []string{"upper"}) {
		t.Errorf("Names = %v, want only upper", names)
	}
}

type greeter struct {
	Greeting *Property[string]
}

func TestRegisterComponent(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	err := rt.RegisterComponent(ComponentDescriptor{
		Name:     "hello-card",
		Template: `<em bind-text="greeting"></em>`,
		Factory: func(params map[string]any) (any, error) {
			return &greeter{Greeting: NewProperty(fmt.Sprintf("hi %v", params["who"]))}, nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterComponent: %v", err)
	}

	got, err := rt.Render(`<div bind-component="'hello-card'" bind-param-who="who"></div>`, map[string]any{"who": "ann"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, ">hi ann</em>") {
		t.Errorf("Render = %q", got)
	}
	if !rt.Components().IsRegistered("Hello-Card") {
		t.Error("component lookup should be case-insensitive")
	}
}

func TestDispatch(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	clicks := 0
	root := parse(t, `<div><button bind-evt-click="onClick"></button></div>`)
	vm := map[string]any{"onClick": func() { clicks++ }}
	if err := rt.ApplyBindings(vm, root); err != nil {
		t.Fatalf("ApplyBindings: %v", err)
	}

	if n := rt.Dispatch(root.FirstChild, dom.Event{Type: dom.Click}); n != 1 {
		t.Errorf("Dispatch invoked %d listeners, want 1", n)
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}

func TestCustomPrefix(t *testing.T) {
	rt := newRuntime(t, Config{Prefix: "data-"})
	got, err := rt.Render(`<p data-text="1 + 1" bind-text="'no'"></p>`, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, ">2</p>") {
		t.Errorf("Render = %q", got)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg), telemetry.WithNamespace("rt"))
	rt := newRuntime(t, Config{Metrics: m})

	if _, err := rt.Render(`<div><p bind-text="'a'"></p><i bind-text="'b'"></i></div>`, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	expected := `
# HELP rt_bindings_applied_total Total number of binding handlers applied
# TYPE rt_bindings_applied_total counter
rt_bindings_applied_total{handler="text"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "rt_bindings_applied_total"); err != nil {
		t.Error(err)
	}
}

func TestDerivedValues(t *testing.T) {
	items := NewList(1, 2, 3)
	total := FromStream(stream.Map[[]int](items, func(xs []int) int {
		sum := 0
		for _, x := range xs {
			sum += x
		}
		return sum
	}), 0)
	defer total.Dispose()

	items.Push(4)
	if got := total.Get(); got != 10 {
		t.Errorf("total = %d, want 10", got)
	}

	doubled := ArrayFromStream[int](stream.Map[[]int](items, func(xs []int) []int {
		out := make([]int, len(xs))
		for i, x := range xs {
			out[i] = x * 2
		}
		return out
	}))
	if diff := cmp.Diff([]int{2, 4, 6, 8}, doubled.Get()); diff != "" {
		t.Errorf("doubled mismatch (-want +got):\n%s", diff)
	}
}
